package services

import (
	"errors"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	inner := errors.New("boom")
	err := Wrap(ErrExternalTool, "converter", "merge", "ffmpeg failed", inner)
	if !errors.Is(err, ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped inner error, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "history", "read", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestWrapBuildsDetail(t *testing.T) {
	err := Wrap(ErrValidation, "ingest", "extract", "archive rejected", nil)
	want := "validation error: ingest: extract: archive rejected"
	if err.Error() != want {
		t.Fatalf("detail mismatch: got %q want %q", err.Error(), want)
	}
}
