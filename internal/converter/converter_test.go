package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"autolib/internal/identify"
	"autolib/internal/services"
	"autolib/internal/testsupport"
)

func stubCommands(t *testing.T, mode string) {
	t.Helper()

	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		helperMode := mode
		if strings.Contains(name, "ffprobe") {
			helperMode = "probe-" + mode
		}
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		env := append(os.Environ(),
			"GO_WANT_HELPER_PROCESS=1",
			"FFMPEG_HELPER_MODE="+helperMode,
		)
		if len(args) > 0 {
			env = append(env, "FFMPEG_HELPER_OUT="+args[len(args)-1])
		}
		cmd.Env = env
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestMergeProducesOutput(t *testing.T) {
	stubCommands(t, "success")

	cfg := testsupport.NewConfig(t)
	cli := NewCLI(cfg, nil)

	dir := t.TempDir()
	files := []string{filepath.Join(dir, "01.mp3"), filepath.Join(dir, "02.mp3")}
	for _, file := range files {
		testsupport.WriteFile(t, file, 64)
	}
	output := filepath.Join(dir, "book.m4b")

	meta := &identify.Result{Title: "The Martian", Author: "Andy Weir"}
	if err := cli.Merge(context.Background(), files, meta, output); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestMergeFailureIsExternalToolError(t *testing.T) {
	stubCommands(t, "failure")

	cfg := testsupport.NewConfig(t)
	cli := NewCLI(cfg, nil)

	dir := t.TempDir()
	file := filepath.Join(dir, "01.mp3")
	testsupport.WriteFile(t, file, 64)

	err := cli.Merge(context.Background(), []string{file}, nil, filepath.Join(dir, "book.m4b"))
	if err == nil {
		t.Fatal("expected merge failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestMergeRequiresInputs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cli := NewCLI(cfg, nil)

	if err := cli.Merge(context.Background(), nil, nil, "/tmp/out.m4b"); err == nil {
		t.Fatal("expected error for empty input list")
	}
	if err := cli.Merge(context.Background(), []string{"a.mp3"}, nil, ""); err == nil {
		t.Fatal("expected error for empty output path")
	}
}

func TestReadTagsMapsAudiobookConventions(t *testing.T) {
	stubCommands(t, "tags")

	prober := NewProber("ffprobe")
	tags, err := prober.ReadTags(context.Background(), "/in/book/01.mp3")
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if tags == nil {
		t.Fatal("expected tags")
	}
	if tags.Title != "Project Hail Mary" || tags.Author != "Andy Weir" {
		t.Fatalf("unexpected tags: %+v", tags)
	}
	if tags.Narrator != "Ray Porter" || tags.Year != 2021 {
		t.Fatalf("unexpected tag detail: %+v", tags)
	}
}

func TestDurationParsesSeconds(t *testing.T) {
	stubCommands(t, "success")

	prober := NewProber("ffprobe")
	seconds, err := prober.Duration(context.Background(), "/in/book/01.mp3")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if seconds != 1800.5 {
		t.Fatalf("unexpected duration: %v", seconds)
	}
}

func TestConcatListEscapesQuotes(t *testing.T) {
	list := concatList([]string{"/in/o'brien/01.mp3"})
	want := "file '/in/o'\\''brien/01.mp3'\n"
	if list != want {
		t.Fatalf("got %q, want %q", list, want)
	}
}

func TestBuildMetadataChapters(t *testing.T) {
	meta := &identify.Result{Title: "Dune", Author: "Frank Herbert", Year: 1965}
	chapters := []Chapter{
		{Title: "01", StartMS: 0, EndMS: 1000},
		{Title: "02", StartMS: 1000, EndMS: 2500},
	}
	doc := buildMetadata(meta, chapters)

	if !strings.HasPrefix(doc, ";FFMETADATA1\n") {
		t.Fatal("missing ffmetadata header")
	}
	for _, want := range []string{"title=Dune", "artist=Frank Herbert", "date=1965", "[CHAPTER]", "START=1000", "END=2500"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("metadata missing %q:\n%s", want, doc)
		}
	}
	if got := strings.Count(doc, "[CHAPTER]"); got != 2 {
		t.Fatalf("expected 2 chapter blocks, got %d", got)
	}
}

func TestBuildMetadataEscapesSpecials(t *testing.T) {
	meta := &identify.Result{Title: "Catch=22; #1"}
	doc := buildMetadata(meta, nil)
	if !strings.Contains(doc, `title=Catch\=22\; \#1`) {
		t.Fatalf("special characters not escaped:\n%s", doc)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("FFMPEG_HELPER_MODE") {
	case "success":
		if out := os.Getenv("FFMPEG_HELPER_OUT"); out != "" {
			_ = os.WriteFile(out, []byte("merged"), 0o644)
		}
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "ffmpeg failed")
		os.Exit(1)
	case "probe-success", "probe-failure":
		fmt.Println(`{"format":{"duration":"1800.5","tags":{}}}`)
		os.Exit(0)
	case "probe-tags":
		fmt.Println(`{"format":{"duration":"120.0","tags":{"album":"Project Hail Mary","album_artist":"Andy Weir","composer":"Ray Porter","date":"2021-05-04"}}}`)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}
