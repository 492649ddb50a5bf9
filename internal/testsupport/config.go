// Package testsupport provides shared helpers for package tests: temp-dir
// backed configurations, history store setup, and fixture files.
package testsupport

import (
	"path/filepath"
	"testing"

	"autolib/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InputDir = filepath.Join(base, "input")
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.ManualDir = filepath.Join(base, "manual")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Ingest.DebounceWindowSeconds = 1
	cfg.Workflow.TickInterval = 1
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithReviewDisabled turns off review interception so items flow straight
// through to organization in tests.
func WithReviewDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Review.Enabled = false
	}
}

// WithWorkerLimit caps the organize pool size.
func WithWorkerLimit(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workers.Max = n
	}
}

// WithRegroupPolicy overrides the ingest regroup policy.
func WithRegroupPolicy(policy string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingest.RegroupPolicy = policy
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InputDir)
}
