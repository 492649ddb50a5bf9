package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	InputDir   string `toml:"input_dir"`
	LibraryDir string `toml:"library_dir"`
	ManualDir  string `toml:"manual_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
}

// Ingest contains configuration for file grouping and archive expansion.
type Ingest struct {
	DebounceWindowSeconds int      `toml:"debounce_window_seconds"`
	AllowedExtensions     []string `toml:"allowed_extensions"`
	// RegroupPolicy controls what happens when files arrive for a directory
	// whose group was already emitted: "fresh" starts a disconnected group,
	// "merge" re-seeds tracking with the previously emitted files.
	RegroupPolicy string `toml:"regroup_policy"`
}

// Matching contains configuration for metadata enrichment and scoring.
type Matching struct {
	Providers         []string `toml:"providers"`
	ProbableThreshold float64  `toml:"probable_threshold"`
	RequestTimeout    int      `toml:"request_timeout"`
}

// Conversion contains configuration for the audio merge step.
type Conversion struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
	Bitrate     string `toml:"bitrate"`
	Codec       string `toml:"codec"`
}

// Review contains configuration for the human review interception.
type Review struct {
	Enabled bool `toml:"enabled"`
}

// Workers contains configuration for the bounded organize worker pool.
type Workers struct {
	Max                 int `toml:"max"`
	MaxOrganizeAttempts int `toml:"max_organize_attempts"`
}

// Audiobookshelf contains configuration for library refresh integration.
type Audiobookshelf struct {
	Enabled   bool   `toml:"enabled"`
	URL       string `toml:"url"`
	APIKey    string `toml:"api_key"`
	LibraryID string `toml:"library_id"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Identification bool   `toml:"identification"`
	Review         bool   `toml:"review"`
	Organization   bool   `toml:"organization"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for daemon timing.
type Workflow struct {
	TickInterval       int `toml:"tick_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for autolib.
//
// Configuration sections by subsystem:
//   - Paths: watched input, library output, manual intervention, logs, API bind
//   - Ingest: debounce window, accepted extensions, regroup policy
//   - Matching: metadata providers and confidence threshold
//   - Conversion: ffmpeg merge settings
//   - Review: web review interception toggle
//   - Workers: organize pool bounds and retry budget
//   - Audiobookshelf: library refresh integration
//   - Notifications: ntfy push notification settings
//   - Workflow: polling intervals
//   - Logging: log format and level
type Config struct {
	DryRun         bool           `toml:"dry_run"`
	Paths          Paths          `toml:"paths"`
	Ingest         Ingest         `toml:"ingest"`
	Matching       Matching       `toml:"matching"`
	Conversion     Conversion     `toml:"conversion"`
	Review         Review         `toml:"review"`
	Workers        Workers        `toml:"workers"`
	Audiobookshelf Audiobookshelf `toml:"audiobookshelf"`
	Notifications  Notifications  `toml:"notifications"`
	Workflow       Workflow       `toml:"workflow"`
	Logging        Logging        `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autolib/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autolib.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// LibraryDir is created on a best-effort basis so the daemon can run when
// external storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InputDir, c.Paths.ManualDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.LibraryDir) != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// ReviewEnabled reports whether review interception is configured.
func (c *Config) ReviewEnabled() bool {
	return c.Review.Enabled
}

// AllowsExtension reports whether the ingest pipeline accepts the extension.
// The comparison is case-insensitive and tolerates a missing leading dot in
// configuration values.
func (c *Config) AllowsExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return false
	}
	for _, allowed := range c.Ingest.AllowedExtensions {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == "" {
			continue
		}
		if !strings.HasPrefix(allowed, ".") {
			allowed = "." + allowed
		}
		if allowed == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
