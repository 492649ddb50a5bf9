package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIngest()
	c.normalizeMatching()
	c.normalizeConversion()
	c.normalizeWorkers()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.Audiobookshelf.URL = strings.TrimRight(strings.TrimSpace(c.Audiobookshelf.URL), "/")
	c.Audiobookshelf.APIKey = strings.TrimSpace(c.Audiobookshelf.APIKey)
	c.Audiobookshelf.LibraryID = strings.TrimSpace(c.Audiobookshelf.LibraryID)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("input_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("library_dir: %w", err)
	}
	if c.Paths.ManualDir, err = expandPath(c.Paths.ManualDir); err != nil {
		return fmt.Errorf("manual_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeIngest() {
	if c.Ingest.DebounceWindowSeconds <= 0 {
		c.Ingest.DebounceWindowSeconds = defaultDebounceWindow
	}
	policy := strings.ToLower(strings.TrimSpace(c.Ingest.RegroupPolicy))
	if policy == "" {
		policy = defaultRegroupPolicy
	}
	c.Ingest.RegroupPolicy = policy

	cleaned := make([]string, 0, len(c.Ingest.AllowedExtensions))
	for _, ext := range c.Ingest.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cleaned = append(cleaned, ext)
	}
	if len(cleaned) > 0 {
		c.Ingest.AllowedExtensions = cleaned
	}
}

func (c *Config) normalizeMatching() {
	providers := make([]string, 0, len(c.Matching.Providers))
	for _, name := range c.Matching.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			providers = append(providers, name)
		}
	}
	c.Matching.Providers = providers
	if c.Matching.RequestTimeout <= 0 {
		c.Matching.RequestTimeout = defaultMatchingTimeout
	}
}

func (c *Config) normalizeConversion() {
	if strings.TrimSpace(c.Conversion.FFmpegPath) == "" {
		c.Conversion.FFmpegPath = defaultFFmpegPath
	}
	if strings.TrimSpace(c.Conversion.FFprobePath) == "" {
		c.Conversion.FFprobePath = defaultFFprobePath
	}
	if strings.TrimSpace(c.Conversion.Bitrate) == "" {
		c.Conversion.Bitrate = defaultBitrate
	}
	if strings.TrimSpace(c.Conversion.Codec) == "" {
		c.Conversion.Codec = defaultCodec
	}
}

func (c *Config) normalizeWorkers() {
	if c.Workers.Max <= 0 {
		c.Workers.Max = defaultMaxWorkers
	}
	if c.Workers.MaxOrganizeAttempts <= 0 {
		c.Workers.MaxOrganizeAttempts = defaultMaxOrganizeAttempts
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.TickInterval <= 0 {
		c.Workflow.TickInterval = defaultTickInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
}

func (c *Config) normalizeLogging() {
	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
}
