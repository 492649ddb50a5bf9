package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownProviders = map[string]struct{}{
	"openlibrary": {},
	"googlebooks": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be configured")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be configured")
	}
	if c.Paths.InputDir == c.Paths.LibraryDir {
		return errors.New("paths.input_dir and paths.library_dir must differ")
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateAudiobookshelf(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateIngest() error {
	switch c.Ingest.RegroupPolicy {
	case RegroupFresh, RegroupMerge:
	default:
		return fmt.Errorf("ingest.regroup_policy must be %q or %q, got %q", RegroupFresh, RegroupMerge, c.Ingest.RegroupPolicy)
	}
	if len(c.Ingest.AllowedExtensions) == 0 {
		return errors.New("ingest.allowed_extensions must not be empty")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.ProbableThreshold < 0 || c.Matching.ProbableThreshold > 100 {
		return errors.New("matching.probable_threshold must be between 0 and 100")
	}
	for _, name := range c.Matching.Providers {
		if _, ok := knownProviders[name]; !ok {
			return fmt.Errorf("matching.providers contains unknown provider %q", name)
		}
	}
	return nil
}

func (c *Config) validateAudiobookshelf() error {
	if !c.Audiobookshelf.Enabled {
		return nil
	}
	if c.Audiobookshelf.URL == "" {
		return errors.New("audiobookshelf.url must be set when audiobookshelf.enabled is true")
	}
	if !strings.HasPrefix(c.Audiobookshelf.URL, "http://") && !strings.HasPrefix(c.Audiobookshelf.URL, "https://") {
		return fmt.Errorf("audiobookshelf.url %q must start with http:// or https://", c.Audiobookshelf.URL)
	}
	return nil
}
