package main

import (
	"fmt"
	"strings"

	"autolib/internal/api"
	"autolib/internal/config"
)

// commandContext carries lazily loaded configuration and the daemon API
// client between cobra commands.
type commandContext struct {
	configFlag  *string
	addressFlag *string

	cfg *config.Config
}

func newCommandContext(configFlag, addressFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, addressFlag: addressFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) apiClient() (*api.Client, error) {
	if c.addressFlag != nil && strings.TrimSpace(*c.addressFlag) != "" {
		return api.NewClient(*c.addressFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, fmt.Errorf("no daemon API address configured (set paths.api_bind or pass --address)")
	}
	return api.NewClient(bind), nil
}
