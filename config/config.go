// Package config loads the smartbrush settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/esimov/smartbrush/utils"
)

const (
	defaultAPIBase   = "http://localhost:8080"
	defaultMaxWidth  = 800
	defaultTint      = "#3b82f6"
	defaultTintScale = 0.3
)

// Config holds the API endpoint, the account and the painter defaults.
type Config struct {
	APIBase      string        `env:"SMARTBRUSH_API_BASE"      envDefault:"http://localhost:8080"`
	OrgID        int           `env:"SMARTBRUSH_ORG_ID"        envDefault:"1"`
	MaxWidth     int           `env:"SMARTBRUSH_MAX_WIDTH"     envDefault:"800"`
	HTTPTimeout  time.Duration `env:"SMARTBRUSH_HTTP_TIMEOUT"  envDefault:"0s"`
	HistoryPath  string        `env:"SMARTBRUSH_HISTORY_PATH"`
	OTelEndpoint string        `env:"SMARTBRUSH_OTEL_ENDPOINT"`
	Tint         string        `env:"SMARTBRUSH_TINT"          envDefault:"#3b82f6"`
	TintScale    float64       `env:"SMARTBRUSH_TINT_SCALE"    envDefault:"0.3"`
}

// Load parses the environment and normalises the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate replaces out of range values with defaults. It only fails when the
// API base is not an absolute http(s) URL.
func (c *Config) Validate() error {
	c.APIBase = strings.TrimRight(strings.TrimSpace(c.APIBase), "/")
	if c.APIBase == "" {
		c.APIBase = defaultAPIBase
	}
	u, err := url.Parse(c.APIBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api base %q", c.APIBase)
	}
	if c.OrgID <= 0 {
		c.OrgID = 1
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = defaultMaxWidth
	}
	if c.HTTPTimeout < 0 {
		c.HTTPTimeout = 0
	}
	if _, err := utils.HexToRGBA(c.Tint); err != nil {
		c.Tint = defaultTint
	}
	if c.TintScale <= 0 || c.TintScale > 1 {
		c.TintScale = defaultTintScale
	}
	return nil
}
