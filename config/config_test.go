package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Config{
		APIBase:   "http://localhost:8080",
		OrgID:     1,
		MaxWidth:  800,
		Tint:      "#3b82f6",
		TintScale: 0.3,
	}, cfg)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SMARTBRUSH_API_BASE", "https://api.example.com/")
	t.Setenv("SMARTBRUSH_ORG_ID", "42")
	t.Setenv("SMARTBRUSH_MAX_WIDTH", "1024")
	t.Setenv("SMARTBRUSH_HTTP_TIMEOUT", "30s")
	t.Setenv("SMARTBRUSH_HISTORY_PATH", "/tmp/jobs.db")
	t.Setenv("SMARTBRUSH_TINT", "#f00")
	t.Setenv("SMARTBRUSH_TINT_SCALE", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBase)
	assert.Equal(t, 42, cfg.OrgID)
	assert.Equal(t, 1024, cfg.MaxWidth)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "/tmp/jobs.db", cfg.HistoryPath)
	assert.Equal(t, "#f00", cfg.Tint)
	assert.Equal(t, 0.5, cfg.TintScale)
}

func TestLoad_MalformedNumber(t *testing.T) {
	t.Setenv("SMARTBRUSH_ORG_ID", "one")
	_, err := Load()
	assert.ErrorContains(t, err, "parse env")
}

func TestValidate_NormalisesOutOfRange(t *testing.T) {
	cfg := Config{
		APIBase:     "http://localhost:9000",
		OrgID:       -3,
		MaxWidth:    0,
		HTTPTimeout: -time.Second,
		Tint:        "blue",
		TintScale:   4,
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.OrgID)
	assert.Equal(t, 800, cfg.MaxWidth)
	assert.Zero(t, cfg.HTTPTimeout)
	assert.Equal(t, "#3b82f6", cfg.Tint)
	assert.Equal(t, 0.3, cfg.TintScale)
}

func TestValidate_RejectsBadAPIBase(t *testing.T) {
	for _, base := range []string{"localhost:8080", "ftp://host", "http://"} {
		cfg := Config{APIBase: base}
		assert.Error(t, cfg.Validate(), base)
	}
}
