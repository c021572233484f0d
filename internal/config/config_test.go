package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 20, cfg.Dispatch.MaxPending)
	assert.Equal(t, 200*time.Millisecond, cfg.Dispatch.FireRate)
	assert.Equal(t, PolicyConfirmFirst, cfg.Dispatch.Policy)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FURBO_DISPATCH_MAX_PENDING", "3")
	t.Setenv("FURBO_DISPATCH_POLICY", "optimistic")
	t.Setenv("FURBO_RELAY_URL", "http://relay.test/sponsor")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Dispatch.MaxPending)
	assert.Equal(t, PolicyOptimistic, cfg.Dispatch.Policy)
	assert.Equal(t, "http://relay.test/sponsor", cfg.Relay.URL)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "furbo.yaml")
	body := "game:\n  score_per_kill: 1\n  motion: scaled\ndispatch:\n  timeout: 2s\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Game.ScorePerKill)
	assert.Equal(t, MotionScaled, cfg.Game.Motion)
	assert.Equal(t, 2*time.Second, cfg.Dispatch.Timeout)
	assert.Equal(t, 480.0, cfg.Game.Width)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"max pending zero":    func(c *Config) { c.Dispatch.MaxPending = 0 },
		"max pending 21":      func(c *Config) { c.Dispatch.MaxPending = 21 },
		"unknown policy":      func(c *Config) { c.Dispatch.Policy = "eventually" },
		"unknown motion":      func(c *Config) { c.Game.Motion = "warp" },
		"ship wider than map": func(c *Config) { c.Game.ShipWidth = 1000 },
		"no duration":         func(c *Config) { c.Game.DurationMs = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
