package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, DriverMongo, c.RemoteDriver)
	assert.Equal(t, 3*time.Second, c.SyncDelay)
	assert.Equal(t, 10*time.Second, c.RemoteTimeout)
	assert.Contains(t, c.LocalDSN, "erp.db")
	assert.False(t, c.Once)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"erpsync"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "erp", cfg.RemoteDatabase)
	assert.Equal(t, 3*time.Second, cfg.SyncDelay)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"remote_driver":  "postgres",
		"remote_uri":     "postgres://json",
		"remote_timeout": "2s",
	})
	os.Args = []string{"erpsync", "-c", path, "-u", "postgres://flag", "-once"}

	cfg := LoadConfig()

	assert.Equal(t, DriverPostgres, cfg.RemoteDriver)
	assert.Equal(t, "postgres://flag", cfg.RemoteURI)
	assert.Equal(t, 2*time.Second, cfg.RemoteTimeout)
	assert.True(t, cfg.Once)
}
