package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/platform"
	"github.com/dmitrijs2005/bililive/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"bililive"}, args...)
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, uint64(0), c.RoomID)
	assert.Equal(t, 2*time.Second, c.LoginPollInterval)
	assert.Equal(t, 5*time.Second, c.RoomPollInterval)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, 180*time.Second, c.QRTTL)
	assert.Equal(t, 20, c.HistorySize)
	assert.Equal(t, platform.DefaultEndpoints(), c.Endpoints)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_DefaultsWithoutArgs(t *testing.T) {
	withArgs(t)
	t.Setenv(PassphraseEnv, "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.RoomPollInterval)
}

func TestLoadConfig_EnvPassphraseThenFlag(t *testing.T) {
	t.Setenv(PassphraseEnv, "from-env")

	withArgs(t, "run")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.SessionPassphrase)

	withArgs(t, "run", "-passphrase", "from-flag")
	cfg, err = LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.SessionPassphrase)
}

func TestLoadConfig_InvalidFlagValue(t *testing.T) {
	withArgs(t, "run", "-room-interval", "abc")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfig_FailsValidation(t *testing.T) {
	withArgs(t, "run", "-retries", "0")
	_, err := LoadConfig()
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero login interval", func(c *Config) { c.LoginPollInterval = 0 }},
		{"negative room interval", func(c *Config) { c.RoomPollInterval = -time.Second }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"zero ttl", func(c *Config) { c.QRTTL = 0 }},
		{"no retries", func(c *Config) { c.MaxRetries = 0 }},
		{"backoff below interval", func(c *Config) { c.MaxBackoff = time.Second }},
		{"no history", func(c *Config) { c.HistorySize = 0 }},
		{"no db", func(c *Config) { c.SessionDB = "" }},
		{"unknown backend", func(c *Config) { c.LogBackend = "logrus" }},
		{"unknown format", func(c *Config) { c.LogFormat = "xml" }},
		{"relative endpoint", func(c *Config) { c.Endpoints.RoomInfo = "/get_info" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			assert.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestLoggingOptions(t *testing.T) {
	c := defaults()
	c.LogBackend = logging.BackendZerolog
	assert.Equal(t, logging.Options{File: "bililive.log", Backend: "zerolog", Format: "text", Level: "info"}, c.LoggingOptions(true))

	c.LogFile = ""
	assert.True(t, c.LoggingOptions(true).Discard)
	assert.False(t, c.LoggingOptions(false).Discard)
}
