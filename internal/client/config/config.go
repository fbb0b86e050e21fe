package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/platform"
	"github.com/dmitrijs2005/bililive/internal/logging"
)

// PassphraseEnv names the environment variable holding the session
// encryption passphrase.
const PassphraseEnv = "BILILIVE_PASSPHRASE"

// Config holds runtime settings for the bililive CLI. The core only reads it.
type Config struct {
	// RoomID 0 selects the logged-in user's own room.
	RoomID uint64

	LoginPollInterval time.Duration
	RoomPollInterval  time.Duration
	RequestTimeout    time.Duration
	MaxRetries        int
	MaxBackoff        time.Duration
	QRTTL             time.Duration

	FrameInterval time.Duration
	HistorySize   int

	SessionDB         string
	SessionPassphrase string
	QRImagePath       string

	LogFile    string
	LogBackend string
	LogFormat  string
	LogLevel   string

	Endpoints platform.Endpoints
}

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.RoomID = 0
	c.LoginPollInterval = 2 * time.Second
	c.RoomPollInterval = 5 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.MaxRetries = 3
	c.MaxBackoff = 60 * time.Second
	c.QRTTL = 180 * time.Second
	c.FrameInterval = 100 * time.Millisecond
	c.HistorySize = 20
	c.SessionDB = "bililive.db"
	c.LogFile = "bililive.log"
	c.LogBackend = logging.BackendSlog
	c.LogFormat = "text"
	c.LogLevel = "info"
	c.Endpoints = platform.DefaultEndpoints()
}

// LoadConfig builds a Config from defaults, then the JSON file (if any),
// then the environment, then command-line flags, and validates the result.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	parseEnv(cfg)
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var ErrInvalid = errors.New("invalid configuration")

// Validate rejects settings the polling loops cannot run with.
func (c *Config) Validate() error {
	positive := map[string]time.Duration{
		"login poll interval": c.LoginPollInterval,
		"room poll interval":  c.RoomPollInterval,
		"request timeout":     c.RequestTimeout,
		"qr ttl":              c.QRTTL,
		"frame interval":      c.FrameInterval,
	}
	for name, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, name, d)
		}
	}

	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries must be at least 1, got %d", ErrInvalid, c.MaxRetries)
	}
	if c.MaxBackoff < c.RoomPollInterval {
		return fmt.Errorf("%w: max backoff %s is below the room poll interval %s", ErrInvalid, c.MaxBackoff, c.RoomPollInterval)
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("%w: history size must be at least 1, got %d", ErrInvalid, c.HistorySize)
	}
	if c.SessionDB == "" {
		return fmt.Errorf("%w: session db path is empty", ErrInvalid)
	}

	switch c.LogBackend {
	case logging.BackendSlog, logging.BackendZerolog:
	default:
		return fmt.Errorf("%w: unknown log backend %q", ErrInvalid, c.LogBackend)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.LogFormat)
	}

	if err := c.Endpoints.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// LoggingOptions maps the log settings onto logging.Options. An
// interactive command owns the terminal, so with no log file its logs are
// dropped instead of going to stderr.
func (c *Config) LoggingOptions(interactive bool) logging.Options {
	return logging.Options{
		File:    c.LogFile,
		Backend: c.LogBackend,
		Format:  c.LogFormat,
		Level:   c.LogLevel,
		Discard: interactive && c.LogFile == "",
	}
}
