package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bililive/internal/client/platform"
	"github.com/dmitrijs2005/bililive/internal/flagx"
	"github.com/dmitrijs2005/bililive/internal/timex"
)

// JsonConfig is a DTO used only for JSON unmarshalling. Durations use
// timex.Duration so the file can say "2s" or give integer nanoseconds.
type JsonConfig struct {
	RoomID            uint64             `json:"room_id"`
	LoginPollInterval timex.Duration     `json:"login_poll_interval"`
	RoomPollInterval  timex.Duration     `json:"room_poll_interval"`
	RequestTimeout    timex.Duration     `json:"request_timeout"`
	MaxRetries        int                `json:"max_retries"`
	MaxBackoff        timex.Duration     `json:"max_backoff"`
	QRTTL             timex.Duration     `json:"qr_ttl"`
	FrameInterval     timex.Duration     `json:"frame_interval"`
	HistorySize       int                `json:"history_size"`
	SessionDB         string             `json:"session_db"`
	QRImagePath       string             `json:"qr_png"`
	LogFile           string             `json:"log_file"`
	LogBackend        string             `json:"log_backend"`
	LogFormat         string             `json:"log_format"`
	LogLevel          string             `json:"log_level"`
	Endpoints         platform.Endpoints `json:"endpoints"`
}

func toJson(c *Config) JsonConfig {
	return JsonConfig{
		RoomID:            c.RoomID,
		LoginPollInterval: timex.Duration{Duration: c.LoginPollInterval},
		RoomPollInterval:  timex.Duration{Duration: c.RoomPollInterval},
		RequestTimeout:    timex.Duration{Duration: c.RequestTimeout},
		MaxRetries:        c.MaxRetries,
		MaxBackoff:        timex.Duration{Duration: c.MaxBackoff},
		QRTTL:             timex.Duration{Duration: c.QRTTL},
		FrameInterval:     timex.Duration{Duration: c.FrameInterval},
		HistorySize:       c.HistorySize,
		SessionDB:         c.SessionDB,
		QRImagePath:       c.QRImagePath,
		LogFile:           c.LogFile,
		LogBackend:        c.LogBackend,
		LogFormat:         c.LogFormat,
		LogLevel:          c.LogLevel,
		Endpoints:         c.Endpoints,
	}
}

// parseJson overlays cfg with the JSON file named by -c / -config. Keys
// absent from the file keep their current value. The passphrase is never
// read from the file.
func parseJson(cfg *Config) error {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	jc := toJson(cfg)
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	cfg.RoomID = jc.RoomID
	cfg.LoginPollInterval = jc.LoginPollInterval.Duration
	cfg.RoomPollInterval = jc.RoomPollInterval.Duration
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.MaxRetries = jc.MaxRetries
	cfg.MaxBackoff = jc.MaxBackoff.Duration
	cfg.QRTTL = jc.QRTTL.Duration
	cfg.FrameInterval = jc.FrameInterval.Duration
	cfg.HistorySize = jc.HistorySize
	cfg.SessionDB = jc.SessionDB
	cfg.QRImagePath = jc.QRImagePath
	cfg.LogFile = jc.LogFile
	cfg.LogBackend = jc.LogBackend
	cfg.LogFormat = jc.LogFormat
	cfg.LogLevel = jc.LogLevel
	cfg.Endpoints = jc.Endpoints
	return nil
}

// parseEnv reads settings that should not live in files or shell history.
func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv(PassphraseEnv); ok {
		cfg.SessionPassphrase = v
	}
}
