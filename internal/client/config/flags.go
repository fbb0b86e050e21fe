package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/bililive/internal/flagx"
)

var flagNames = flagx.Names(
	"room", "login-interval", "room-interval", "timeout", "retries",
	"max-backoff", "qr-ttl", "frame", "history", "db", "passphrase",
	"qr-png", "log-file", "log-backend", "log-format", "log-level", "api-base",
)

// parseFlags overlays cfg with command-line flags. os.Args is filtered with
// flagx.FilterArgs so the subcommand and -c/-config do not reach this set.
func parseFlags(cfg *Config) error {
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("bililive", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.Uint64Var(&cfg.RoomID, "room", cfg.RoomID, "live room id, 0 for your own room")
	fs.DurationVar(&cfg.LoginPollInterval, "login-interval", cfg.LoginPollInterval, "qr login poll interval")
	fs.DurationVar(&cfg.RoomPollInterval, "room-interval", cfg.RoomPollInterval, "room status poll interval")
	fs.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "per-request timeout")
	fs.IntVar(&cfg.MaxRetries, "retries", cfg.MaxRetries, "consecutive failures tolerated per poll")
	fs.DurationVar(&cfg.MaxBackoff, "max-backoff", cfg.MaxBackoff, "upper bound of the retry delay")
	fs.DurationVar(&cfg.QRTTL, "qr-ttl", cfg.QRTTL, "lifetime of a login qr code")
	fs.DurationVar(&cfg.FrameInterval, "frame", cfg.FrameInterval, "ui redraw interval")
	fs.IntVar(&cfg.HistorySize, "history", cfg.HistorySize, "room snapshots kept on screen")
	fs.StringVar(&cfg.SessionDB, "db", cfg.SessionDB, "session database file")
	fs.StringVar(&cfg.SessionPassphrase, "passphrase", cfg.SessionPassphrase, "encrypt the stored session (or "+PassphraseEnv+")")
	fs.StringVar(&cfg.QRImagePath, "qr-png", cfg.QRImagePath, "also write the login qr code to this png")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "log file, empty for stderr (discarded while the terminal UI runs)")
	fs.StringVar(&cfg.LogBackend, "log-backend", cfg.LogBackend, "slog or zerolog")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "text or json")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	apiBase := fs.String("api-base", "", "send every platform call to this scheme://host")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *apiBase != "" {
		ep, err := cfg.Endpoints.WithBase(*apiBase)
		if err != nil {
			return err
		}
		cfg.Endpoints = ep
	}
	return nil
}
