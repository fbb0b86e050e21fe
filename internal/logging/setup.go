package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrijs2005/bililive/internal/filex"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

// Options selects where and how logs are written. The terminal UI owns
// stdout, so File is normally set; an empty File means stderr, or nowhere
// when Discard is set.
type Options struct {
	File    string
	Backend string
	Format  string // "text" or "json"; zerolog always writes JSON
	Level   string
	Discard bool
}

// New opens the log destination and builds a Logger tagged with a per-process
// run_id. The returned io.Closer closes the log file (no-op otherwise).
func New(opts Options) (Logger, io.Closer, error) {
	w, closer, err := openWriter(opts)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.Must(uuid.NewV7()).String()

	switch opts.Backend {
	case "", BackendSlog:
		return NewSlogLogger(newSlog(w, opts)).With("run_id", runID), closer, nil
	case BackendZerolog:
		zl := zerolog.New(w).Level(zerologLevel(opts.Level)).With().Timestamp().Logger()
		return NewZerologLogger(zl).With("run_id", runID), closer, nil
	default:
		_ = closer.Close()
		return nil, nil, fmt.Errorf("unknown log backend %q", opts.Backend)
	}
}

func openWriter(opts Options) (io.Writer, io.Closer, error) {
	switch {
	case opts.File != "":
		path, err := filex.EnsureParentDir(opts.File)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return f, f, nil
	case opts.Discard:
		return io.Discard, nopCloser{}, nil
	default:
		return os.Stderr, nopCloser{}, nil
	}
}

func newSlog(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: slogLevel(opts.Level)}
	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, ho))
	}
	return slog.New(slog.NewTextHandler(w, ho))
}

func slogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func zerologLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
