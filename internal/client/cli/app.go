package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/config"
	"github.com/dmitrijs2005/bililive/internal/client/platform"
	"github.com/dmitrijs2005/bililive/internal/client/services"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/client/storage"
	"github.com/dmitrijs2005/bililive/internal/client/tui"
	"github.com/dmitrijs2005/bililive/internal/logging"
)

// App wires the configured services for one process and runs the
// subcommands against them.
type App struct {
	cfg *config.Config
	log logging.Logger
	out io.Writer

	db      *sql.DB
	persist *session.SQLitePersistence
	store   *session.Store
	api     *platform.API

	auth    *services.AuthService
	login   *services.LoginService
	room    *services.RoomPoller
	control *services.ControlService

	newTerminal func() tui.Terminal
}

// NewApp opens the session database named by cfg and builds the services.
// Command output goes to out; logs go to log.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, out io.Writer) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	db, err := storage.OpenDatabase(ctx, cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	persist := session.NewSQLitePersistence(db, []byte(cfg.SessionPassphrase))
	store := session.NewStore(persist, log)
	httpClient := client.NewHTTPClient(cfg.RequestTimeout, store, client.WithLogger(log))
	api := platform.NewAPI(httpClient, cfg.Endpoints)

	login := services.NewLoginService(api, store, services.LoginConfig{
		PollInterval: cfg.LoginPollInterval,
		TTL:          cfg.QRTTL,
		QRImagePath:  cfg.QRImagePath,
		Retry: services.RetryPolicy{
			Base:       cfg.LoginPollInterval,
			MaxRetries: cfg.MaxRetries,
			MaxBackoff: cfg.MaxBackoff,
		},
	}, log)

	room := services.NewRoomPoller(api, store, services.RoomConfig{
		RoomID:       cfg.RoomID,
		PollInterval: cfg.RoomPollInterval,
		Retry: services.RetryPolicy{
			Base:       cfg.RoomPollInterval,
			MaxRetries: cfg.MaxRetries,
			MaxBackoff: cfg.MaxBackoff,
		},
	}, log)

	return &App{
		cfg:     cfg,
		log:     log,
		out:     out,
		db:      db,
		persist: persist,
		store:   store,
		api:     api,
		auth:    services.NewAuthService(store, api, log),
		login:   login,
		room:    room,
		control: services.NewControlService(api, store, cfg.RoomID, log),
		newTerminal: func() tui.Terminal {
			return tui.NewTTY(os.Stdin, os.Stdout)
		},
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// restore loads and validates the stored session. An encrypted session
// with no configured passphrase is unlocked by prompting when stdin is a
// terminal.
func (a *App) restore(ctx context.Context) (session.Session, bool, error) {
	s, ok, err := a.auth.Restore(ctx)
	if !errors.Is(err, session.ErrPassphraseRequired) || !canPrompt() {
		return s, ok, err
	}

	pw, perr := GetPassphrase(a.out)
	if perr != nil {
		return session.Session{}, false, fmt.Errorf("read passphrase: %w", perr)
	}
	a.persist.SetPassphrase(pw)

	return a.auth.Restore(ctx)
}
