package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/logging"
)

// Restorer is the persistence side of the session store.
type Restorer interface {
	SessionStore
	Restore(ctx context.Context) (bool, error)
}

// AuthService restores a persisted session at startup and logs out.
type AuthService struct {
	store Restorer
	nav   NavAPI
	log   logging.Logger
}

func NewAuthService(store Restorer, nav NavAPI, log logging.Logger) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{store: store, nav: nav, log: log.With("component", "auth")}
}

// Restore loads the persisted session and asks the platform whether it is
// still accepted. A rejected session is cleared. When the platform cannot
// be reached the session is kept; the room poller will find out.
func (a *AuthService) Restore(ctx context.Context) (session.Session, bool, error) {
	ok, err := a.store.Restore(ctx)
	if err != nil {
		return session.Session{}, false, err
	}
	if !ok {
		return session.Session{}, false, nil
	}

	info, err := a.nav.Nav(ctx)
	switch {
	case err == nil && info.IsLogin:
		s, ok := a.store.Get()
		if ok {
			a.log.Info(ctx, "restored session accepted", "uid", s.UID, "name", info.Name)
		}
		return s, ok, nil

	case err == nil || errors.Is(err, client.ErrUnauthorized):
		a.log.Info(ctx, "restored session rejected by platform")
		if err := a.store.Clear(ctx); err != nil {
			return session.Session{}, false, fmt.Errorf("clear rejected session: %w", err)
		}
		return session.Session{}, false, nil

	case client.IsTransient(err):
		a.log.Warn(ctx, "cannot validate restored session, keeping it", "error", err)
		s, ok := a.store.Get()
		return s, ok, nil

	default:
		return session.Session{}, false, fmt.Errorf("validate session: %w", err)
	}
}

// Logout drops the session everywhere.
func (a *AuthService) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	a.log.Info(ctx, "logged out")
	return nil
}

// Current returns the session in the store, if any.
func (a *AuthService) Current() (session.Session, bool) {
	return a.store.Get()
}
