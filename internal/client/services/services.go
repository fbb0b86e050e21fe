// Package services contains the application services of the bililive
// client: the QR login protocol, the live room poller, session restore and
// the room write calls.
// Each service depends on small interfaces so tests can drive it without
// the network.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/client/platform"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/sethvargo/go-retry"
)

// LoginAPI is the part of the platform the login protocol talks to.
type LoginAPI interface {
	GenerateQR(ctx context.Context, ttl time.Duration) (models.QrChallenge, error)
	PollQR(ctx context.Context, token string) (models.LoginPollResult, error)
}

// RoomAPI is the part of the platform the room poller talks to.
type RoomAPI interface {
	RoomInfo(ctx context.Context, roomID uint64) (models.RoomSnapshot, error)
	RoomIDByUID(ctx context.Context, uid uint64) (uint64, error)
}

// NavAPI validates a session against the platform.
type NavAPI interface {
	Nav(ctx context.Context) (platform.NavInfo, error)
}

// SessionStore is the slot a login writes to and pollers read from.
type SessionStore interface {
	Get() (session.Session, bool)
	Put(ctx context.Context, s session.Session) error
	Clear(ctx context.Context) error
}

// RetryPolicy bounds consecutive transient failures of one poll.
// MaxRetries is the number of failed attempts tolerated in a row; the
// delay between them doubles from Base up to MaxBackoff.
type RetryPolicy struct {
	Base       time.Duration
	MaxRetries int
	MaxBackoff time.Duration
}

// backoff builds a fresh go-retry backoff for one poll. onRetry is called
// with the attempt that just failed and the delay before the next one.
func (p RetryPolicy) backoff(onRetry func(attempt int, delay time.Duration)) retry.Backoff {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	retries := uint64(0)
	if p.MaxRetries > 1 {
		retries = uint64(p.MaxRetries - 1)
	}
	capped := p.MaxBackoff
	if capped < base {
		capped = base
	}

	inner := retry.WithMaxRetries(retries, retry.WithCappedDuration(capped, retry.NewExponential(base)))

	attempt := 0
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		d, stop := inner.Next()
		if !stop && onRetry != nil {
			onRetry(attempt, d)
		}
		return d, stop
	})
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
