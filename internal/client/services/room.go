package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/dmitrijs2005/bililive/internal/logging"
	"github.com/sethvargo/go-retry"
)

// RoomConfig selects the room and the polling cadence.
type RoomConfig struct {
	// RoomID 0 means the room owned by the logged-in user.
	RoomID       uint64
	PollInterval time.Duration
	Retry        RetryPolicy
}

// RoomPoller reads live room state on a timer and forwards every snapshot
// to the UI. It holds no per-run state, so Run can be restarted.
type RoomPoller struct {
	api   RoomAPI
	store SessionStore
	cfg   RoomConfig
	log   logging.Logger
	now   func() time.Time
}

// NewRoomPoller returns a RoomPoller reading the session from store. A nil
// log discards output.
func NewRoomPoller(api RoomAPI, store SessionStore, cfg RoomConfig, log logging.Logger) *RoomPoller {
	if log == nil {
		log = logging.Nop()
	}
	return &RoomPoller{api: api, store: store, cfg: cfg, log: log.With("component", "room"), now: time.Now}
}

// PollOnce fetches one snapshot of roomID on behalf of sess. A session
// that is already expired fails locally with common.ErrSessionExpired.
func (p *RoomPoller) PollOnce(ctx context.Context, roomID uint64, sess session.Session) (models.RoomSnapshot, error) {
	if !sess.Valid(p.now()) {
		return models.RoomSnapshot{}, common.ErrSessionExpired
	}
	return p.api.RoomInfo(ctx, roomID)
}

// Run polls until ctx is cancelled or a fatal error, closing out on return.
//
// Transient failures are retried with exponential backoff; once
// MaxRetries consecutive attempts have failed Run emits KindRoomFailed and
// returns an error wrapping common.ErrRoomFailed. An unauthorized answer
// clears the session store once, emits KindSessionExpired and returns
// common.ErrSessionExpired so the caller can restart login.
func (p *RoomPoller) Run(ctx context.Context, out *events.Channel) error {
	defer out.Close()

	sess, ok := p.store.Get()
	if !ok {
		return p.expire(ctx, out)
	}

	roomID := p.cfg.RoomID
	if roomID == 0 {
		id, err := p.resolve(ctx, out, sess.UID)
		if err != nil {
			return p.handle(ctx, out, err)
		}
		roomID = id
	}
	log := p.log.With("room_id", roomID)
	log.Info(ctx, "room polling started", "interval", p.cfg.PollInterval.String())

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	var prev *models.RoomSnapshot
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// re-read every tick so a cookie refresh merged by the adapter is used
		sess, ok = p.store.Get()
		if !ok {
			return p.expire(ctx, out)
		}

		snap, err := p.tick(ctx, out, roomID, sess)
		if err != nil {
			return p.handle(ctx, out, err)
		}
		// the next poll is one full interval after this one, however long
		// the retries took
		ticker.Reset(p.cfg.PollInterval)

		p.emit(out, events.Event{Kind: events.KindSnapshot, RoomID: roomID, Snapshot: snap})
		if prev != nil && models.WentOffline(*prev, snap) {
			log.Info(ctx, "room went offline")
			p.emit(out, events.Event{Kind: events.KindWentOffline, RoomID: roomID, Snapshot: snap})
		}
		prev = &snap

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *RoomPoller) tick(ctx context.Context, out *events.Channel, roomID uint64, sess session.Session) (models.RoomSnapshot, error) {
	b := p.cfg.Retry.backoff(func(attempt int, delay time.Duration) {
		p.emit(out, events.Event{Kind: events.KindRetrying, RoomID: roomID, Attempt: attempt, Delay: delay})
	})

	return retry.DoValue(ctx, b, func(ctx context.Context) (models.RoomSnapshot, error) {
		snap, err := p.PollOnce(ctx, roomID, sess)
		if err != nil && client.IsTransient(err) {
			p.log.Warn(ctx, "room poll failed, will retry", "room_id", roomID, "error", err)
			return snap, retry.RetryableError(err)
		}
		return snap, err
	})
}

func (p *RoomPoller) resolve(ctx context.Context, out *events.Channel, uid uint64) (uint64, error) {
	b := p.cfg.Retry.backoff(func(attempt int, delay time.Duration) {
		p.emit(out, events.Event{Kind: events.KindRetrying, Attempt: attempt, Delay: delay})
	})

	id, err := retry.DoValue(ctx, b, func(ctx context.Context) (uint64, error) {
		id, err := p.api.RoomIDByUID(ctx, uid)
		if err != nil && client.IsTransient(err) {
			return id, retry.RetryableError(err)
		}
		return id, err
	})
	if err != nil {
		return 0, err
	}

	p.log.Info(ctx, "resolved own room", "uid", uid, "room_id", id)
	p.emit(out, events.Event{Kind: events.KindRoomResolved, UID: uid, RoomID: id})
	return id, nil
}

func (p *RoomPoller) handle(ctx context.Context, out *events.Channel, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, common.ErrSessionExpired) {
		return p.expire(ctx, out)
	}

	p.log.Error(ctx, "room polling failed", "error", err)
	wrapped := fmt.Errorf("%w: %w", common.ErrRoomFailed, err)
	p.emit(out, events.Event{Kind: events.KindRoomFailed, Err: wrapped})
	return wrapped
}

func (p *RoomPoller) expire(ctx context.Context, out *events.Channel) error {
	if err := p.store.Clear(ctx); err != nil {
		p.log.Warn(ctx, "cannot clear session", "error", err)
	}
	p.log.Warn(ctx, "session rejected, login required")
	p.emit(out, events.Event{Kind: events.KindSessionExpired, Err: common.ErrSessionExpired})
	return common.ErrSessionExpired
}

func (p *RoomPoller) emit(out *events.Channel, e events.Event) {
	e.At = p.now()
	out.Send(e)
}
