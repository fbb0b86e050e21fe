package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/client/qrcode"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/dmitrijs2005/bililive/internal/logging"
	"github.com/sethvargo/go-retry"
)

// LoginConfig tunes one QR login attempt.
type LoginConfig struct {
	PollInterval time.Duration
	TTL          time.Duration
	Retry        RetryPolicy
	// QRImagePath, when set, also receives the challenge as a PNG.
	QRImagePath string
}

// LoginService runs the QR login state machine
// Idle -> Requesting -> AwaitingScan -> Confirmed | Expired | Failed.
// One Run is one login attempt; Run may be called again after it returns.
type LoginService struct {
	api   LoginAPI
	store SessionStore
	cfg   LoginConfig
	log   logging.Logger
	now   func() time.Time

	render  func(text string) (string, error)
	savePNG func(path, text string) error
}

// NewLoginService returns a LoginService that writes the confirmed session
// to store. A nil log discards output.
func NewLoginService(api LoginAPI, store SessionStore, cfg LoginConfig, log logging.Logger) *LoginService {
	if log == nil {
		log = logging.Nop()
	}
	return &LoginService{
		api:     api,
		store:   store,
		cfg:     cfg,
		log:     log.With("component", "login"),
		now:     time.Now,
		render:  qrcode.Render,
		savePNG: qrcode.SavePNG,
	}
}

type loginRun struct {
	s     *LoginService
	out   *events.Channel
	state models.LoginState
}

func (r *loginRun) enter(ctx context.Context, next models.LoginState) {
	r.s.log.Debug(ctx, "login state", "from", r.state.String(), "to", next.String())
	r.state = next
}

func (r *loginRun) emit(e events.Event) {
	e.At = r.s.now()
	r.out.Send(e)
}

// Run performs one login attempt and closes out when it returns. On
// Confirmed the new session has been written to the store exactly once.
// Expired returns common.ErrQRExpired, Failed wraps common.ErrLoginFailed
// and cancellation returns the context error without touching the store.
func (s *LoginService) Run(ctx context.Context, out *events.Channel) (session.Session, error) {
	defer out.Close()

	r := &loginRun{s: s, out: out, state: models.LoginIdle}

	r.enter(ctx, models.LoginRequesting)
	challenge, err := s.request(ctx, r)
	if err != nil {
		return session.Session{}, r.fail(ctx, err)
	}

	r.enter(ctx, models.LoginAwaitingScan)
	return s.await(ctx, r, challenge)
}

func (s *LoginService) request(ctx context.Context, r *loginRun) (models.QrChallenge, error) {
	b := s.cfg.Retry.backoff(func(attempt int, delay time.Duration) {
		r.emit(events.Event{Kind: events.KindRetrying, Attempt: attempt, Delay: delay})
	})

	challenge, err := retry.DoValue(ctx, b, func(ctx context.Context) (models.QrChallenge, error) {
		c, err := s.api.GenerateQR(ctx, s.cfg.TTL)
		if err != nil && client.IsTransient(err) {
			s.log.Warn(ctx, "qr generate failed, will retry", "error", err)
			return c, retry.RetryableError(err)
		}
		return c, err
	})
	if err != nil {
		return models.QrChallenge{}, err
	}

	text, err := s.render(challenge.URL)
	if err != nil {
		return models.QrChallenge{}, fmt.Errorf("%w: %v", common.ErrProtocol, err)
	}
	if s.cfg.QRImagePath != "" {
		if err := s.savePNG(s.cfg.QRImagePath, challenge.URL); err != nil {
			s.log.Warn(ctx, "qr png not written", "path", s.cfg.QRImagePath, "error", err)
		}
	}

	s.log.Info(ctx, "qr challenge issued", "expires_at", challenge.ExpiresAt)
	r.emit(events.Event{Kind: events.KindChallenge, Challenge: challenge, QR: text})
	return challenge, nil
}

func (s *LoginService) await(ctx context.Context, r *loginRun, challenge models.QrChallenge) (session.Session, error) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, "login cancelled", "state", r.state.String())
			return session.Session{}, ctx.Err()
		case <-ticker.C:
		}

		if challenge.Expired(s.now()) {
			return session.Session{}, r.expire(ctx)
		}

		res, err := s.poll(ctx, r, challenge.Token)
		ticker.Reset(s.cfg.PollInterval)
		if err != nil {
			if ctx.Err() != nil {
				return session.Session{}, ctx.Err()
			}
			return session.Session{}, r.fail(ctx, err)
		}

		switch res.Status {
		case models.StatusPending, models.StatusScanned:
			r.emit(events.Event{Kind: events.KindLoginStatus, Login: res.Status, Challenge: challenge})

		case models.StatusExpired:
			return session.Session{}, r.expire(ctx)

		case models.StatusFailed:
			return session.Session{}, r.fail(ctx, errors.New(res.Reason))

		case models.StatusConfirmed:
			if res.Session == nil {
				return session.Session{}, r.fail(ctx, fmt.Errorf("%w: confirmed without session", common.ErrProtocol))
			}
			if err := s.store.Put(ctx, *res.Session); err != nil {
				return session.Session{}, r.fail(ctx, err)
			}
			r.enter(ctx, models.LoginConfirmed)
			s.log.Info(ctx, "login confirmed", "uid", res.Session.UID)
			r.emit(events.Event{Kind: events.KindLoginConfirmed, Login: models.StatusConfirmed, UID: res.Session.UID})
			return *res.Session, nil

		default:
			return session.Session{}, r.fail(ctx, fmt.Errorf("%w: unknown poll status %d", common.ErrProtocol, res.Status))
		}
	}
}

func (s *LoginService) poll(ctx context.Context, r *loginRun, token string) (models.LoginPollResult, error) {
	b := s.cfg.Retry.backoff(func(attempt int, delay time.Duration) {
		r.emit(events.Event{Kind: events.KindRetrying, Attempt: attempt, Delay: delay})
	})

	return retry.DoValue(ctx, b, func(ctx context.Context) (models.LoginPollResult, error) {
		res, err := s.api.PollQR(ctx, token)
		if err != nil && client.IsTransient(err) {
			s.log.Warn(ctx, "qr poll failed, will retry", "error", err)
			return res, retry.RetryableError(err)
		}
		return res, err
	})
}

func (r *loginRun) expire(ctx context.Context) error {
	r.enter(ctx, models.LoginExpired)
	r.s.log.Info(ctx, "qr challenge expired")
	r.emit(events.Event{Kind: events.KindLoginExpired, Login: models.StatusExpired})
	return common.ErrQRExpired
}

func (r *loginRun) fail(ctx context.Context, cause error) error {
	if ctx.Err() != nil && errors.Is(cause, ctx.Err()) {
		return cause
	}
	r.enter(ctx, models.LoginFailed)
	r.s.log.Error(ctx, "login failed", "error", cause)
	err := fmt.Errorf("%w: %w", common.ErrLoginFailed, cause)
	r.emit(events.Event{Kind: events.KindLoginFailed, Login: models.StatusFailed, Err: err})
	return err
}
