package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/dmitrijs2005/bililive/internal/logging"
)

// ErrFailed is returned by Run when the user quits while the last producer
// ended in an unrecoverable failure.
var ErrFailed = errors.New("stopped in a failed state")

// Producers are the background loops the UI starts. Each one must close
// its channel and return promptly once its context is cancelled.
type Producers struct {
	Login  func(ctx context.Context, out *events.Channel) (session.Session, error)
	Room   func(ctx context.Context, out *events.Channel) error
	Logout func(ctx context.Context) error
}

type Options struct {
	FrameInterval time.Duration
	HistorySize   int
	// SoftLimit is the event queue length above which snapshots coalesce.
	SoftLimit int
}

type producerKind int

const (
	producerLogin producerKind = iota
	producerRoom
)

func (k producerKind) String() string {
	if k == producerLogin {
		return "login"
	}
	return "room"
}

type producer struct {
	kind   producerKind
	cancel context.CancelFunc
	ch     *events.Channel
	done   chan error
}

// UI is the terminal loop. All model and terminal access happens on the
// goroutine calling Run; producers only touch their event channel.
type UI struct {
	term   Terminal
	model  *Model
	prod   Producers
	opts   Options
	log    logging.Logger
	now    func() time.Time
	active *producer
}

func New(t Terminal, prod Producers, opts Options, log logging.Logger) *UI {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 100 * time.Millisecond
	}
	if log == nil {
		log = logging.Nop()
	}
	return &UI{
		term:  t,
		model: NewModel(opts.HistorySize),
		prod:  prod,
		opts:  opts,
		log:   log.With("component", "tui"),
		now:   time.Now,
	}
}

// Run takes over the terminal until the user quits or ctx is cancelled.
// A cancelled ctx yields ctx.Err() unless the session had already failed.
// With loggedIn set it starts room polling for uid straight away,
// otherwise it starts with a QR login. The terminal is restored on every
// return path, including a panic, which is re-raised afterwards.
func (u *UI) Run(ctx context.Context, loggedIn bool, uid uint64) (err error) {
	if err := u.term.Enter(); err != nil {
		return err
	}
	defer func() {
		u.stop()
		rerr := u.term.Restore()
		if p := recover(); p != nil {
			panic(p)
		}
		if err == nil && rerr != nil {
			err = rerr
		}
	}()

	keys := make(chan byte, 16)
	go readKeys(u.term.Input(), keys)

	ticker := time.NewTicker(u.opts.FrameInterval)
	defer ticker.Stop()

	if loggedIn {
		u.model.StartRoom(uid)
		u.start(ctx, producerRoom)
	} else {
		u.model.StartLogin()
		u.start(ctx, producerLogin)
	}
	u.draw()

	for {
		var (
			ready <-chan struct{}
			done  <-chan error
		)
		if u.active != nil {
			ready = u.active.ch.Ready()
			done = u.active.done
		}

		select {
		case <-ctx.Done():
			u.log.Info(ctx, "ui stopped by context")
			if err := u.exitErr(); err != nil {
				return err
			}
			return ctx.Err()

		case b, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			switch keyAction(b) {
			case ActionQuit:
				u.log.Info(ctx, "quit requested")
				return u.exitErr()
			case ActionRetry:
				u.retry(ctx)
			case ActionLogout:
				u.logout(ctx)
			}
			u.draw()

		case <-ready:
			u.drain()

		case perr := <-done:
			u.finished(ctx, perr)
			u.draw()

		case <-ticker.C:
			u.drain()
			u.draw()
		}
	}
}

func (u *UI) start(ctx context.Context, kind producerKind) {
	pctx, cancel := context.WithCancel(ctx)
	p := &producer{
		kind:   kind,
		cancel: cancel,
		ch:     events.NewChannel(u.opts.SoftLimit),
		done:   make(chan error, 1),
	}
	u.active = p
	u.log.Debug(ctx, "producer started", "producer", kind.String())

	go func() {
		var err error
		switch kind {
		case producerLogin:
			_, err = u.prod.Login(pctx, p.ch)
		case producerRoom:
			err = u.prod.Room(pctx, p.ch)
		}
		p.done <- err
	}()
}

// stop cancels the active producer and waits for it to return.
func (u *UI) stop() {
	p := u.active
	if p == nil {
		return
	}
	p.cancel()
	<-p.done
	u.drainFrom(p)
	u.active = nil
}

func (u *UI) finished(ctx context.Context, err error) {
	p := u.active
	u.active = nil
	p.cancel()
	u.drainFrom(p)

	if err != nil && !errors.Is(err, context.Canceled) {
		u.log.Info(ctx, "producer finished", "producer", p.kind.String(), "error", err)
	}

	switch p.kind {
	case producerLogin:
		if err == nil {
			u.model.StartRoom(0)
			u.start(ctx, producerRoom)
		}
	case producerRoom:
		if errors.Is(err, common.ErrSessionExpired) {
			u.model.StartLogin()
			u.start(ctx, producerLogin)
		}
	}
}

// retry restarts the producer that last gave up. The old producer may
// still be returning when the key arrives, so it is stopped first.
func (u *UI) retry(ctx context.Context) {
	switch {
	case u.model.canRetryLogin():
		u.stop()
		u.model.StartLogin()
		u.start(ctx, producerLogin)
	case u.model.canRetryRoom():
		u.stop()
		u.model.StartRoom(0)
		u.start(ctx, producerRoom)
	}
}

func (u *UI) logout(ctx context.Context) {
	u.stop()
	if u.prod.Logout != nil {
		if err := u.prod.Logout(ctx); err != nil {
			u.log.Warn(ctx, "logout failed", "error", err)
		}
	}
	u.model.uid = 0
	u.model.StartLogin()
	u.start(ctx, producerLogin)
}

func (u *UI) drain() {
	if u.active != nil {
		u.drainFrom(u.active)
	}
}

func (u *UI) drainFrom(p *producer) {
	for _, e := range p.ch.Drain() {
		u.model.Apply(e)
	}
}

func (u *UI) draw() {
	w, h := u.term.Size()
	if err := u.term.Draw(u.model.View(w, h, u.now())); err != nil {
		u.log.Warn(context.Background(), "draw failed", "error", err)
	}
}

func (u *UI) exitErr() error {
	if err := u.model.Failed(); err != nil {
		return fmt.Errorf("%w: %w", ErrFailed, err)
	}
	return nil
}

// readKeys forwards single key presses. A multi-byte read starting with
// ESC is an escape sequence (arrow keys and the like) and is ignored so it
// does not count as Esc.
func readKeys(r io.Reader, keys chan<- byte) {
	defer close(keys)

	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 && !(n > 1 && buf[0] == keyEsc) {
			for _, b := range buf[:n] {
				select {
				case keys <- b:
				default:
				}
			}
		}
		if err != nil {
			return
		}
	}
}
