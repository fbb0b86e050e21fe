package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/client/tui"
	"github.com/dmitrijs2005/bililive/internal/common"
)

const (
	CommandRun    = "run"
	CommandLogin  = "login"
	CommandLogout = "logout"
	CommandStatus = "status"
	CommandTitle  = "title"
	CommandSay    = "say"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotLoggedIn    = errors.New("not logged in, run \"bililive login\" first")
	ErrUsage          = errors.New("usage")
)

// Run executes one subcommand. args are its positional arguments; only
// title and say take any.
func (a *App) Run(ctx context.Context, command string, args ...string) error {
	a.log.Debug(ctx, "command", "name", command)

	switch command {
	case CommandRun:
		return a.runUI(ctx)
	case CommandLogin:
		return a.loginHeadless(ctx)
	case CommandLogout:
		return a.logout(ctx)
	case CommandStatus:
		return a.status(ctx)
	case CommandTitle:
		return a.setTitle(ctx, strings.Join(args, " "))
	case CommandSay:
		return a.say(ctx, strings.Join(args, " "))
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, command)
	}
}

func (a *App) runUI(ctx context.Context) error {
	s, ok, err := a.restore(ctx)
	if err != nil {
		return err
	}

	ui := tui.New(a.newTerminal(), tui.Producers{
		Login:  a.login.Run,
		Room:   a.room.Run,
		Logout: a.auth.Logout,
	}, tui.Options{
		FrameInterval: a.cfg.FrameInterval,
		HistorySize:   a.cfg.HistorySize,
	}, a.log)

	return ui.Run(ctx, ok, s.UID)
}

func (a *App) loginHeadless(ctx context.Context) error {
	s, ok, err := a.restore(ctx)
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintf(a.out, "already logged in as uid %d\n", s.UID)
		return nil
	}

	type result struct {
		s   session.Session
		err error
	}

	ch := events.NewChannel(0)
	done := make(chan result, 1)
	go func() {
		s, err := a.login.Run(ctx, ch)
		done <- result{s, err}
	}()

	p := &eventPrinter{w: a.out}
	for {
		select {
		case <-ch.Ready():
			p.print(ch.Drain())
		case r := <-done:
			p.print(ch.Drain())
			return r.err
		}
	}
}

func (a *App) logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *App) status(ctx context.Context) error {
	s, ok, err := a.restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}

	roomID := a.cfg.RoomID
	if roomID == 0 {
		if roomID, err = a.api.RoomIDByUID(ctx, s.UID); err != nil {
			return a.statusErr(ctx, err)
		}
	}

	snap, err := a.room.PollOnce(ctx, roomID, s)
	if err != nil {
		return a.statusErr(ctx, err)
	}
	printSnapshot(a.out, snap)

	if saved, err := a.persist.SavedAt(ctx); err == nil && !saved.IsZero() {
		fmt.Fprintf(a.out, "session: uid %d, saved %s\n", s.UID, saved.Format(time.DateTime))
	}
	return nil
}

func (a *App) setTitle(ctx context.Context, title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: bililive title <new title>", ErrUsage)
	}
	if err := a.loggedIn(ctx); err != nil {
		return err
	}

	roomID, err := a.control.SetTitle(ctx, title)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "room %d title set to %q\n", roomID, strings.TrimSpace(title))
	return nil
}

func (a *App) say(ctx context.Context, msg string) error {
	if strings.TrimSpace(msg) == "" {
		return fmt.Errorf("%w: bililive say <message>", ErrUsage)
	}
	if err := a.loggedIn(ctx); err != nil {
		return err
	}

	roomID, err := a.control.Say(ctx, msg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "sent to room %d\n", roomID)
	return nil
}

// loggedIn restores the stored session for a one-shot command.
func (a *App) loggedIn(ctx context.Context) error {
	_, ok, err := a.restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) statusErr(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		if cerr := a.store.Clear(ctx); cerr != nil {
			a.log.Warn(ctx, "clear rejected session", "error", cerr)
		}
		return fmt.Errorf("%w: %w", common.ErrSessionExpired, err)
	}
	return err
}

func printSnapshot(w io.Writer, s models.RoomSnapshot) {
	fmt.Fprintf(w, "room %d [%s]\n", s.RoomID, strings.ToUpper(s.Status.String()))
	fmt.Fprintf(w, "title:   %s\n", s.Title)
	fmt.Fprintf(w, "viewers: %d\n", s.Viewers)
}

// eventPrinter writes login progress as plain lines, skipping repeats of
// the same scan status.
type eventPrinter struct {
	w    io.Writer
	last models.LoginStatus
}

func (p *eventPrinter) print(evs []events.Event) {
	for _, e := range evs {
		switch e.Kind {
		case events.KindChallenge:
			p.last = models.StatusPending
			fmt.Fprintln(p.w, e.QR)
			fmt.Fprintf(p.w, "scan with the bilibili app, expires at %s\n", e.Challenge.ExpiresAt.Format("15:04:05"))
		case events.KindLoginStatus:
			if e.Login == p.last {
				continue
			}
			p.last = e.Login
			if e.Login == models.StatusScanned {
				fmt.Fprintln(p.w, "scanned, confirm on your phone")
			}
		case events.KindLoginConfirmed:
			fmt.Fprintf(p.w, "logged in as uid %d\n", e.UID)
		case events.KindLoginExpired:
			fmt.Fprintln(p.w, "qr code expired")
		case events.KindLoginFailed:
			fmt.Fprintf(p.w, "login failed: %v\n", e.Err)
		case events.KindRetrying:
			fmt.Fprintf(p.w, "request failed, retry %d in %s\n", e.Attempt, e.Delay)
		}
	}
}
