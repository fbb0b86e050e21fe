// Package tui is the interactive terminal surface: it renders login
// progress and live room state, reads single-key commands, and runs the
// login and room producers one at a time.
package tui

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/models"
)

// Phase is what the screen is currently about.
type Phase int

const (
	PhaseStarting Phase = iota
	PhaseLogin
	PhaseRoom
)

// Model is the render state. It is owned by the UI goroutine and changed
// only through Apply and the phase helpers, so it needs no locking.
type Model struct {
	phase Phase

	login     models.LoginState
	scan      models.LoginStatus
	challenge models.QrChallenge
	qr        []string
	uid       uint64

	roomID      uint64
	current     *models.RoomSnapshot
	history     []models.RoomSnapshot
	historySize int
	offlineAt   time.Time

	notice string
	failed error
}

func NewModel(historySize int) *Model {
	if historySize < 1 {
		historySize = 1
	}
	return &Model{historySize: historySize}
}

// Apply folds one producer event into the model.
func (m *Model) Apply(e events.Event) {
	switch e.Kind {
	case events.KindChallenge:
		m.phase = PhaseLogin
		m.login = models.LoginAwaitingScan
		m.scan = models.StatusPending
		m.challenge = e.Challenge
		m.qr = splitLines(e.QR)
		m.notice = ""
		m.failed = nil

	case events.KindLoginStatus:
		m.login = models.LoginAwaitingScan
		m.scan = e.Login
		m.notice = ""

	case events.KindLoginConfirmed:
		m.login = models.LoginConfirmed
		m.scan = models.StatusConfirmed
		m.uid = e.UID
		m.qr = nil
		m.notice = fmt.Sprintf("logged in as uid %d", e.UID)

	case events.KindLoginExpired:
		m.login = models.LoginExpired
		m.scan = models.StatusExpired
		m.qr = nil
		m.notice = "qr code expired, press r for a new one"

	case events.KindLoginFailed:
		m.login = models.LoginFailed
		m.scan = models.StatusFailed
		m.qr = nil
		m.failed = e.Err
		m.notice = "login failed, press r to try again"

	case events.KindRoomResolved:
		m.roomID = e.RoomID

	case events.KindSnapshot:
		m.phase = PhaseRoom
		s := e.Snapshot
		m.roomID = s.RoomID
		m.current = &s
		m.history = append(m.history, s)
		if over := len(m.history) - m.historySize; over > 0 {
			m.history = append([]models.RoomSnapshot(nil), m.history[over:]...)
		}
		m.notice = ""
		m.failed = nil

	case events.KindWentOffline:
		m.offlineAt = e.At
		m.notice = "stream went offline"

	case events.KindRetrying:
		m.notice = fmt.Sprintf("request failed, retry %d in %s", e.Attempt, e.Delay)

	case events.KindRoomFailed:
		m.failed = e.Err
		m.notice = "room polling stopped, press r to retry"

	case events.KindSessionExpired:
		m.uid = 0
		m.notice = "session expired, logging in again"
	}
}

// StartLogin resets the login part of the model before a new attempt.
func (m *Model) StartLogin() {
	m.phase = PhaseLogin
	m.login = models.LoginRequesting
	m.scan = 0
	m.qr = nil
	m.failed = nil
}

// StartRoom switches to the room view, keeping history across restarts.
func (m *Model) StartRoom(uid uint64) {
	m.phase = PhaseRoom
	if uid != 0 {
		m.uid = uid
	}
	m.failed = nil
}

func (m *Model) Phase() Phase                  { return m.phase }
func (m *Model) LoginState() models.LoginState { return m.login }
func (m *Model) History() []models.RoomSnapshot {
	return append([]models.RoomSnapshot(nil), m.history...)
}

func (m *Model) Current() (models.RoomSnapshot, bool) {
	if m.current == nil {
		return models.RoomSnapshot{}, false
	}
	return *m.current, true
}

// Failed is the error of the last unrecoverable producer outcome, or nil
// once a later producer made progress.
func (m *Model) Failed() error { return m.failed }

// canRetryLogin reports whether r should start a new login attempt.
func (m *Model) canRetryLogin() bool {
	return m.phase == PhaseLogin && (m.login == models.LoginExpired || m.login == models.LoginFailed)
}

// canRetryRoom reports whether r should restart room polling.
func (m *Model) canRetryRoom() bool {
	return m.phase == PhaseRoom && m.failed != nil
}
