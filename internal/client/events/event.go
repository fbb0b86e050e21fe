// Package events carries producer results (login progress, room snapshots,
// retry notices) to the terminal UI in production order.
package events

import (
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/models"
)

// Kind tells which fields of an Event are set.
type Kind int

const (
	KindChallenge Kind = iota + 1
	KindLoginStatus
	KindLoginConfirmed
	KindLoginExpired
	KindLoginFailed
	KindRoomResolved
	KindSnapshot
	KindWentOffline
	KindRetrying
	KindRoomFailed
	KindSessionExpired
)

func (k Kind) String() string {
	switch k {
	case KindChallenge:
		return "challenge"
	case KindLoginStatus:
		return "login status"
	case KindLoginConfirmed:
		return "login confirmed"
	case KindLoginExpired:
		return "login expired"
	case KindLoginFailed:
		return "login failed"
	case KindRoomResolved:
		return "room resolved"
	case KindSnapshot:
		return "snapshot"
	case KindWentOffline:
		return "went offline"
	case KindRetrying:
		return "retrying"
	case KindRoomFailed:
		return "room failed"
	case KindSessionExpired:
		return "session expired"
	default:
		return "unknown"
	}
}

// Event is one message from a producer. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind      Kind
	At        time.Time
	Challenge models.QrChallenge
	QR        string
	Login     models.LoginStatus
	UID       uint64
	RoomID    uint64
	Snapshot  models.RoomSnapshot
	Attempt   int
	Delay     time.Duration
	Err       error
}

// Coalescable reports whether e may be replaced by a newer event of the
// same shape. Only plain snapshots qualify; every outcome and transition
// is delivered.
func (e Event) Coalescable() bool {
	return e.Kind == KindSnapshot
}

// Terminal reports whether the producer stops after emitting e.
func (e Event) Terminal() bool {
	switch e.Kind {
	case KindLoginConfirmed, KindLoginExpired, KindLoginFailed, KindRoomFailed, KindSessionExpired:
		return true
	}
	return false
}
