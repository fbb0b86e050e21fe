package models

import "github.com/dmitrijs2005/bililive/internal/client/session"

// LoginState is the QR login state machine.
type LoginState int

const (
	LoginIdle LoginState = iota
	LoginRequesting
	LoginAwaitingScan
	LoginConfirmed
	LoginExpired
	LoginFailed
)

func (s LoginState) String() string {
	switch s {
	case LoginIdle:
		return "idle"
	case LoginRequesting:
		return "requesting"
	case LoginAwaitingScan:
		return "awaiting scan"
	case LoginConfirmed:
		return "confirmed"
	case LoginExpired:
		return "expired"
	case LoginFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions happen from s.
func (s LoginState) Terminal() bool {
	return s == LoginConfirmed || s == LoginExpired || s == LoginFailed
}

// LoginStatus is the variant tag of one poll answer.
type LoginStatus int

const (
	StatusPending LoginStatus = iota + 1
	StatusScanned
	StatusConfirmed
	StatusExpired
	StatusFailed
)

func (s LoginStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusScanned:
		return "scanned"
	case StatusConfirmed:
		return "confirmed"
	case StatusExpired:
		return "expired"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoginPollResult is the decoded answer to one login poll. Session is set
// only for StatusConfirmed, Reason only for StatusFailed.
type LoginPollResult struct {
	Status  LoginStatus
	Session *session.Session
	Reason  string
}
