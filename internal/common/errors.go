package common

import "errors"

var (
	// Session lifecycle.
	ErrSessionExpired    = errors.New("session expired")
	ErrIncompleteSession = errors.New("incomplete session")

	// Platform payloads that decode but do not make sense.
	ErrProtocol = errors.New("protocol error")

	// Terminal outcomes of the two polling state machines.
	ErrLoginFailed = errors.New("login failed")
	ErrQRExpired   = errors.New("qr code expired")
	ErrRoomFailed  = errors.New("room polling failed")
)
