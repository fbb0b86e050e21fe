package models

import "time"

type LiveStatus int

const (
	LiveOffline LiveStatus = iota
	LiveOn
	LiveReplay
)

func (s LiveStatus) String() string {
	switch s {
	case LiveOffline:
		return "offline"
	case LiveOn:
		return "live"
	case LiveReplay:
		return "replay"
	default:
		return "unknown"
	}
}

// RoomSnapshot is the room state observed by one poll.
type RoomSnapshot struct {
	RoomID     uint64
	Status     LiveStatus
	Viewers    uint64
	Title      string
	CapturedAt time.Time
}

// WentOffline reports a Live to Offline transition between two snapshots.
func WentOffline(prev, next RoomSnapshot) bool {
	return prev.Status == LiveOn && next.Status == LiveOffline
}
