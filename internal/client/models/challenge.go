package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/bililive/internal/common"
)

// QrChallenge is one login attempt: the opaque token the platform polls on
// and the URL encoded into the QR image.
type QrChallenge struct {
	Token     string
	URL       string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewQrChallenge validates the generate payload and fixes the deadline.
// A non-positive ttl is a protocol error since the challenge must expire
// strictly after it was created.
func NewQrChallenge(token, url string, createdAt time.Time, ttl time.Duration) (QrChallenge, error) {
	if token == "" {
		return QrChallenge{}, fmt.Errorf("%w: empty qrcode key", common.ErrProtocol)
	}
	if url == "" {
		return QrChallenge{}, fmt.Errorf("%w: empty qrcode url", common.ErrProtocol)
	}
	if ttl <= 0 {
		return QrChallenge{}, fmt.Errorf("%w: non-positive challenge ttl %s", common.ErrProtocol, ttl)
	}
	return QrChallenge{Token: token, URL: url, CreatedAt: createdAt, ExpiresAt: createdAt.Add(ttl)}, nil
}

func (c QrChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Remaining is the time left before expiry, never negative.
func (c QrChallenge) Remaining(now time.Time) time.Duration {
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
