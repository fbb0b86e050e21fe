package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/platform"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/dmitrijs2005/bililive/internal/logging"
)

// maxTitleRunes is the longest room title the platform accepts.
const maxTitleRunes = 40

var (
	ErrEmptyText   = errors.New("text is empty")
	ErrTextTooLong = errors.New("text is too long")
	ErrRateLimited = errors.New("sending too often")
)

// ControlAPI is the part of the platform that changes a room.
type ControlAPI interface {
	RoomIDByUID(ctx context.Context, uid uint64) (uint64, error)
	UpdateTitle(ctx context.Context, roomID uint64, title, csrf string) error
	SendDanmaku(ctx context.Context, roomID uint64, msg, csrf string) error
}

// ControlService performs the write calls on behalf of the stored
// session. Writes are not retried: a danmaku that timed out may still
// have been posted.
type ControlService struct {
	api   ControlAPI
	store SessionStore
	room  uint64
	log   logging.Logger
}

// NewControlService acts on room, or on the logged-in user's own room when
// room is 0.
func NewControlService(api ControlAPI, store SessionStore, room uint64, log logging.Logger) *ControlService {
	if log == nil {
		log = logging.Nop()
	}
	return &ControlService{api: api, store: store, room: room, log: log.With("component", "control")}
}

// SetTitle renames the room and returns its id.
func (c *ControlService) SetTitle(ctx context.Context, title string) (uint64, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, ErrEmptyText
	}
	if n := utf8.RuneCountInString(title); n > maxTitleRunes {
		return 0, fmt.Errorf("%w: title has %d characters, at most %d allowed", ErrTextTooLong, n, maxTitleRunes)
	}

	roomID, err := c.do(ctx, func(roomID uint64, csrf string) error {
		return c.api.UpdateTitle(ctx, roomID, title, csrf)
	})
	if err != nil {
		return 0, err
	}
	c.log.Info(ctx, "room title updated", "room_id", roomID)
	return roomID, nil
}

// Say sends msg to the room chat and returns the room id.
func (c *ControlService) Say(ctx context.Context, msg string) (uint64, error) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return 0, ErrEmptyText
	}

	roomID, err := c.do(ctx, func(roomID uint64, csrf string) error {
		return c.api.SendDanmaku(ctx, roomID, msg, csrf)
	})
	if err != nil {
		return 0, err
	}
	c.log.Info(ctx, "danmaku sent", "room_id", roomID)
	return roomID, nil
}

func (c *ControlService) do(ctx context.Context, call func(roomID uint64, csrf string) error) (uint64, error) {
	sess, ok := c.store.Get()
	if !ok {
		return 0, common.ErrSessionExpired
	}
	csrf := sess.CSRF()
	if csrf == "" {
		return 0, fmt.Errorf("%w: no %s cookie", common.ErrIncompleteSession, common.CookieCSRF)
	}

	roomID := c.room
	if roomID == 0 {
		id, err := c.api.RoomIDByUID(ctx, sess.UID)
		if err != nil {
			return 0, c.fail(ctx, err)
		}
		roomID = id
	}

	if err := call(roomID, csrf); err != nil {
		return 0, c.fail(ctx, err)
	}
	return roomID, nil
}

func (c *ControlService) fail(ctx context.Context, err error) error {
	if errors.Is(err, client.ErrUnauthorized) {
		if cerr := c.store.Clear(ctx); cerr != nil {
			c.log.Warn(ctx, "cannot clear session", "error", cerr)
		}
		return fmt.Errorf("%w: %w", common.ErrSessionExpired, err)
	}

	var apiErr *platform.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case platform.CodeDanmakuTooLong:
			return fmt.Errorf("%w: %w", ErrTextTooLong, err)
		case platform.CodeDanmakuTooOften:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}
	return err
}
