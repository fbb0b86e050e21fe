package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/common"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func snapshot(viewers uint64, status models.LiveStatus, at time.Time) events.Event {
	return events.Event{
		Kind: events.KindSnapshot,
		At:   at,
		Snapshot: models.RoomSnapshot{
			RoomID: 7, Status: status, Viewers: viewers, Title: "title", CapturedAt: at,
		},
	}
}

func TestModel_LoginFlow(t *testing.T) {
	m := NewModel(5)
	m.StartLogin()
	assert.Equal(t, PhaseLogin, m.Phase())
	assert.Equal(t, models.LoginRequesting, m.LoginState())

	m.Apply(events.Event{Kind: events.KindChallenge, QR: "a\nb"})
	assert.Equal(t, models.LoginAwaitingScan, m.LoginState())
	assert.Equal(t, []string{"a", "b"}, m.qr)

	m.Apply(events.Event{Kind: events.KindLoginStatus, Login: models.StatusScanned})
	assert.Equal(t, models.StatusScanned, m.scan)

	m.Apply(events.Event{Kind: events.KindLoginConfirmed, UID: 42})
	assert.Equal(t, models.LoginConfirmed, m.LoginState())
	assert.Equal(t, uint64(42), m.uid)
	assert.Nil(t, m.qr)
	assert.False(t, m.canRetryLogin())
}

func TestModel_ExpiredAndFailedAllowRetry(t *testing.T) {
	m := NewModel(5)
	m.StartLogin()
	m.Apply(events.Event{Kind: events.KindLoginExpired})
	assert.True(t, m.canRetryLogin())
	assert.NoError(t, m.Failed())

	m.StartLogin()
	assert.False(t, m.canRetryLogin())

	boom := errors.New("boom")
	m.Apply(events.Event{Kind: events.KindLoginFailed, Err: boom})
	assert.True(t, m.canRetryLogin())
	assert.ErrorIs(t, m.Failed(), boom)
}

func TestModel_HistoryKeepsNewestWithinLimit(t *testing.T) {
	m := NewModel(3)
	m.StartRoom(42)
	for i := 1; i <= 5; i++ {
		m.Apply(snapshot(uint64(i), models.LiveOn, t0.Add(time.Duration(i)*time.Second)))
	}

	h := m.History()
	require.Len(t, h, 3)
	assert.Equal(t, uint64(3), h[0].Viewers)
	assert.Equal(t, uint64(5), h[2].Viewers)

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(5), cur.Viewers)
}

func TestModel_RoomFailureClearedBySnapshot(t *testing.T) {
	m := NewModel(3)
	m.StartRoom(42)
	m.Apply(events.Event{Kind: events.KindRoomFailed, Err: common.ErrRoomFailed})
	assert.True(t, m.canRetryRoom())
	assert.ErrorIs(t, m.Failed(), common.ErrRoomFailed)

	m.StartRoom(0)
	assert.NoError(t, m.Failed())
	assert.Equal(t, uint64(42), m.uid)

	m.Apply(events.Event{Kind: events.KindRoomFailed, Err: common.ErrRoomFailed})
	m.Apply(snapshot(1, models.LiveOn, t0))
	assert.NoError(t, m.Failed())
	assert.False(t, m.canRetryRoom())
}

func TestModel_SessionExpiredForgetsUID(t *testing.T) {
	m := NewModel(3)
	m.StartRoom(42)
	m.Apply(events.Event{Kind: events.KindSessionExpired})
	assert.Zero(t, m.uid)
	assert.Contains(t, m.notice, "session expired")
}

func TestModel_CurrentEmptyBeforeSnapshot(t *testing.T) {
	m := NewModel(0)
	_, ok := m.Current()
	assert.False(t, ok)
	assert.Equal(t, PhaseStarting, m.Phase())
	assert.Equal(t, 1, m.historySize)
}

func TestKeyAction(t *testing.T) {
	cases := map[byte]Action{
		'q': ActionQuit, 'Q': ActionQuit, keyEsc: ActionQuit, keyCtrlC: ActionQuit,
		'r': ActionRetry, 'R': ActionRetry,
		'l': ActionLogout, 'L': ActionLogout,
		'x': ActionNone, ' ': ActionNone,
	}
	for b, want := range cases {
		assert.Equal(t, want, keyAction(b), "key %q", b)
	}
}
