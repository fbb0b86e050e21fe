package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/client/platform"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/common"
)

func validSession(uid uint64) session.Session {
	return session.Session{
		ID:  "sid",
		UID: uid,
		Cookies: []session.Cookie{
			{Name: common.CookieUserID, Value: "999"},
			{Name: common.CookieSessData, Value: "xyz"},
			{Name: common.CookieCSRF, Value: "jct"},
		},
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

// ---- session store ----

type fakeStore struct {
	mu       sync.Mutex
	sess     *session.Session
	persist  *session.Session
	puts     int
	clears   int
	restores int
}

func (f *fakeStore) Get() (session.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sess == nil {
		return session.Session{}, false
	}
	return f.sess.Clone(), true
}

func (f *fakeStore) Put(_ context.Context, s session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !s.Valid(time.Now()) {
		return common.ErrIncompleteSession
	}
	f.puts++
	c := s.Clone()
	f.sess = &c
	return nil
}

func (f *fakeStore) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.sess = nil
	f.persist = nil
	return nil
}

func (f *fakeStore) Restore(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restores++
	if f.persist == nil {
		return false, nil
	}
	c := f.persist.Clone()
	f.sess = &c
	return true, nil
}

func (f *fakeStore) counts() (puts, clears int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts, f.clears
}

// ---- login api ----

type pollStep struct {
	res models.LoginPollResult
	err error
}

type fakeLoginAPI struct {
	mu     sync.Mutex
	genErr error
	steps  []pollStep
	polls  int
	token  string
	times  []time.Time
}

func (f *fakeLoginAPI) GenerateQR(_ context.Context, ttl time.Duration) (models.QrChallenge, error) {
	if f.genErr != nil {
		return models.QrChallenge{}, f.genErr
	}
	return models.NewQrChallenge("abc", "https://qr.example/abc", time.Now(), ttl)
}

func (f *fakeLoginAPI) PollQR(_ context.Context, token string) (models.LoginPollResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.times = append(f.times, time.Now())
	i := f.polls
	f.polls++
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	return f.steps[i].res, f.steps[i].err
}

func (f *fakeLoginAPI) pollTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.times...)
}

func (f *fakeLoginAPI) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

// ---- room api ----

type roomStep struct {
	snap models.RoomSnapshot
	err  error
}

type fakeRoomAPI struct {
	mu          sync.Mutex
	steps       []roomStep
	calls       int
	rooms       []uint64
	times       []time.Time
	ownRoom     uint64
	resolveErr  error
	onExhausted func()
}

func (f *fakeRoomAPI) RoomInfo(ctx context.Context, roomID uint64) (models.RoomSnapshot, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.rooms = append(f.rooms, roomID)
	f.times = append(f.times, time.Now())
	var step roomStep
	exhausted := i >= len(f.steps)
	if !exhausted {
		step = f.steps[i]
	}
	f.mu.Unlock()

	if exhausted {
		if f.onExhausted != nil {
			f.onExhausted()
		}
		<-ctx.Done()
		return models.RoomSnapshot{}, ctx.Err()
	}
	step.snap.RoomID = roomID
	return step.snap, step.err
}

func (f *fakeRoomAPI) RoomIDByUID(context.Context, uint64) (uint64, error) {
	return f.ownRoom, f.resolveErr
}

func (f *fakeRoomAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRoomAPI) callTimes() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.times...)
}

// ---- nav api ----

type fakeNav struct {
	info  platform.NavInfo
	err   error
	calls int
}

func (f *fakeNav) Nav(context.Context) (platform.NavInfo, error) {
	f.calls++
	return f.info, f.err
}

// ---- helpers ----

// collect drains ch until the producer closes it.
func collect(t *testing.T, ch *events.Channel) []events.Event {
	t.Helper()
	var out []events.Event
	deadline := time.After(5 * time.Second)
	for !ch.Done() {
		select {
		case <-ch.Ready():
			out = append(out, ch.Drain()...)
		case <-deadline:
			t.Fatal("producer did not close its channel")
		}
	}
	return out
}

func kinds(evs []events.Event) []events.Kind {
	out := make([]events.Kind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

func without(evs []events.Event, k events.Kind) []events.Event {
	var out []events.Event
	for _, e := range evs {
		if e.Kind != k {
			out = append(out, e)
		}
	}
	return out
}

var fastRetry = RetryPolicy{Base: time.Millisecond, MaxRetries: 3, MaxBackoff: 4 * time.Millisecond}
