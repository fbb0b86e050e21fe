package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/events"
	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending() pollStep { return pollStep{res: models.LoginPollResult{Status: models.StatusPending}} }

func confirmed(uid uint64) pollStep {
	s := validSession(uid)
	return pollStep{res: models.LoginPollResult{Status: models.StatusConfirmed, Session: &s}}
}

func newLogin(api LoginAPI, store SessionStore) *LoginService {
	return NewLoginService(api, store, LoginConfig{
		PollInterval: 5 * time.Millisecond,
		TTL:          time.Minute,
		Retry:        fastRetry,
	}, nil)
}

type loginOutcome struct {
	sess session.Session
	err  error
	evs  []events.Event
}

func runLogin(t *testing.T, ctx context.Context, svc *LoginService) loginOutcome {
	t.Helper()
	ch := events.NewChannel(0)
	var out loginOutcome
	done := make(chan struct{})
	go func() {
		out.sess, out.err = svc.Run(ctx, ch)
		close(done)
	}()
	out.evs = collect(t, ch)
	<-done
	return out
}

func TestLoginService_PendingPendingConfirmed(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{pending(), pending(), confirmed(999)}}
	store := &fakeStore{}

	out := runLogin(t, context.Background(), newLogin(api, store))
	require.NoError(t, out.err)

	assert.Equal(t, []events.Kind{
		events.KindChallenge,
		events.KindLoginStatus,
		events.KindLoginStatus,
		events.KindLoginConfirmed,
	}, kinds(out.evs))
	assert.Equal(t, models.StatusPending, out.evs[1].Login)
	assert.Equal(t, models.StatusPending, out.evs[2].Login)
	assert.Equal(t, uint64(999), out.evs[3].UID)

	assert.Equal(t, "abc", out.evs[0].Challenge.Token)
	assert.True(t, out.evs[0].Challenge.ExpiresAt.After(out.evs[0].Challenge.CreatedAt))
	assert.NotEmpty(t, out.evs[0].QR)
	assert.Equal(t, "abc", api.token)

	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, uint64(999), got.UID)
	v, _ := got.Cookie(common.CookieSessData)
	assert.Equal(t, "xyz", v)
	assert.Equal(t, uint64(999), out.sess.UID)
}

func TestLoginService_ConfirmedWritesOnce(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{confirmed(1), confirmed(2)}}
	store := &fakeStore{}

	out := runLogin(t, context.Background(), newLogin(api, store))
	require.NoError(t, out.err)

	time.Sleep(20 * time.Millisecond)
	puts, _ := store.counts()
	assert.Equal(t, 1, puts)
	assert.Equal(t, 1, api.pollCount())
}

func TestLoginService_ScannedKeepsWaiting(t *testing.T) {
	scanned := pollStep{res: models.LoginPollResult{Status: models.StatusScanned}}
	api := &fakeLoginAPI{steps: []pollStep{scanned, confirmed(5)}}

	out := runLogin(t, context.Background(), newLogin(api, &fakeStore{}))
	require.NoError(t, out.err)
	assert.Equal(t, models.StatusScanned, out.evs[1].Login)
}

func TestLoginService_ExpiredByPlatform(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{pending(), {res: models.LoginPollResult{Status: models.StatusExpired}}}}
	store := &fakeStore{}

	out := runLogin(t, context.Background(), newLogin(api, store))
	require.ErrorIs(t, out.err, common.ErrQRExpired)
	assert.Equal(t, events.KindLoginExpired, out.evs[len(out.evs)-1].Kind)

	_, ok := store.Get()
	assert.False(t, ok)
}

func TestLoginService_ExpiresLocallyAfterTTL(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{pending()}}
	svc := newLogin(api, &fakeStore{})
	svc.cfg.TTL = 30 * time.Millisecond

	out := runLogin(t, context.Background(), svc)
	require.ErrorIs(t, out.err, common.ErrQRExpired)
	assert.Equal(t, events.KindLoginExpired, out.evs[len(out.evs)-1].Kind)
}

func TestLoginService_FailedCarriesReason(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{{res: models.LoginPollResult{Status: models.StatusFailed, Reason: "boom"}}}}

	out := runLogin(t, context.Background(), newLogin(api, &fakeStore{}))
	require.ErrorIs(t, out.err, common.ErrLoginFailed)
	assert.Contains(t, out.err.Error(), "boom")

	last := out.evs[len(out.evs)-1]
	assert.Equal(t, events.KindLoginFailed, last.Kind)
	assert.ErrorIs(t, last.Err, common.ErrLoginFailed)
}

func TestLoginService_CancelDuringAwaitingScanLeavesNoSession(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{pending()}}
	store := &fakeStore{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	out := runLogin(t, ctx, newLogin(api, store))
	require.ErrorIs(t, out.err, context.Canceled)

	_, ok := store.Get()
	assert.False(t, ok)
	puts, _ := store.counts()
	assert.Zero(t, puts)
	for _, e := range out.evs {
		assert.False(t, e.Terminal(), "no terminal event on cancel")
	}
}

func TestLoginService_TransientPollErrorIsRetried(t *testing.T) {
	timeout := &client.NetError{Kind: client.KindTimeout, Err: errors.New("slow")}
	api := &fakeLoginAPI{steps: []pollStep{{err: timeout}, confirmed(7)}}

	out := runLogin(t, context.Background(), newLogin(api, &fakeStore{}))
	require.NoError(t, out.err)
	assert.Contains(t, kinds(out.evs), events.KindRetrying)
	assert.Equal(t, uint64(7), out.sess.UID)
}

func TestLoginService_FullIntervalAfterRecoveredRetry(t *testing.T) {
	const interval = 100 * time.Millisecond
	timeout := &client.NetError{Kind: client.KindTimeout, Err: errors.New("slow")}
	api := &fakeLoginAPI{steps: []pollStep{pending(), {err: timeout}, {err: timeout}, pending(), confirmed(7)}}
	svc := NewLoginService(api, &fakeStore{}, LoginConfig{
		PollInterval: interval,
		TTL:          time.Minute,
		Retry:        RetryPolicy{Base: 40 * time.Millisecond, MaxRetries: 3, MaxBackoff: 40 * time.Millisecond},
	}, nil)

	out := runLogin(t, context.Background(), svc)
	require.NoError(t, out.err)

	times := api.pollTimes()
	require.Len(t, times, 5)
	assert.GreaterOrEqual(t, times[4].Sub(times[3]), interval-10*time.Millisecond)
}

func TestLoginService_RetriesExhaustedFails(t *testing.T) {
	timeout := &client.NetError{Kind: client.KindTimeout, Err: errors.New("slow")}
	api := &fakeLoginAPI{steps: []pollStep{{err: timeout}}}
	svc := newLogin(api, &fakeStore{})
	svc.cfg.Retry.MaxRetries = 2

	out := runLogin(t, context.Background(), svc)
	require.ErrorIs(t, out.err, common.ErrLoginFailed)
	assert.ErrorIs(t, out.err, client.ErrUnavailable)
	assert.Equal(t, 2, api.pollCount())
}

func TestLoginService_GenerateProtocolError(t *testing.T) {
	api := &fakeLoginAPI{genErr: common.ErrProtocol}

	out := runLogin(t, context.Background(), newLogin(api, &fakeStore{}))
	require.ErrorIs(t, out.err, common.ErrLoginFailed)
	assert.ErrorIs(t, out.err, common.ErrProtocol)
	assert.Equal(t, []events.Kind{events.KindLoginFailed}, kinds(out.evs))
	assert.Zero(t, api.pollCount())
}

func TestLoginService_IncompleteConfirmationFails(t *testing.T) {
	bad := validSession(0)
	api := &fakeLoginAPI{steps: []pollStep{{res: models.LoginPollResult{Status: models.StatusConfirmed, Session: &bad}}}}
	store := &fakeStore{}

	out := runLogin(t, context.Background(), newLogin(api, store))
	require.ErrorIs(t, out.err, common.ErrIncompleteSession)
	_, ok := store.Get()
	assert.False(t, ok)
}

func TestLoginService_WritesQRImage(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{confirmed(3)}}
	svc := newLogin(api, &fakeStore{})
	svc.cfg.QRImagePath = "qr.png"

	var savedPath, savedText string
	svc.savePNG = func(path, text string) error {
		savedPath, savedText = path, text
		return nil
	}

	out := runLogin(t, context.Background(), svc)
	require.NoError(t, out.err)
	assert.Equal(t, "qr.png", savedPath)
	assert.Equal(t, "https://qr.example/abc", savedText)
}

func TestLoginService_Restartable(t *testing.T) {
	api := &fakeLoginAPI{steps: []pollStep{{res: models.LoginPollResult{Status: models.StatusExpired}}}}
	store := &fakeStore{}
	svc := newLogin(api, store)

	first := runLogin(t, context.Background(), svc)
	require.ErrorIs(t, first.err, common.ErrQRExpired)

	api.mu.Lock()
	api.steps = []pollStep{confirmed(11)}
	api.polls = 0
	api.mu.Unlock()

	second := runLogin(t, context.Background(), svc)
	require.NoError(t, second.err)
	assert.Equal(t, uint64(11), second.sess.UID)
}
