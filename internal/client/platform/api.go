package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/client"
	"github.com/dmitrijs2005/bililive/internal/client/models"
	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/google/uuid"
)

// QR poll answer codes.
const (
	qrConfirmed = 0
	qrExpired   = 86038
	qrScanned   = 86090
	qrPending   = 86101
)

// sessionDomain is attached to identity cookies recovered from the
// confirmation URL, which carries no domain of its own.
const sessionDomain = ".bilibili.com"

// API speaks the bilibili web endpoints over a client.Client and maps
// their JSON envelopes onto the models types.
type API struct {
	client    client.Client
	endpoints Endpoints
	now       func() time.Time
	newID     func() string
}

// NewAPI returns an API that sends every call through c to endpoints.
func NewAPI(c client.Client, endpoints Endpoints) *API {
	return &API{client: c, endpoints: endpoints, now: time.Now, newID: uuid.NewString}
}

func (a *API) get(ctx context.Context, rawURL string, params url.Values, useSession bool) (*client.Response, error) {
	return a.client.Do(ctx, client.Request{
		Method:     http.MethodGet,
		URL:        rawURL,
		Params:     params,
		UseSession: useSession,
	})
}

// GenerateQR requests a new login challenge. The platform does not report
// a lifetime, so the challenge expires ttl after it was received.
func (a *API) GenerateQR(ctx context.Context, ttl time.Duration) (models.QrChallenge, error) {
	const name = "qr generate"

	resp, err := a.get(ctx, a.endpoints.QRGenerate, nil, false)
	if err != nil {
		return models.QrChallenge{}, err
	}
	env, err := decodeEnvelope(name, a.endpoints.QRGenerate, resp.Body)
	if err != nil {
		return models.QrChallenge{}, err
	}

	var data struct {
		URL       string `json:"url"`
		QRCodeKey string `json:"qrcode_key"`
	}
	if err := decodeData(name, a.endpoints.QRGenerate, env, &data); err != nil {
		return models.QrChallenge{}, err
	}

	c, err := models.NewQrChallenge(data.QRCodeKey, data.URL, a.now(), ttl)
	if err != nil {
		return models.QrChallenge{}, &ProtocolError{Endpoint: name, Reason: err.Error()}
	}
	return c, nil
}

// PollQR asks for the state of the challenge identified by token.
func (a *API) PollQR(ctx context.Context, token string) (models.LoginPollResult, error) {
	const name = "qr poll"

	resp, err := a.get(ctx, a.endpoints.QRPoll, url.Values{"qrcode_key": {token}}, false)
	if err != nil {
		return models.LoginPollResult{}, err
	}
	env, err := decodeEnvelope(name, a.endpoints.QRPoll, resp.Body)
	if err != nil {
		return models.LoginPollResult{}, err
	}

	var data struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		URL     string `json:"url"`
	}
	if err := decodeData(name, a.endpoints.QRPoll, env, &data); err != nil {
		return models.LoginPollResult{}, err
	}

	switch data.Code {
	case qrPending:
		return models.LoginPollResult{Status: models.StatusPending}, nil
	case qrScanned:
		return models.LoginPollResult{Status: models.StatusScanned}, nil
	case qrExpired:
		return models.LoginPollResult{Status: models.StatusExpired}, nil
	case qrConfirmed:
		s, err := BuildSession(a.newID(), resp.Cookies, data.URL, a.now())
		if err != nil {
			return models.LoginPollResult{}, &ProtocolError{Endpoint: name, Reason: err.Error()}
		}
		return models.LoginPollResult{Status: models.StatusConfirmed, Session: &s}, nil
	default:
		reason := data.Message
		if reason == "" {
			reason = "code " + strconv.Itoa(data.Code)
		}
		return models.LoginPollResult{Status: models.StatusFailed, Reason: reason}, nil
	}
}

// BuildSession assembles a Session from the cookies set on the confirming
// poll response. Identity values missing from Set-Cookie are taken from the
// query string of the confirmation URL.
func BuildSession(id string, cookies []*http.Cookie, confirmURL string, now time.Time) (session.Session, error) {
	s := session.Session{ID: id, CreatedAt: now}

	seen := map[string]bool{}
	for _, hc := range cookies {
		if hc.Value == "" || seen[hc.Name] {
			continue
		}
		seen[hc.Name] = true
		c := session.FromHTTPCookie(hc, now)
		if c.Domain == "" {
			c.Domain = sessionDomain
		}
		s.Cookies = append(s.Cookies, c)
	}

	var query url.Values
	if confirmURL != "" {
		if u, err := url.Parse(confirmURL); err == nil {
			query = u.Query()
		}
	}
	var queryExpiry time.Time
	if raw := query.Get("Expires"); raw != "" {
		if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
			queryExpiry = time.Unix(secs, 0)
		}
	}
	for _, name := range []string{common.CookieUserID, common.CookieUserHash, common.CookieSessData, common.CookieCSRF} {
		if seen[name] {
			continue
		}
		if v := query.Get(name); v != "" {
			s.Cookies = append(s.Cookies, session.Cookie{Name: name, Value: v, Domain: sessionDomain, Expires: queryExpiry})
			seen[name] = true
		}
	}

	rawUID, ok := s.Cookie(common.CookieUserID)
	if !ok {
		return session.Session{}, fmt.Errorf("confirmation carries no %s", common.CookieUserID)
	}
	uid, err := session.ParseUID(rawUID)
	if err != nil || uid == 0 {
		return session.Session{}, fmt.Errorf("bad %s %q", common.CookieUserID, rawUID)
	}
	s.UID = uid

	if _, ok := s.Cookie(common.CookieSessData); !ok {
		return session.Session{}, fmt.Errorf("confirmation carries no %s", common.CookieSessData)
	}
	for _, c := range s.Cookies {
		if c.Name == common.CookieSessData && !c.Expires.IsZero() {
			s.ExpiresAt = c.Expires
		}
	}
	return s, nil
}

// RoomInfo fetches the current state of roomID.
func (a *API) RoomInfo(ctx context.Context, roomID uint64) (models.RoomSnapshot, error) {
	const name = "room info"

	params := url.Values{"room_id": {strconv.FormatUint(roomID, 10)}}
	resp, err := a.get(ctx, a.endpoints.RoomInfo, params, true)
	if err != nil {
		return models.RoomSnapshot{}, err
	}
	env, err := decodeEnvelope(name, a.endpoints.RoomInfo, resp.Body)
	if err != nil {
		return models.RoomSnapshot{}, err
	}

	var data struct {
		RoomID     flexUint `json:"room_id"`
		LiveStatus flexUint `json:"live_status"`
		Online     flexUint `json:"online"`
		Title      string   `json:"title"`
	}
	if err := decodeData(name, a.endpoints.RoomInfo, env, &data); err != nil {
		return models.RoomSnapshot{}, err
	}

	var status models.LiveStatus
	switch data.LiveStatus {
	case 0:
		status = models.LiveOffline
	case 1:
		status = models.LiveOn
	case 2:
		status = models.LiveReplay
	default:
		return models.RoomSnapshot{}, &ProtocolError{Endpoint: name, Reason: fmt.Sprintf("unknown live_status %d", data.LiveStatus)}
	}

	id := uint64(data.RoomID)
	if id == 0 {
		id = roomID
	}
	return models.RoomSnapshot{
		RoomID:     id,
		Status:     status,
		Viewers:    uint64(data.Online),
		Title:      data.Title,
		CapturedAt: a.now(),
	}, nil
}

// RoomIDByUID resolves the live room owned by uid.
func (a *API) RoomIDByUID(ctx context.Context, uid uint64) (uint64, error) {
	const name = "room by uid"

	params := url.Values{"uid": {strconv.FormatUint(uid, 10)}}
	resp, err := a.get(ctx, a.endpoints.RoomByUID, params, true)
	if err != nil {
		return 0, err
	}
	env, err := decodeEnvelope(name, a.endpoints.RoomByUID, resp.Body)
	if err != nil {
		return 0, err
	}

	var data struct {
		RoomID flexUint `json:"room_id"`
	}
	if err := decodeData(name, a.endpoints.RoomByUID, env, &data); err != nil {
		return 0, err
	}
	if data.RoomID == 0 {
		return 0, &ProtocolError{Endpoint: name, Reason: fmt.Sprintf("user %d has no live room", uid)}
	}
	return uint64(data.RoomID), nil
}

// NavInfo is the identity the platform associates with the current cookies.
type NavInfo struct {
	IsLogin bool
	UID     uint64
	Name    string
}

// Nav reports whether the current session is still accepted. A not-logged-in
// envelope is a valid answer, not an error.
func (a *API) Nav(ctx context.Context) (NavInfo, error) {
	const name = "nav"

	resp, err := a.get(ctx, a.endpoints.Nav, nil, true)
	if err != nil {
		return NavInfo{}, err
	}
	env, err := decodeEnvelope(name, a.endpoints.Nav, resp.Body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == CodeNotLoggedIn {
			return NavInfo{}, nil
		}
		return NavInfo{}, err
	}

	var data struct {
		IsLogin bool     `json:"isLogin"`
		Mid     flexUint `json:"mid"`
		Uname   string   `json:"uname"`
	}
	if err := decodeData(name, a.endpoints.Nav, env, &data); err != nil {
		return NavInfo{}, err
	}
	return NavInfo{IsLogin: data.IsLogin, UID: uint64(data.Mid), Name: data.Uname}, nil
}
