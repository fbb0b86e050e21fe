package platform

import (
	"fmt"
	"net/url"
)

// Endpoints are the absolute URLs of the platform calls.
type Endpoints struct {
	QRGenerate  string `json:"qr_generate"`
	QRPoll      string `json:"qr_poll"`
	RoomInfo    string `json:"room_info"`
	RoomByUID   string `json:"room_by_uid"`
	Nav         string `json:"nav"`
	RoomUpdate  string `json:"room_update"`
	DanmakuSend string `json:"danmaku_send"`
}

// DefaultEndpoints are the production bilibili URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		QRGenerate:  "https://passport.bilibili.com/x/passport-login/web/qrcode/generate",
		QRPoll:      "https://passport.bilibili.com/x/passport-login/web/qrcode/poll",
		RoomInfo:    "https://api.live.bilibili.com/room/v1/Room/get_info",
		RoomByUID:   "https://api.live.bilibili.com/room/v2/Room/room_id_by_uid",
		Nav:         "https://api.bilibili.com/x/web-interface/nav",
		RoomUpdate:  "https://api.live.bilibili.com/room/v1/Room/update",
		DanmakuSend: "https://api.live.bilibili.com/msg/send",
	}
}

// WithBase rewrites every endpoint to the same path under base. Used to
// point the client at a test server or a proxy.
func (e Endpoints) WithBase(base string) (Endpoints, error) {
	b, err := url.Parse(base)
	if err != nil {
		return e, err
	}
	rewrite := func(s string) (string, error) {
		u, err := url.Parse(s)
		if err != nil {
			return "", err
		}
		u.Scheme, u.Host = b.Scheme, b.Host
		return u.String(), nil
	}

	out := e
	for _, p := range []*string{
		&out.QRGenerate, &out.QRPoll, &out.RoomInfo, &out.RoomByUID, &out.Nav, &out.RoomUpdate, &out.DanmakuSend,
	} {
		if *p, err = rewrite(*p); err != nil {
			return e, err
		}
	}
	return out, nil
}

// Validate checks that every endpoint is an absolute http(s) URL.
func (e Endpoints) Validate() error {
	named := map[string]string{
		"qr_generate":  e.QRGenerate,
		"qr_poll":      e.QRPoll,
		"room_info":    e.RoomInfo,
		"room_by_uid":  e.RoomByUID,
		"nav":          e.Nav,
		"room_update":  e.RoomUpdate,
		"danmaku_send": e.DanmakuSend,
	}
	for name, raw := range named {
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("endpoint %s: %w", name, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("endpoint %s: %q is not an absolute http(s) url", name, raw)
		}
	}
	return nil
}
