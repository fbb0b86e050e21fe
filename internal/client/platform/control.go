package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dmitrijs2005/bililive/internal/client/client"
)

// Danmaku send answer codes.
const (
	CodeDanmakuTooLong  = 1003212
	CodeDanmakuTooOften = 10031
)

const (
	livePlatform    = "pc_link"
	danmakuColor    = "16777215" // white
	danmakuFontSize = "25"
	danmakuMode     = "1" // scrolling
)

// post sends form urlencoded with the session cookies and the csrf token
// the write endpoints require in both of their spellings.
func (a *API) post(ctx context.Context, rawURL string, form url.Values, csrf string) (*client.Response, error) {
	form.Set("csrf", csrf)
	form.Set("csrf_token", csrf)
	return a.client.Do(ctx, client.Request{
		Method:     http.MethodPost,
		URL:        rawURL,
		Form:       form,
		UseSession: true,
	})
}

// UpdateTitle renames roomID. csrf is the session's bili_jct cookie.
func (a *API) UpdateTitle(ctx context.Context, roomID uint64, title, csrf string) error {
	const name = "room update"

	resp, err := a.post(ctx, a.endpoints.RoomUpdate, url.Values{
		"room_id":  {strconv.FormatUint(roomID, 10)},
		"platform": {livePlatform},
		"title":    {title},
	}, csrf)
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(name, a.endpoints.RoomUpdate, resp.Body)
	return err
}

// SendDanmaku posts msg to the chat of roomID as a plain white scrolling
// comment. csrf is the session's bili_jct cookie.
func (a *API) SendDanmaku(ctx context.Context, roomID uint64, msg, csrf string) error {
	const name = "danmaku send"

	resp, err := a.post(ctx, a.endpoints.DanmakuSend, url.Values{
		"roomid":   {strconv.FormatUint(roomID, 10)},
		"msg":      {msg},
		"color":    {danmakuColor},
		"fontsize": {danmakuFontSize},
		"mode":     {danmakuMode},
		"rnd":      {strconv.FormatInt(a.now().Unix(), 10)},
	}, csrf)
	if err != nil {
		return err
	}
	_, err = decodeEnvelope(name, a.endpoints.DanmakuSend, resp.Body)
	return err
}
