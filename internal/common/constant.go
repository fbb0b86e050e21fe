// Package common contains constants and sentinel errors shared by the
// bililive client packages.
package common

// Cookie names issued by the passport service on a confirmed QR login.
const (
	CookieUserID   = "DedeUserID"
	CookieUserHash = "DedeUserID__ckMd5"
	CookieSessData = "SESSDATA"
	CookieCSRF     = "bili_jct"
)

// UserAgent is sent with every platform request; the passport endpoints
// reject requests without a browser-like agent.
const UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36"

// DefaultHeaders are attached to every outbound request before per-call headers.
var DefaultHeaders = map[string]string{
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
	"Origin":          "https://link.bilibili.com",
	"Referer":         "https://link.bilibili.com/p/center/index",
	"User-Agent":      UserAgent,
}
