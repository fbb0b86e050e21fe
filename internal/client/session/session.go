// Package session owns the authenticated identity of the running client.
//
// A Session is an immutable value: it is issued once by the QR login flow,
// replaced wholesale by the next login, and cleared on logout or when the
// platform rejects it. Store is the single slot that holds it; every
// network-calling component reads cookies from there.
package session

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/bililive/internal/common"
)

// Cookie is one identity cookie. Expires is zero for session cookies.
// A HostOnly cookie was set without a Domain attribute and belongs to the
// issuing host alone, which is recorded in Domain.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	HostOnly bool      `json:"host_only,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
}

// sameSlot reports whether c and o would be stored under the same key by a
// browser cookie jar: same name, same domain, same scope.
func (c Cookie) sameSlot(o Cookie) bool {
	return c.Name == o.Name && c.HostOnly == o.HostOnly &&
		strings.EqualFold(strings.TrimPrefix(c.Domain, "."), strings.TrimPrefix(o.Domain, "."))
}

// Session is the durable set of credentials proving an authenticated identity.
type Session struct {
	ID        string    `json:"id"`
	UID       uint64    `json:"uid"`
	Cookies   []Cookie  `json:"cookies"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Complete reports whether every mandatory field is populated.
func (s Session) Complete() bool {
	return s.ID != "" && s.UID > 0 && len(s.Cookies) > 0 && !s.CreatedAt.IsZero()
}

// Expired reports whether the session has a deadline at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Valid is Complete and not Expired.
func (s Session) Valid(now time.Time) bool {
	return s.Complete() && !s.Expired(now)
}

// Cookie returns the value of the named cookie.
func (s Session) Cookie(name string) (string, bool) {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// CSRF is the bili_jct cookie, required by the platform's write endpoints.
func (s Session) CSRF() string {
	v, _ := s.Cookie(common.CookieCSRF)
	return v
}

// Clone returns a deep copy so callers can never alias the stored slice.
func (s Session) Clone() Session {
	out := s
	out.Cookies = append([]Cookie(nil), s.Cookies...)
	return out
}

// WithCookies returns a copy of s with updated, as received from host,
// applied on top of the existing cookies. A cookie without a Domain
// attribute is scoped to host alone. A cookie with MaxAge < 0 or an expiry
// in the past is removed. The session expiry follows a domain-wide SESSDATA.
func (s Session) WithCookies(updated []*http.Cookie, host string, now time.Time) Session {
	out := s.Clone()

	for _, hc := range updated {
		c := FromHTTPCookie(hc, now)
		if c.Domain == "" {
			c.Domain = strings.ToLower(host)
			c.HostOnly = true
		}

		idx := -1
		for i, old := range out.Cookies {
			if old.sameSlot(c) {
				idx = i
				break
			}
		}

		deleted := hc.MaxAge < 0 || (!hc.Expires.IsZero() && !hc.Expires.After(now))
		if deleted {
			if idx >= 0 {
				out.Cookies = append(out.Cookies[:idx], out.Cookies[idx+1:]...)
			}
			continue
		}

		if idx >= 0 {
			out.Cookies[idx] = c
		} else {
			out.Cookies = append(out.Cookies, c)
		}
		if c.Name == common.CookieSessData && !c.HostOnly && !c.Expires.IsZero() {
			out.ExpiresAt = c.Expires
		}
	}

	return out
}

// FromHTTPCookie normalises MaxAge into an absolute expiry.
func FromHTTPCookie(hc *http.Cookie, now time.Time) Cookie {
	c := Cookie{Name: hc.Name, Value: hc.Value, Domain: hc.Domain, Expires: hc.Expires}
	if hc.MaxAge > 0 {
		c.Expires = now.Add(time.Duration(hc.MaxAge) * time.Second)
	}
	return c
}

// ParseUID reads the numeric user id from the DedeUserID cookie value.
func ParseUID(v string) (uint64, error) {
	return strconv.ParseUint(v, 10, 64)
}
