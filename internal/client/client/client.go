package client

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/bililive/internal/client/session"
	"github.com/dmitrijs2005/bililive/internal/common"
	"github.com/dmitrijs2005/bililive/internal/logging"
	"golang.org/x/net/publicsuffix"
)

const maxBodySize = 1 << 20

// Request describes one call. Params are added to the URL query; a non-nil
// Form is sent urlencoded as the body.
type Request struct {
	Method     string
	URL        string
	Params     url.Values
	Form       url.Values
	Header     http.Header
	UseSession bool
}

// Response is the fully read reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Cookies    []*http.Cookie
	Body       []byte
}

// Client performs one platform call. Implementations return a *NetError
// for transport, timeout and non-2xx failures.
type Client interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// SessionSource is the part of the session store the adapter needs.
type SessionSource interface {
	Get() (session.Session, bool)
	MergeCookies(ctx context.Context, host string, cookies []*http.Cookie) error
}

// HTTPClient is the net/http Client. It attaches the stored session's
// cookies to requests that ask for them and merges Set-Cookie replies back
// into the store.
type HTTPClient struct {
	http     *http.Client
	sessions SessionSource
	timeout  time.Duration
	log      logging.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithLogger sets the logger for request traces.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// NewHTTPClient returns an adapter bound to sessions. sessions may be nil
// when no request uses the session.
func NewHTTPClient(timeout time.Duration, sessions SessionSource, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		http:     &http.Client{},
		sessions: sessions,
		timeout:  timeout,
		log:      logging.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "http")
	return c
}

func (c *HTTPClient) Do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	target, err := url.Parse(r.URL)
	if err != nil {
		return nil, &NetError{Kind: KindTransport, Method: method, URL: r.URL, Err: err}
	}
	if len(r.Params) > 0 {
		q := target.Query()
		for k, vs := range r.Params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}
	// logged and reported without the query, which may carry login tokens
	display := target.Scheme + "://" + target.Host + target.Path

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
	}

	req, err := http.NewRequestWithContext(callCtx, method, target.String(), body)
	if err != nil {
		return nil, &NetError{Kind: KindTransport, Method: method, URL: display, Err: err}
	}
	for k, v := range common.DefaultHeaders {
		req.Header.Set(k, v)
	}
	if r.Form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range r.Header {
		req.Header[k] = append([]string(nil), vs...)
	}

	if r.UseSession && c.sessions != nil {
		if s, ok := c.sessions.Get(); ok {
			for _, sc := range s.Cookies {
				if cookieMatchesHost(sc, target.Hostname()) {
					req.AddCookie(&http.Cookie{Name: sc.Name, Value: sc.Value})
				}
			}
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, method, display, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.classify(ctx, method, display, err)
	}

	c.log.Debug(ctx, "platform request",
		"method", method,
		"url", display,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).String(),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &NetError{Kind: KindStatus, StatusCode: resp.StatusCode, Method: method, URL: display}
	}

	cookies := resp.Cookies()
	if r.UseSession && c.sessions != nil && len(cookies) > 0 {
		if err := c.sessions.MergeCookies(ctx, target.Hostname(), cookies); err != nil {
			c.log.Warn(ctx, "cannot merge response cookies", "error", err)
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Cookies:    cookies,
		Body:       data,
	}, nil
}

func (c *HTTPClient) classify(parent context.Context, method, url string, err error) error {
	// the caller gave up; that is not a platform failure
	if perr := parent.Err(); perr != nil && errors.Is(perr, context.Canceled) {
		return perr
	}

	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &NetError{Kind: KindTimeout, Method: method, URL: url, Err: err}
	}
	return &NetError{Kind: KindTransport, Method: method, URL: url, Err: err}
}

// cookieMatchesHost reports whether c may be sent to host. A host-only
// cookie goes back to its issuing host alone. A domain cookie goes to the
// domain and its subdomains, never to an IP address or across a public
// suffix. A cookie without any domain goes nowhere.
func cookieMatchesHost(c session.Cookie, host string) bool {
	domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	host = strings.ToLower(host)
	if domain == "" {
		return false
	}
	if c.HostOnly || domain == host {
		return domain == host
	}

	if !strings.HasSuffix(host, "."+domain) || net.ParseIP(host) != nil {
		return false
	}
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix != domain
}
