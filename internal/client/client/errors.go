package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("platform unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// Kind classifies a NetError.
type Kind int

const (
	KindTimeout Kind = iota + 1
	KindTransport
	KindStatus
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// NetError is the only error the adapter returns for a failed exchange,
// apart from the caller's own context cancellation.
type NetError struct {
	Kind       Kind
	StatusCode int
	Method     string
	URL        string
	Err        error
}

func (e *NetError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Kind)
	}
}

func (e *NetError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same request later may succeed.
func (e *NetError) Transient() bool {
	switch e.Kind {
	case KindTimeout, KindTransport:
		return true
	case KindStatus:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// Is lets callers match a NetError against the package sentinels:
// transient failures are ErrUnavailable, 401 and 403 are ErrUnauthorized.
func (e *NetError) Is(target error) bool {
	switch target {
	case ErrUnavailable:
		return e.Transient()
	case ErrUnauthorized:
		return e.Kind == KindStatus && (e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
	}
	return false
}

// IsTransient reports whether err carries a transient NetError.
func IsTransient(err error) bool {
	var ne *NetError
	return errors.As(err, &ne) && ne.Transient()
}

// DecodeError wraps a payload that could not be parsed into a NetError of
// kind KindDecode.
func DecodeError(method, url string, err error) error {
	return &NetError{Kind: KindDecode, Method: method, URL: url, Err: err}
}
