// Package client is the HTTP adapter every platform call goes through.
//
// # Overview
//
// Client.Do performs exactly one request: it applies the configured
// timeout, attaches the browser-like default headers and, for requests
// marked UseSession, the identity cookies of the current session. Cookies
// the platform sets on such a response are merged back into the session
// store. The adapter never retries; retry policy belongs to the polling
// loops.
//
// # Error Handling
//
// Failures are reported as *NetError with one of four kinds: KindTimeout,
// KindTransport, KindStatus and KindDecode. NetError matches the sentinels
// ErrUnavailable (transient: timeout, transport, 5xx, 429) and
// ErrUnauthorized (401, 403) with errors.Is. Cancellation of the caller's
// context is returned as the context error itself.
package client
