package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// Error strings and codes of the backend contract. Classification matches
// on these verbatim; changing them silently changes recovery behavior.
const (
	ErrMsgMissingTSToken = "Missing TS token"
	ErrMsgInvalidTSToken = "Invalid TS token"
	ErrMsgTSTokenExpired = "TS token expired"
	CodeLoginRequired    = "LOGIN_REQUIRED"
)

// ErrNotAuthenticated is returned when a protected call is skipped because
// the credential triple is incomplete. The session-error signal has already
// been raised by the time a caller sees this.
var ErrNotAuthenticated = errors.New("not authenticated")

// errMalformedBody marks a success response whose body was not valid JSON.
var errMalformedBody = errors.New("malformed response body")

// ErrorBody is the backend's error payload shape. Bodies that fail to parse
// are degraded into a constructed ErrorBody instead of propagating a
// parse failure.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// display returns the user-facing text of the payload, preferring the
// explicit message over the machine-oriented error string.
func (b ErrorBody) display() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}

// StatusError is a non-success HTTP response after classification. By the
// time it is returned the user has already been notified (or the signal
// raised); callers receiving it through FetchResult must not re-display a
// generic error.
type StatusError struct {
	Status int
	Body   ErrorBody
}

func (e *StatusError) Error() string {
	if d := e.Body.display(); d != "" {
		return fmt.Sprintf("http %d: %s", e.Status, d)
	}
	return fmt.Sprintf("http %d: %s", e.Status, http.StatusText(e.Status))
}

// TransportError is a network-level failure: the transport gave up before a
// response was obtained, or the body could not be read.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "network failure: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }
