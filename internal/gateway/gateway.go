// Package gateway is the single chokepoint for every backend call. It
// attaches the per-request security token and (on protected routes) the
// session credential headers, classifies failure responses, and decides
// whether a failure is locally recoverable or must escalate to the global
// "log in again" state. Nothing above this package inspects status codes.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wallshare/internal/notify"
	"wallshare/internal/routes"
	"wallshare/internal/sectoken"
	"wallshare/internal/session"
	"wallshare/internal/signal"
)

// Credential header names for protected calls.
const (
	HeaderUserID        = "X-User-Id"
	HeaderSessionToken  = "X-Session-Token"
	headerAuthorization = "Authorization"
)

// User-facing messages.
const (
	msgPleaseLogIn     = "Please log in to continue."
	msgInvalidRequest  = "Invalid request."
	msgSecurityReload  = "Security check failed. Restarting your session..."
	msgTokenExpired    = "Security token expired. Restarting your session..."
	msgAccessDenied    = "Access denied."
	msgTooManyRequests = "Too many requests. Please slow down and try again."
	msgServerError     = "Server error. Please try again later."
	msgNetworkError    = "Network error. Check your connection and try again."
	msgUnexpected      = "Something went wrong. Please try again."

	notModifiedMessage = "Not modified"
)

// defaultReloadDelay is how long the token-error branches wait before
// reloading, so the transient message is visible first.
const defaultReloadDelay = 1500 * time.Millisecond

// Options configures a single call. Caller headers are merged first; the
// gateway's own security-token and credential headers always win over
// caller-supplied equivalents.
type Options struct {
	// Method defaults to GET.
	Method string

	// Headers are extra request headers (content type, If-None-Match, ...).
	Headers http.Header

	// Body is the request payload, typically JSON or multipart form data.
	Body io.Reader
}

// Response is a completed call. A 304 yields NotModified=true with a fixed
// Message and no Body, distinguishable from both a parsed body and from the
// nil a failed Fetch returns.
type Response struct {
	Status      int
	NotModified bool
	Message     string
	Body        json.RawMessage
}

// Result is the structured outcome for call sites that need to distinguish
// failure reasons programmatically instead of relying on side-effect
// messaging alone.
type Result struct {
	Success     bool
	NotModified bool
	Status      int
	Data        json.RawMessage
	Err         error
}

// Config carries the gateway's injected dependencies.
type Config struct {
	Tokens   *sectoken.Generator
	Store    session.Store
	Signal   *signal.SessionError
	Notifier notify.Notifier
	Env      notify.Env

	// Client is the transport. It must not carry a cookie jar: requests go
	// out without cookies. Defaults to a 30s-timeout client.
	Client *http.Client

	Log *slog.Logger

	// ReloadDelay defers the forced reload on security-token errors.
	ReloadDelay time.Duration

	// Schedule runs fn after d. Defaults to time.AfterFunc; tests inject a
	// synchronous version.
	Schedule func(d time.Duration, fn func())
}

// Gateway implements the authenticated request pipeline.
type Gateway struct {
	tokens      *sectoken.Generator
	store       session.Store
	signal      *signal.SessionError
	notifier    notify.Notifier
	env         notify.Env
	client      *http.Client
	log         *slog.Logger
	reloadDelay time.Duration
	schedule    func(d time.Duration, fn func())
}

// New validates the configuration and returns a Gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.Tokens == nil {
		return nil, errors.New("gateway: token generator is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("gateway: session store is required")
	}
	if cfg.Signal == nil {
		return nil, errors.New("gateway: session-error signal is required")
	}
	if cfg.Notifier == nil {
		return nil, errors.New("gateway: notifier is required")
	}
	if cfg.Env == nil {
		return nil, errors.New("gateway: env is required")
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.ReloadDelay <= 0 {
		cfg.ReloadDelay = defaultReloadDelay
	}
	if cfg.Schedule == nil {
		cfg.Schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return &Gateway{
		tokens:      cfg.Tokens,
		store:       cfg.Store,
		signal:      cfg.Signal,
		notifier:    cfg.Notifier,
		env:         cfg.Env,
		client:      cfg.Client,
		log:         cfg.Log,
		reloadDelay: cfg.ReloadDelay,
		schedule:    cfg.Schedule,
	}, nil
}

// Fetch is the primary entry point. It always returns a value: a Response
// on success (or the 304 sentinel), nil on any failure. By the time nil
// comes back the user has been notified or the session-error signal raised,
// so callers must not re-display their own generic error.
func (g *Gateway) Fetch(ctx context.Context, url string, opts Options) *Response {
	res := g.FetchResult(ctx, url, opts)
	if !res.Success {
		return nil
	}
	if res.NotModified {
		return &Response{Status: res.Status, NotModified: true, Message: notModifiedMessage}
	}
	return &Response{Status: res.Status, Body: res.Data}
}

// FetchResult is the structured variant. Classification side effects
// (notifications, signal raising, credential clearing) are identical to
// Fetch; the difference is that the outcome is returned instead of
// swallowed.
func (g *Gateway) FetchResult(ctx context.Context, url string, opts Options) Result {
	resp, err := g.do(ctx, url, opts)
	if err == nil {
		return Result{
			Success:     true,
			NotModified: resp.NotModified,
			Status:      resp.Status,
			Data:        resp.Body,
		}
	}

	var se *StatusError
	if errors.As(err, &se) {
		// Already classified and communicated in do().
		return Result{Status: se.Status, Err: se}
	}
	if errors.Is(err, ErrNotAuthenticated) {
		// Signal already raised; no network call happened.
		return Result{Err: err}
	}
	var te *TransportError
	if errors.As(err, &te) {
		g.notifier.Notify(msgNetworkError)
		return Result{Err: err}
	}

	g.log.Warn("unexpected gateway failure", "url", url, "err", err)
	g.notifier.Notify(msgUnexpected)
	return Result{Err: err}
}

// do runs the pipeline: token header, route classification, credential
// check, transport, status classification.
func (g *Gateway) do(ctx context.Context, url string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, url, opts.Body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	// Caller headers first; mandatory headers are Set afterwards so they win.
	for k, vs := range opts.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	// Fresh security token on every call, public and protected alike.
	req.Header.Set(sectoken.Header, g.tokens.Token())

	protected := !routes.IsPublic(g.env.Path())
	if protected {
		creds, lerr := session.Load(ctx, g.store)
		if lerr != nil {
			// An unreadable store is indistinguishable from a logged-out
			// client; escalate the same way.
			g.log.Warn("session store read failed", "err", lerr)
		}
		if lerr != nil || !creds.Authenticated() {
			g.clearCredentials(ctx)
			g.signal.Raise(msgPleaseLogIn)
			return nil, ErrNotAuthenticated
		}
		req.Header.Set(HeaderUserID, creds.UserID)
		req.Header.Set(headerAuthorization, "Bearer "+creds.AuthToken)
		req.Header.Set(HeaderSessionToken, creds.SessionToken)
	}

	// The client carries no cookie jar, so no cookies are sent.
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return &Response{Status: http.StatusNotModified, NotModified: true, Message: notModifiedMessage}, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		eb := parseErrorBody(resp.StatusCode, raw)
		g.classify(ctx, resp.StatusCode, eb, protected)
		return nil, &StatusError{Status: resp.StatusCode, Body: eb}
	}

	if len(raw) > 0 && !json.Valid(raw) {
		return nil, errMalformedBody
	}
	return &Response{Status: resp.StatusCode, Body: raw}, nil
}

// classify performs the per-status side effects. Security-token errors force
// a reload, auth failures escalate to the signal, everything else is a
// transient message.
func (g *Gateway) classify(ctx context.Context, status int, eb ErrorBody, protected bool) {
	switch status {
	case http.StatusBadRequest:
		if eb.Error == ErrMsgMissingTSToken || eb.Error == ErrMsgInvalidTSToken {
			g.notifier.Notify(msgSecurityReload)
			g.scheduleReload()
			return
		}
		if d := eb.display(); d != "" {
			g.notifier.Notify(d)
			return
		}
		g.notifier.Notify(msgInvalidRequest)

	case http.StatusUnauthorized:
		switch {
		case eb.Error == ErrMsgTSTokenExpired:
			g.notifier.Notify(msgTokenExpired)
			g.scheduleReload()
		case eb.Code == CodeLoginRequired || strings.Contains(eb.Error, "auth"):
			g.clearCredentials(ctx)
			g.signal.Raise(eb.display())
		default:
			g.notifier.Notify(msgAccessDenied)
			if protected {
				g.clearCredentials(ctx)
				g.signal.Raise("")
			}
		}

	case http.StatusTooManyRequests:
		g.notifier.Notify(msgTooManyRequests)

	case http.StatusInternalServerError:
		g.notifier.Notify(msgServerError)

	default:
		if d := eb.display(); d != "" {
			g.notifier.Notify(d)
			return
		}
		g.notifier.Notify(fmt.Sprintf("Unexpected error (%d)", status))
	}
}

func (g *Gateway) clearCredentials(ctx context.Context) {
	if err := session.ClearCredentials(ctx, g.store); err != nil {
		g.log.Warn("credential clear failed", "err", err)
	}
}

func (g *Gateway) scheduleReload() {
	g.schedule(g.reloadDelay, g.env.Reload)
}

// parseErrorBody tolerates bodies that are not structured errors: anything
// unparseable degrades into a constructed payload carrying the status.
func parseErrorBody(status int, raw []byte) ErrorBody {
	var eb ErrorBody
	if len(raw) > 0 && json.Unmarshal(raw, &eb) == nil {
		if eb.Error != "" || eb.Message != "" || eb.Code != "" {
			return eb
		}
	}
	return ErrorBody{
		Error:   fmt.Sprintf("HTTP %d", status),
		Message: http.StatusText(status),
	}
}
