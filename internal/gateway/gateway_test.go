package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"wallshare/internal/notify"
	"wallshare/internal/sectoken"
	"wallshare/internal/session"
	"wallshare/internal/signal"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// harness wires a gateway with recording fakes. Reload scheduling runs
// synchronously so tests can assert on it.
type harness struct {
	gw      *Gateway
	store   *session.MemoryStore
	rec     *recorder
	raised  []string
	reloads int
	path    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store: session.NewMemoryStore(),
		rec:   &recorder{},
		path:  "/feed",
	}
	sig := signal.New(nil)
	sig.Subscribe(func(msg string) { h.raised = append(h.raised, msg) })

	gw, err := New(Config{
		Tokens: sectoken.New(sectoken.Fingerprint{UserAgent: "test", Locale: "en", Platform: "test"}),
		Store:  h.store,
		Signal: sig,
		Notifier: h.rec,
		Env: &notify.FuncEnv{
			PathFunc:   func() string { return h.path },
			ReloadFunc: func() { h.reloads++ },
		},
		Client:      &http.Client{Timeout: 5 * time.Second},
		ReloadDelay: time.Millisecond,
		Schedule:    func(_ time.Duration, fn func()) { fn() },
	})
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	h.gw = gw
	return h
}

func (h *harness) login(t *testing.T) session.Credentials {
	t.Helper()
	c := session.Credentials{
		UserID:       "user-1",
		AuthToken:    "auth-token-1",
		SessionToken: "session-token-1",
		Username:     "wallfan",
		Email:        "wallfan@example.com",
	}
	if err := session.Save(context.Background(), h.store, c); err != nil {
		t.Fatalf("save creds: %v", err)
	}
	return c
}

func jsonServer(t *testing.T, status int, body string, capture *http.Header) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			*capture = r.Header.Clone()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch_ProtectedWithoutCredentialsSkipsNetwork(t *testing.T) {
	h := newHarness(t)

	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	// Partial presence counts as logged out.
	_ = h.store.Set(context.Background(), session.KeyUserID, "user-1")
	_ = h.store.Set(context.Background(), session.KeyAuthToken, "tok")

	resp := h.gw.Fetch(context.Background(), srv.URL+"/api/wallpapers/feed", Options{})
	if resp != nil {
		t.Fatalf("expected nil response, got %+v", resp)
	}
	if called {
		t.Fatalf("network call must not happen without the full credential triple")
	}
	if len(h.raised) != 1 {
		t.Fatalf("expected exactly one signal raise, got %v", h.raised)
	}
	if h.raised[0] == "" {
		t.Fatalf("signal message must be non-empty")
	}
	if v, _ := h.store.Get(context.Background(), session.KeyUserID); v != "" {
		t.Fatalf("partial credentials must be cleared")
	}
}

func TestDo_SecurityTokenFreshPerCall(t *testing.T) {
	h := newHarness(t)
	h.path = "/login" // public: no credentials needed

	var tokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.Header.Get(sectoken.Header))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	for i := 0; i < 2; i++ {
		if resp := h.gw.Fetch(context.Background(), srv.URL, Options{}); resp == nil {
			t.Fatalf("call %d failed: %v", i, h.rec.all())
		}
	}
	if len(tokens) != 2 || tokens[0] == "" || tokens[1] == "" {
		t.Fatalf("expected a token on every call, got %v", tokens)
	}
	if tokens[0] == tokens[1] {
		t.Fatalf("security token must differ between calls")
	}
}

func TestDo_ProtectedHeadersCarryStoredValuesVerbatim(t *testing.T) {
	h := newHarness(t)
	creds := h.login(t)

	var hdr http.Header
	srv := jsonServer(t, http.StatusOK, `{"ok":true}`, &hdr)

	if resp := h.gw.Fetch(context.Background(), srv.URL, Options{}); resp == nil {
		t.Fatalf("fetch failed: %v", h.rec.all())
	}

	if got := hdr.Get(HeaderUserID); got != creds.UserID {
		t.Fatalf("user id header = %q", got)
	}
	if got := hdr.Get("Authorization"); got != "Bearer "+creds.AuthToken {
		t.Fatalf("authorization header = %q", got)
	}
	if got := hdr.Get(HeaderSessionToken); got != creds.SessionToken {
		t.Fatalf("session token header = %q", got)
	}
}

func TestDo_MandatoryHeadersWinOverCallerHeaders(t *testing.T) {
	h := newHarness(t)
	creds := h.login(t)

	var hdr http.Header
	srv := jsonServer(t, http.StatusOK, `{}`, &hdr)

	opts := Options{Headers: http.Header{}}
	opts.Headers.Set("Authorization", "Bearer forged")
	opts.Headers.Set(HeaderUserID, "someone-else")
	opts.Headers.Set(sectoken.Header, "stale-token")
	opts.Headers.Set("X-Custom", "kept")

	if resp := h.gw.Fetch(context.Background(), srv.URL, opts); resp == nil {
		t.Fatalf("fetch failed: %v", h.rec.all())
	}

	if got := hdr.Get("Authorization"); got != "Bearer "+creds.AuthToken {
		t.Fatalf("caller overrode authorization: %q", got)
	}
	if got := hdr.Get(HeaderUserID); got != creds.UserID {
		t.Fatalf("caller overrode user id: %q", got)
	}
	if got := hdr.Get(sectoken.Header); got == "stale-token" || got == "" {
		t.Fatalf("caller overrode security token: %q", got)
	}
	if got := hdr.Get("X-Custom"); got != "kept" {
		t.Fatalf("benign caller header dropped: %q", got)
	}
}

func TestFetch_SuccessResolvesParsedBody(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusOK, `{"wallpaper":{"id":"w1","title":"Dunes"}}`, nil)

	resp := h.gw.Fetch(context.Background(), srv.URL+"/api/wallpapers/w1", Options{})
	if resp == nil {
		t.Fatalf("expected response, notices: %v", h.rec.all())
	}
	if string(resp.Body) != `{"wallpaper":{"id":"w1","title":"Dunes"}}` {
		t.Fatalf("body altered: %s", resp.Body)
	}
	if resp.NotModified {
		t.Fatalf("success must not be the not-modified sentinel")
	}
	if len(h.rec.all()) != 0 {
		t.Fatalf("no notices expected on success: %v", h.rec.all())
	}
}

func TestFetch_NotModifiedSentinel(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusNotModified, ``, nil)

	resp := h.gw.Fetch(context.Background(), srv.URL, Options{})
	if resp == nil {
		t.Fatalf("304 must not resolve to nil")
	}
	if !resp.NotModified || resp.Status != http.StatusNotModified {
		t.Fatalf("expected 304 sentinel, got %+v", resp)
	}
	if resp.Message == "" {
		t.Fatalf("sentinel must carry its fixed message")
	}
	if len(resp.Body) != 0 {
		t.Fatalf("sentinel must not carry a body")
	}
}

func TestClassify_InvalidTSTokenSchedulesReload(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusBadRequest, `{"error": "Invalid TS token"}`, nil)

	resp := h.gw.Fetch(context.Background(), srv.URL, Options{})
	if resp != nil {
		t.Fatalf("expected nil, got %+v", resp)
	}
	if h.reloads != 1 {
		t.Fatalf("expected one scheduled reload, got %d", h.reloads)
	}
	if msgs := h.rec.all(); len(msgs) != 1 {
		t.Fatalf("expected one transient notice, got %v", msgs)
	}
	if len(h.raised) != 0 {
		t.Fatalf("token errors must never escalate to the signal")
	}
	// Credentials survive: token errors are resolved by reload, not logout.
	if v, _ := h.store.Get(context.Background(), session.KeyAuthToken); v == "" {
		t.Fatalf("credentials must not be cleared on a TS token error")
	}
}

func TestClassify_ExpiredTSToken401SchedulesReload(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusUnauthorized, `{"error": "TS token expired"}`, nil)

	_ = h.gw.Fetch(context.Background(), srv.URL, Options{})
	if h.reloads != 1 {
		t.Fatalf("expected reload, got %d", h.reloads)
	}
	if len(h.raised) != 0 {
		t.Fatalf("expired TS token must not raise the signal")
	}
}

func TestClassify_LoginRequiredClearsAndRaises(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	_ = h.store.Set(context.Background(), session.KeyDeviceClass, "tablet")

	srv := jsonServer(t, http.StatusUnauthorized, `{"code":"LOGIN_REQUIRED","message":"Session revoked by server"}`, nil)

	resp := h.gw.Fetch(context.Background(), srv.URL, Options{})
	if resp != nil {
		t.Fatalf("expected nil on 401")
	}
	if len(h.raised) != 1 || h.raised[0] != "Session revoked by server" {
		t.Fatalf("expected server message on the signal, got %v", h.raised)
	}
	for _, k := range []string{session.KeyUserID, session.KeyAuthToken, session.KeySessionToken, session.KeyUsername, session.KeyEmail} {
		if v, _ := h.store.Get(context.Background(), k); v != "" {
			t.Fatalf("durable key %q not cleared", k)
		}
	}
	if v, _ := h.store.Get(context.Background(), session.KeyDeviceClass); v != "tablet" {
		t.Fatalf("transient key wiped by 401 clear")
	}
}

func TestClassify_AuthFlagged401ClearsAndRaises(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusUnauthorized, `{"error": "auth header mismatch"}`, nil)

	_ = h.gw.Fetch(context.Background(), srv.URL, Options{})
	if len(h.raised) != 1 {
		t.Fatalf("error mentioning auth must raise the signal, got %v", h.raised)
	}
	if v, _ := h.store.Get(context.Background(), session.KeyUserID); v != "" {
		t.Fatalf("credentials must be cleared")
	}
}

func TestClassify_Generic401OnProtectedRoute(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusUnauthorized, `{"error": "forbidden resource"}`, nil)

	_ = h.gw.Fetch(context.Background(), srv.URL, Options{})
	if msgs := h.rec.all(); len(msgs) != 1 || msgs[0] != msgAccessDenied {
		t.Fatalf("expected access-denied notice, got %v", msgs)
	}
	if len(h.raised) != 1 {
		t.Fatalf("generic 401 on a protected route must also raise the signal")
	}
	if v, _ := h.store.Get(context.Background(), session.KeyUserID); v != "" {
		t.Fatalf("credentials must be cleared on protected generic 401")
	}
}

func TestClassify_Generic401OnPublicRoute(t *testing.T) {
	h := newHarness(t)
	h.path = "/login"
	h.login(t)

	srv := jsonServer(t, http.StatusUnauthorized, `{"error": "bad password"}`, nil)

	_ = h.gw.Fetch(context.Background(), srv.URL, Options{})
	if msgs := h.rec.all(); len(msgs) != 1 || msgs[0] != msgAccessDenied {
		t.Fatalf("expected access-denied notice, got %v", msgs)
	}
	if len(h.raised) != 0 {
		t.Fatalf("public-route 401 must not escalate")
	}
	if v, _ := h.store.Get(context.Background(), session.KeyAuthToken); v == "" {
		t.Fatalf("public-route 401 must not touch credentials")
	}
}

func TestClassify_RateLimitAndServerErrorAreTransient(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusTooManyRequests, `{"error":"slow down"}`, msgTooManyRequests},
		{http.StatusInternalServerError, `this is not json{{`, msgServerError},
		{http.StatusBadGateway, `{"message":"upstream down"}`, "upstream down"},
	}
	for _, tc := range cases {
		h := newHarness(t)
		h.login(t)
		srv := jsonServer(t, tc.status, tc.body, nil)

		resp := h.gw.Fetch(context.Background(), srv.URL, Options{})
		if resp != nil {
			t.Fatalf("status %d: expected nil", tc.status)
		}
		if msgs := h.rec.all(); len(msgs) != 1 || msgs[0] != tc.want {
			t.Fatalf("status %d: notices %v, want [%s]", tc.status, msgs, tc.want)
		}
		if len(h.raised) != 0 {
			t.Fatalf("status %d: must not escalate", tc.status)
		}
		if h.reloads != 0 {
			t.Fatalf("status %d: must not reload", tc.status)
		}
		if v, _ := h.store.Get(context.Background(), session.KeyAuthToken); v == "" {
			t.Fatalf("status %d: credentials must be untouched", tc.status)
		}
	}
}

func TestFetch_NetworkFailureNotifiesConnectivity(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	// A closed server yields a transport-level failure.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	resp := h.gw.Fetch(context.Background(), url, Options{})
	if resp != nil {
		t.Fatalf("expected nil on network failure")
	}
	if msgs := h.rec.all(); len(msgs) != 1 || msgs[0] != msgNetworkError {
		t.Fatalf("expected connectivity notice, got %v", msgs)
	}
}

func TestFetchResult_ExposesStatusAndError(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusConflict, `{"error":"duplicate username","message":"That name is taken"}`, nil)

	res := h.gw.FetchResult(context.Background(), srv.URL, Options{})
	if res.Success {
		t.Fatalf("expected failure result")
	}
	if res.Status != http.StatusConflict {
		t.Fatalf("status = %d", res.Status)
	}
	var se *StatusError
	if !errors.As(res.Err, &se) {
		t.Fatalf("expected StatusError, got %T", res.Err)
	}
	if se.Body.Error != "duplicate username" || se.Body.Message != "That name is taken" {
		t.Fatalf("error body not preserved: %+v", se.Body)
	}
}

func TestFetchResult_SuccessAndNotModified(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	okSrv := jsonServer(t, http.StatusOK, `{"n":1}`, nil)
	res := h.gw.FetchResult(context.Background(), okSrv.URL, Options{})
	if !res.Success || res.NotModified || string(res.Data) != `{"n":1}` {
		t.Fatalf("unexpected result: %+v", res)
	}

	nmSrv := jsonServer(t, http.StatusNotModified, ``, nil)
	res = h.gw.FetchResult(context.Background(), nmSrv.URL, Options{})
	if !res.Success || !res.NotModified || res.Status != http.StatusNotModified {
		t.Fatalf("unexpected 304 result: %+v", res)
	}
}

func TestFetch_MalformedSuccessBodyFallsBack(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	srv := jsonServer(t, http.StatusOK, `{"broken":`, nil)

	resp := h.gw.Fetch(context.Background(), srv.URL, Options{})
	if resp != nil {
		t.Fatalf("expected nil for malformed success body")
	}
	if msgs := h.rec.all(); len(msgs) != 1 || msgs[0] != msgUnexpected {
		t.Fatalf("expected generic fallback notice, got %v", msgs)
	}
}
