package stub

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"wallshare/internal/config"
	"wallshare/internal/gateway"
	"wallshare/internal/sectoken"
)

func testRouter(t *testing.T) (http.Handler, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tm, err := NewTokenManager("test-secret", 15*time.Minute)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	store := NewStore()
	cfg := config.StubConfig{TSTokenMaxAge: 2 * time.Minute}
	return routerWith(cfg, slog.Default(), tm, store), store
}

var tokens = sectoken.New(sectoken.Fingerprint{UserAgent: "stub-test", Locale: "en", Platform: "test"})

func doJSON(t *testing.T, h http.Handler, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sectoken.Header, tokens.Token())
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func TestTSTokenMiddleware_ContractStrings(t *testing.T) {
	h, _ := testRouter(t)

	// Missing token.
	w := doJSON(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "demo@wallshare.local", "password": "wallshare"},
		func(r *http.Request) { r.Header.Del(sectoken.Header) })
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing token status = %d", w.Code)
	}
	var eb gateway.ErrorBody
	decodeBody(t, w, &eb)
	if eb.Error != gateway.ErrMsgMissingTSToken {
		t.Fatalf("missing token error = %q", eb.Error)
	}

	// Undecodable token.
	w = doJSON(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "x", "password": "y"},
		func(r *http.Request) { r.Header.Set(sectoken.Header, "!!garbage!!") })
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid token status = %d", w.Code)
	}
	decodeBody(t, w, &eb)
	if eb.Error != gateway.ErrMsgInvalidTSToken {
		t.Fatalf("invalid token error = %q", eb.Error)
	}

	// Stale token.
	stale := sectoken.NewWithClock(sectoken.Fingerprint{}, func() time.Time { return time.Now().Add(-time.Hour) })
	w = doJSON(t, h, http.MethodPost, "/api/auth/login", map[string]string{"email": "x", "password": "y"},
		func(r *http.Request) { r.Header.Set(sectoken.Header, stale.Token()) })
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("stale token status = %d", w.Code)
	}
	decodeBody(t, w, &eb)
	if eb.Error != gateway.ErrMsgTSTokenExpired {
		t.Fatalf("stale token error = %q", eb.Error)
	}
}

func TestProtected_WithoutCredentialsIsLoginRequired(t *testing.T) {
	h, _ := testRouter(t)

	w := doJSON(t, h, http.MethodGet, "/api/wallpapers/feed", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	var eb gateway.ErrorBody
	decodeBody(t, w, &eb)
	if eb.Code != gateway.CodeLoginRequired {
		t.Fatalf("code = %q, want LOGIN_REQUIRED", eb.Code)
	}
}

type loginResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
	AuthToken    string `json:"auth_token"`
	SessionToken string `json:"session_token"`
}

func login(t *testing.T, h http.Handler) loginResponse {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/api/auth/login", map[string]string{
		"email": "demo@wallshare.local", "password": "wallshare",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	var out loginResponse
	decodeBody(t, w, &out)
	if out.User.ID == "" || out.AuthToken == "" || out.SessionToken == "" {
		t.Fatalf("incomplete login payload: %+v", out)
	}
	return out
}

func withCreds(acc loginResponse) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(gateway.HeaderUserID, acc.User.ID)
		r.Header.Set("Authorization", "Bearer "+acc.AuthToken)
		r.Header.Set(gateway.HeaderSessionToken, acc.SessionToken)
	}
}

func TestFeed_ETagYields304(t *testing.T) {
	h, _ := testRouter(t)
	acc := login(t, h)

	w := doJSON(t, h, http.MethodGet, "/api/wallpapers/feed?page=1", nil, withCreds(acc))
	if w.Code != http.StatusOK {
		t.Fatalf("feed status = %d body=%s", w.Code, w.Body.String())
	}
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("feed must set an ETag")
	}
	var page struct {
		Wallpapers []json.RawMessage `json:"wallpapers"`
		Page       int               `json:"page"`
		TotalPages int               `json:"total_pages"`
	}
	decodeBody(t, w, &page)
	if len(page.Wallpapers) == 0 {
		t.Fatalf("seeded feed must not be empty")
	}

	w = doJSON(t, h, http.MethodGet, "/api/wallpapers/feed?page=1", nil, func(r *http.Request) {
		withCreds(acc)(r)
		r.Header.Set("If-None-Match", etag)
	})
	if w.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", w.Code)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	h, _ := testRouter(t)
	acc := login(t, h)

	w := doJSON(t, h, http.MethodPost, "/api/auth/logout", map[string]string{}, withCreds(acc))
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	w = doJSON(t, h, http.MethodGet, "/api/wallpapers/feed", nil, withCreds(acc))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("revoked session must 401, got %d", w.Code)
	}
	var eb gateway.ErrorBody
	decodeBody(t, w, &eb)
	if eb.Code != gateway.CodeLoginRequired {
		t.Fatalf("code = %q", eb.Code)
	}
}

func TestSignupVerifyFlow(t *testing.T) {
	h, store := testRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/auth/signup", map[string]string{
		"email": "new@wallshare.local", "password": "hunter22",
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d body=%s", w.Code, w.Body.String())
	}

	otp := store.signupOTP["new@wallshare.local"]
	if otp == "" {
		t.Fatalf("signup must park an OTP")
	}

	w = doJSON(t, h, http.MethodPost, "/api/auth/verify-email", map[string]string{
		"email": "new@wallshare.local", "otp": otp,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify status = %d body=%s", w.Code, w.Body.String())
	}
	var out loginResponse
	decodeBody(t, w, &out)
	if out.User.Email != "new@wallshare.local" || out.AuthToken == "" {
		t.Fatalf("verification must log the account in: %+v", out)
	}
}

func TestFollowAndFollowers(t *testing.T) {
	h, store := testRouter(t)
	acc := login(t, h)

	otp := store.CreateUser("b@wallshare.local", "pw")
	other, ok := store.VerifySignup("b@wallshare.local", otp)
	if !ok {
		t.Fatalf("setup: verify failed")
	}

	w := doJSON(t, h, http.MethodPost, "/api/users/"+other.ID+"/follow", map[string]string{}, withCreds(acc))
	if w.Code != http.StatusOK {
		t.Fatalf("follow status = %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodGet, "/api/users/"+other.ID+"/followers", nil, withCreds(acc))
	if w.Code != http.StatusOK {
		t.Fatalf("followers status = %d", w.Code)
	}
	var resp struct {
		Users []struct {
			UserID string `json:"user_id"`
		} `json:"users"`
	}
	decodeBody(t, w, &resp)
	if len(resp.Users) != 1 || resp.Users[0].UserID != acc.User.ID {
		t.Fatalf("unexpected followers: %+v", resp.Users)
	}

	// Following yourself is rejected.
	w = doJSON(t, h, http.MethodPost, "/api/users/"+acc.User.ID+"/follow", map[string]string{}, withCreds(acc))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("self-follow status = %d", w.Code)
	}
}
