package stub

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"wallshare/internal/gateway"
	"wallshare/internal/sectoken"

	"github.com/gin-gonic/gin"
)

// RequireTSToken enforces the per-request security token on every endpoint,
// public and protected alike. The rejection bodies are the exact strings
// the gateway classifies on.
func RequireTSToken(maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(sectoken.Header)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gateway.ErrMsgMissingTSToken})
			return
		}
		d, err := sectoken.Decode(raw)
		if err != nil || d.GeneratedAt == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": gateway.ErrMsgInvalidTSToken})
			return
		}
		if age := d.Age(time.Now()); age > maxAge || age < -maxAge {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gateway.ErrMsgTSTokenExpired})
			return
		}
		c.Next()
	}
}

// RequireSession guards protected endpoints: all three credential headers
// must be present and consistent. Failures answer with LOGIN_REQUIRED so
// the client knows the session is unrecoverable.
func RequireSession(tm *TokenManager, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(gateway.HeaderUserID)
		sessionToken := c.GetHeader(gateway.HeaderSessionToken)
		authz := strings.TrimSpace(c.GetHeader("Authorization"))

		if userID == "" || sessionToken == "" || !strings.HasPrefix(authz, "Bearer ") {
			loginRequired(c, "Authentication required")
			return
		}
		bearer := strings.TrimPrefix(authz, "Bearer ")

		tokenUser, err := tm.Verify(bearer, time.Now())
		if err != nil || tokenUser != userID {
			loginRequired(c, "Your session is no longer valid. Please log in again.")
			return
		}
		sessUser, ok := store.SessionUser(sessionToken)
		if !ok || sessUser != userID {
			loginRequired(c, "Your session is no longer valid. Please log in again.")
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

func loginRequired(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    gateway.CodeLoginRequired,
		"error":   "Authentication required",
		"message": msg,
	})
}

// rateLimiter is a naive fixed-window counter per client IP. Enough to let
// clients exercise their 429 handling locally.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	seen   map[string]*windowCount
}

type windowCount struct {
	start time.Time
	n     int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{limit: limit, window: window, seen: make(map[string]*windowCount)}
}

func (rl *rateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.seen[key]
	if !ok || now.Sub(w.start) > rl.window {
		rl.seen[key] = &windowCount{start: now, n: 1}
		return true
	}
	w.n++
	return w.n <= rl.limit
}

// RateLimit rejects clients that exceed limit requests per window.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	rl := newRateLimiter(limit, window)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP(), time.Now()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
