// Package stub is a development backend implementing the server side of the
// gateway's contract: the TS-token check, the three credential headers,
// LOGIN_REQUIRED rejections, feed ETags and a 429 path. It exists so the
// client pipeline can be exercised end to end without the real platform.
package stub

import (
	"log/slog"
	"net/http"
	"time"

	"wallshare/internal/config"
	"wallshare/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router builds the stub's gin engine with all routes and middleware wired.
func Router(cfg config.StubConfig, log *slog.Logger) (*gin.Engine, error) {
	tm, err := NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	return routerWith(cfg, log, tm, NewStore()), nil
}

func routerWith(cfg config.StubConfig, log *slog.Logger, tm *TokenManager, store *Store) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(RateLimit(120, time.Minute))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := Handlers{Tokens: tm, Store: store}

	api := r.Group("/api")
	api.Use(RequireTSToken(cfg.TSTokenMaxAge))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Signup)
			auth.POST("/verify-email", h.VerifyEmail)
			auth.POST("/login", h.Login)
			auth.POST("/oauth/callback", h.OAuthCallback)
			auth.POST("/forgot-password", h.ForgotPassword)
			auth.POST("/reset-password", h.ResetPassword)
		}

		protected := api.Group("")
		protected.Use(RequireSession(tm, store))
		{
			protected.POST("/auth/logout", h.Logout)

			protected.GET("/profile", h.Profile)
			protected.POST("/profile/setup", h.SetupProfile)
			protected.PUT("/settings", h.UpdateSettings)

			protected.GET("/wallpapers/feed", h.Feed)
			protected.GET("/wallpapers/:id", h.Wallpaper)
			protected.POST("/wallpapers", h.Upload)

			protected.POST("/users/:id/follow", h.Follow)
			protected.DELETE("/users/:id/follow", h.Unfollow)
			protected.GET("/users/:id/followers", h.Followers)
			protected.GET("/users/:id/following", h.Following)

			protected.GET("/analytics/summary", h.Stats)
		}
	}

	return r
}
