// Package cli implements the wallshare command-line client. Every command
// builds the same wired pipeline: config -> session store -> security-token
// generator -> gateway -> typed api client. The command's logical route
// decides whether the gateway treats its calls as public or protected.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"

	"wallshare/internal/api"
	"wallshare/internal/config"
	"wallshare/internal/gateway"
	"wallshare/internal/notify"
	"wallshare/internal/sectoken"
	"wallshare/internal/session"
	"wallshare/internal/signal"
	"wallshare/pkg/logger"
	"wallshare/pkg/utils"
)

const version = "0.3.0"

// App is one fully wired command invocation.
type App struct {
	Cfg    config.Config
	Log    *slog.Logger
	Store  session.Store
	Client *api.Client

	closers []func() error
}

// newApp wires the client stack for a command whose logical route is
// routePath. Public routes ("/login", "/signup", ...) skip the credential
// check; everything else requires a stored session.
func newApp(ctx context.Context, routePath string) (*App, error) {
	// A missing .env is fine; explicit env always wins.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	a := &App{Cfg: cfg, Log: log}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store

	env := &notify.FuncEnv{
		PathFunc: func() string { return routePath },
		ReloadFunc: func() {
			fmt.Fprintln(os.Stderr, "security token rejected; re-run the command")
		},
		NavigateRootFunc: func() {
			fmt.Fprintln(os.Stderr, "run `wallshare login` to start a new session")
		},
	}

	// No overlay in a terminal: the fallback prints the message and points
	// the user back to the entry route.
	sig := signal.New(func(msg string) {
		fmt.Fprintf(os.Stderr, "session expired: %s\n", msg)
		env.NavigateRoot()
	})

	gw, err := gateway.New(gateway.Config{
		Tokens:   sectoken.New(hostFingerprint()),
		Store:    store,
		Signal:   sig,
		Notifier: &notify.WriterNotifier{W: os.Stderr},
		Env:      env,
		Client:   &http.Client{Timeout: cfg.API.RequestTimeout},
		Log:      log,
	})
	if err != nil {
		return nil, err
	}

	base := cfg.API.BaseURL
	if flagAPIURL != "" {
		base = flagAPIURL
	}
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", cfg.Stub.Port)
	}

	client, err := api.New(gw, store, base)
	if err != nil {
		return nil, err
	}
	a.Client = client
	return a, nil
}

// openStore picks the session backend from config.
func (a *App) openStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return session.NewMemoryStore(), nil

	case config.SessionBackendRedis:
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
		if err != nil {
			return nil, fmt.Errorf("open redis session store: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedisStore(rdb, "cli")

	default:
		return session.NewFileStore(cfg.Session.FilePath)
	}
}

// Close releases backend connections opened by the store.
func (a *App) Close() {
	for _, fn := range a.closers {
		if err := fn(); err != nil {
			a.Log.Warn("close failed", "err", err)
		}
	}
}

// hostFingerprint captures the environment values the token embeds,
// the CLI equivalents of what a browser would report.
func hostFingerprint() sectoken.Fingerprint {
	locale := os.Getenv("LANG")
	if locale == "" {
		locale = "en_US"
	}
	_, offsetSeconds := time.Now().Zone()
	return sectoken.Fingerprint{
		UserAgent:       "wallshare-cli/" + version,
		Locale:          locale,
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
		TZOffsetMinutes: offsetSeconds / 60,
	}
}
