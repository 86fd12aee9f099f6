package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the wallshare client and the stub backend.
// All values come from env (or an env-file loaded at startup).
// No business logic should depend on raw environment variables.
type Config struct {
	App     AppConfig
	API     APIConfig
	Session SessionConfig
	Redis   RedisConfig
	Stub    StubConfig
}

type AppConfig struct {
	Env string
}

type APIConfig struct {
	// BaseURL is the backend the gateway talks to,
	// e.g. https://api.wallshare.example or http://localhost:8843 for the stub.
	BaseURL string

	// RequestTimeout bounds every outbound call. A hung request must not
	// block its caller indefinitely.
	RequestTimeout time.Duration
}

type SessionConfig struct {
	// Backend selects the credential store: file, memory or redis.
	Backend string

	// FilePath is the session file location for the file backend.
	FilePath string
}

type RedisConfig struct {
	Host string
	Port int
}

type StubConfig struct {
	Port int

	// JWTSecret signs the bearer tokens the stub issues at login.
	JWTSecret string

	// TokenTTL is the lifetime of issued bearer tokens.
	TokenTTL time.Duration

	// TSTokenMaxAge is how stale a per-request security token may be
	// before the stub rejects it as expired.
	TSTokenMaxAge time.Duration
}

const (
	SessionBackendFile   = "file"
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("WALLSHARE_ENV"))
	if c.App.Env == "" {
		c.App.Env = "local"
	}

	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("WALLSHARE_API_BASE_URL")), "/")
	c.API.RequestTimeout = optDuration("WALLSHARE_REQUEST_TIMEOUT", 30*time.Second)

	c.Session.Backend = strings.TrimSpace(os.Getenv("WALLSHARE_SESSION_BACKEND"))
	if c.Session.Backend == "" {
		c.Session.Backend = SessionBackendFile
	}
	c.Session.FilePath = strings.TrimSpace(os.Getenv("WALLSHARE_SESSION_FILE"))
	if c.Session.FilePath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Session.FilePath = home + "/.wallshare/session.json"
		}
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if v := strings.TrimSpace(os.Getenv("REDIS_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("REDIS_PORT must be an integer, got %q", v))
		}
		c.Redis.Port = n
	}

	if v := strings.TrimSpace(os.Getenv("STUB_PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			parseErrs = append(parseErrs, fmt.Errorf("STUB_PORT must be an integer, got %q", v))
		}
		c.Stub.Port = n
	} else {
		c.Stub.Port = 8843
	}
	c.Stub.JWTSecret = os.Getenv("STUB_JWT_SECRET")
	c.Stub.TokenTTL = optDuration("STUB_TOKEN_TTL", 15*time.Minute)
	c.Stub.TSTokenMaxAge = optDuration("STUB_TS_TOKEN_MAX_AGE", 2*time.Minute)

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("WALLSHARE_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}

	switch c.Session.Backend {
	case SessionBackendFile:
		if c.Session.FilePath == "" {
			errs = append(errs, errors.New("WALLSHARE_SESSION_FILE is required for the file session backend"))
		}
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required for the redis session backend"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("WALLSHARE_SESSION_BACKEND must be one of file, memory, redis, got %q", c.Session.Backend))
	}

	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("WALLSHARE_REQUEST_TIMEOUT must be positive"))
	}

	if c.Stub.Port <= 0 || c.Stub.Port > 65535 {
		errs = append(errs, fmt.Errorf("STUB_PORT must be a valid port, got %d", c.Stub.Port))
	}
	if c.IsProduction() && c.Stub.JWTSecret == "" {
		// The stub is a dev tool, but never let it run unsigned in production.
		errs = append(errs, errors.New("STUB_JWT_SECRET is required in production"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) StubAddr() string {
	return fmt.Sprintf(":%d", c.Stub.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func optDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
