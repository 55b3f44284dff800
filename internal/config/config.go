// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort        = "8080"
	defaultDatabaseURL = "expenses.db"
	defaultCacheTTL    = 10 * time.Minute
	// DevJWTSecret signs tokens in development when JWT_SECRET is unset.
	DevJWTSecret = "insecure-development-secret"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// ErrMissingSecret is returned when production starts without JWT_SECRET.
var ErrMissingSecret = errors.New("JWT_SECRET must be set in production")

// Config holds process-wide settings. It is loaded once at startup and passed
// explicitly to the components that need it.
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	JWTSecret   string
	LogLevel    slog.Level

	CORSAllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	MailjetAPIKey      string
	MailjetAPISecret   string
	MailjetSenderEmail string
	MailjetSenderName  string

	// ResetTokenInResponse returns reset tokens in the request-reset response
	// instead of relying only on email.
	ResetTokenInResponse bool
}

// Production reports whether the process runs in production mode.
func (c Config) Production() bool { return c.Env == EnvProduction }

// MailjetConfigured reports whether reset tokens can be emailed.
func (c Config) MailjetConfigured() bool {
	return c.MailjetAPIKey != "" && c.MailjetAPISecret != "" && c.MailjetSenderEmail != ""
}

// Load reads a .env file if present, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Env:                orDefault(getenv("APP_ENV"), EnvDevelopment),
		Port:               orDefault(getenv("PORT"), defaultPort),
		DatabaseURL:        orDefault(getenv("DATABASE_URL"), defaultDatabaseURL),
		JWTSecret:          getenv("JWT_SECRET"),
		CORSAllowedOrigins: splitList(orDefault(getenv("CORS_ALLOWED_ORIGINS"), "*")),
		RedisAddr:          getenv("REDIS_ADDR"),
		RedisPassword:      getenv("REDIS_PASSWORD"),
		CacheTTL:           defaultCacheTTL,
		MailjetAPIKey:      getenv("MAILJET_API_KEY"),
		MailjetAPISecret:   getenv("MAILJET_API_SECRET"),
		MailjetSenderEmail: getenv("MAILJET_SENDER_EMAIL"),
		MailjetSenderName:  getenv("MAILJET_SENDER_NAME"),
	}

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return Config{}, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, cfg.Env)
	}

	if cfg.JWTSecret == "" {
		if cfg.Production() {
			return Config{}, ErrMissingSecret
		}
		cfg.JWTSecret = DevJWTSecret
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	if v := getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if v := getenv("LOOKUP_CACHE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("LOOKUP_CACHE_TTL: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	cfg.ResetTokenInResponse = !cfg.Production()
	if v := getenv("RESET_TOKEN_IN_RESPONSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("RESET_TOKEN_IN_RESPONSE: %w", err)
		}
		cfg.ResetTokenInResponse = b
	}

	return cfg, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
