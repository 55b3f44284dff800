package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/cache"
	"expense-ledger/internal/config"
	"expense-ledger/internal/handlers"
	"expense-ledger/internal/ledger"
	"expense-ledger/internal/mail"
	"expense-ledger/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	startupTimeout    = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	requestTimeout    = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
	corsMaxAge        = 300
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	if cfg.JWTSecret == config.DevJWTSecret {
		slog.Warn("JWT_SECRET not set, signing tokens with the insecure development secret")
	}

	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database setup failed: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if err := db.SeedLookups(ctx, ledger.DefaultExpenseTypes, ledger.DefaultAccounts); err != nil {
		return fmt.Errorf("seed lookup tables: %w", err)
	}

	lookupCache, closeCache, err := setupCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	h := handlers.NewHandlers(db, ledger.NewService(db, lookupCache), auth.NewTokenService(cfg.JWTSecret), handlers.Options{
		Mailer:               setupMailer(cfg),
		ResetTokenInResponse: cfg.ResetTokenInResponse,
		Health:               db,
	})

	return startServer(cfg.Port, setupRouter(h, cfg.CORSAllowedOrigins))
}

func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Production() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func setupCache(ctx context.Context, cfg config.Config) (cache.Cache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.CacheTTL), func() {}, nil
	}

	rc, err := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Prefix:   "expense-ledger:",
		TTL:      cfg.CacheTTL,
	})
	if err != nil {
		return nil, nil, err
	}
	slog.Info("lookup cache backed by redis", "addr", cfg.RedisAddr)
	return rc, func() { rc.Close() }, nil
}

func setupMailer(cfg config.Config) mail.ResetMailer {
	if !cfg.MailjetConfigured() {
		if cfg.Production() {
			slog.Warn("MAILJET_API_KEY not set, reset tokens will not be emailed")
		}
		return mail.Discard{}
	}
	return mail.NewMailjet(cfg.MailjetAPIKey, cfg.MailjetAPISecret, mail.Sender{
		Email: cfg.MailjetSenderEmail,
		Name:  cfg.MailjetSenderName,
	})
}

func setupRouter(h *handlers.Handlers, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         corsMaxAge,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/request-reset", h.RequestReset)
		r.Post("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Get("/expense-types", h.ListExpenseTypes)
			r.Get("/accounts", h.ListAccounts)
			r.Post("/expenses", h.CreateExpense)
			r.Get("/expenses", h.ListExpenses)
			r.Get("/report", h.WeeklyReport)
		})
	})

	r.Get("/healthz", h.Health)

	return r
}

func startServer(port string, router http.Handler) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-shutdownSignal:
	}
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
