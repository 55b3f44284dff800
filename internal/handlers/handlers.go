package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/ledger"
	"expense-ledger/internal/mail"
	"expense-ledger/internal/models"
)

// Context key type to avoid collisions.
type contextKey string

// UserContextKey is the context key for the authenticated user.
const UserContextKey contextKey = "user"

// UserStore is the user directory the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries optional Handlers dependencies.
type Options struct {
	// Mailer delivers reset tokens. Defaults to mail.Discard.
	Mailer mail.ResetMailer
	// ResetTokenInResponse includes reset tokens in request-reset responses.
	ResetTokenInResponse bool
	// Health is pinged by the health check. Nil means always healthy.
	Health Pinger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	users  UserStore
	ledger *ledger.Service
	tokens *auth.TokenService
	guard  *auth.Guard
	opts   Options
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(users UserStore, ledgerSvc *ledger.Service, tokens *auth.TokenService, opts Options) *Handlers {
	if opts.Mailer == nil {
		opts.Mailer = mail.Discard{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handlers{
		users:  users,
		ledger: ledgerSvc,
		tokens: tokens,
		guard:  auth.NewGuard(tokens, users),
		opts:   opts,
	}
}

// GetUserFromContext retrieves the authenticated user from request context.
func GetUserFromContext(r *http.Request) *models.User {
	if user, ok := r.Context().Value(UserContextKey).(*models.User); ok {
		return user
	}
	return nil
}

// AuthMiddleware wraps handlers to require a valid bearer access token.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w)
			return
		}

		user, err := h.guard.Authenticate(r.Context(), token)
		if err != nil {
			slog.InfoContext(r.Context(), "token validation failed", "path", r.URL.Path, "error", err)
			unauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "Invalid Authentication Token")
}

// Health reports whether the database is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.opts.Health != nil {
		if err := h.opts.Health.Ping(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	writeOK(w, envelope{})
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "path", r.URL.Path, "method", r.Method, "error", err)
	writeError(w, http.StatusInternalServerError, msgInternalError)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
