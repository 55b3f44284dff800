package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"expense-ledger/internal/auth"
	"expense-ledger/internal/storage"
)

const (
	msgInvalidEmail       = "Invalid email format"
	msgEmailRegistered    = "Email already registered"
	msgRegistrationFailed = "Registration failed"
	msgInvalidCredentials = "Invalid credentials"
	msgLoginFailed        = "Login failed"
	msgResetRequested     = "If the email is registered, a password reset token has been issued."
	msgInvalidResetToken  = "Invalid or expired reset token"
	msgResetFailed        = "Password reset failed"
	msgPasswordReset      = "Password successfully reset"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and returns an access token.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}

	email := normalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidEmail)
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.ErrorContext(r.Context(), "password hashing failed", "error", err)
		writeError(w, http.StatusOK, msgRegistrationFailed)
		return
	}

	user, err := h.users.CreateUser(r.Context(), email, hash)
	if errors.Is(err, storage.ErrConflict) {
		writeError(w, http.StatusOK, msgEmailRegistered)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "create user failed", "error", err)
		writeError(w, http.StatusOK, msgRegistrationFailed)
		return
	}

	token, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "issue access token failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusOK, msgRegistrationFailed)
		return
	}

	slog.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	writeOK(w, envelope{"token": token})
}

// Login exchanges credentials for an access token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.ErrorContext(r.Context(), "lookup user failed", "error", err)
		writeError(w, http.StatusOK, msgLoginFailed)
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusOK, msgInvalidCredentials)
		return
	}

	token, err := h.tokens.IssueAccessToken(user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "issue access token failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusOK, msgLoginFailed)
		return
	}
	writeOK(w, envelope{"token": token})
}

// RequestReset issues a password reset token. The response never says whether
// the email is registered.
func (h *Handlers) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}

	resp := envelope{"message": msgResetRequested}
	email := normalizeEmail(req.Email)

	user, err := h.users.GetUserByEmail(r.Context(), email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		slog.DebugContext(r.Context(), "reset requested for unknown email")
	case err != nil:
		slog.ErrorContext(r.Context(), "lookup user for reset failed", "error", err)
	default:
		token, err := h.tokens.IssueResetToken(user.ID)
		if err != nil {
			slog.ErrorContext(r.Context(), "issue reset token failed", "user_id", user.ID, "error", err)
			break
		}
		if err := h.opts.Mailer.SendResetToken(r.Context(), email, token); err != nil {
			slog.ErrorContext(r.Context(), "send reset token failed", "user_id", user.ID, "error", err)
		}
		if h.opts.ResetTokenInResponse {
			resp["token"] = token
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ResetPassword sets a new password using a reset token.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, err := h.tokens.VerifyResetToken(req.Token)
	if err != nil {
		slog.InfoContext(r.Context(), "reset token rejected", "error", err)
		writeError(w, http.StatusBadRequest, msgInvalidResetToken)
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgResetFailed)
		return
	}

	err = h.users.UpdatePassword(r.Context(), userID, hash)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "update password failed", "user_id", userID, "error", err)
		writeError(w, http.StatusBadRequest, msgResetFailed)
		return
	}

	slog.InfoContext(r.Context(), "password reset", "user_id", userID)
	writeJSON(w, http.StatusOK, envelope{"message": msgPasswordReset})
}
