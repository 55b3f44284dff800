package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"expense-ledger/internal/ledger"
	"expense-ledger/internal/storage"

	"github.com/shopspring/decimal"
)

// ListExpenseTypes returns the expense type lookup table.
func (h *Handlers) ListExpenseTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.ledger.ListTypes(r.Context())
	if err != nil {
		internalError(w, r, "list expense types failed", err)
		return
	}
	writeOK(w, envelope{"types": types})
}

// ListAccounts returns the account lookup table.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.ledger.ListAccounts(r.Context())
	if err != nil {
		internalError(w, r, "list accounts failed", err)
		return
	}
	writeOK(w, envelope{"accounts": accounts})
}

type expenseRequest struct {
	Date        string           `json:"date"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	TypeID      *int64           `json:"type_id"`
	AccountID   *int64           `json:"account_id"`
}

// CreateExpense records an expense for the authenticated user.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, msgInvalidBody)
		return
	}
	if req.Date == "" || req.Amount == nil || req.TypeID == nil || req.AccountID == nil {
		writeError(w, http.StatusUnprocessableEntity, "date, amount, type_id and account_id are required")
		return
	}

	expense, err := h.ledger.AddExpense(r.Context(), user, ledger.NewExpense{
		Date:        req.Date,
		Description: req.Description,
		Category:    req.Category,
		Amount:      *req.Amount,
		TypeID:      *req.TypeID,
		AccountID:   *req.AccountID,
	})
	switch {
	case err == nil:
		writeOK(w, envelope{"id": expense.ID})
	case errors.Is(err, ledger.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, "Invalid date, expected YYYY-MM-DD")
	case errors.Is(err, storage.ErrInvalidType):
		writeError(w, http.StatusOK, "Invalid expense type")
	case errors.Is(err, storage.ErrInvalidAccount):
		writeError(w, http.StatusOK, "Invalid account")
	case errors.Is(err, storage.ErrInvalidReference):
		writeError(w, http.StatusOK, "Invalid reference")
	default:
		slog.ErrorContext(r.Context(), "create expense failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusOK, "Failed to save expense")
	}
}

// ListExpenses returns the authenticated user's expenses in [from, to). Both
// query parameters are optional and default to the current month.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	from, to := ledger.MonthWindow(h.opts.Now())

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(ledger.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(ledger.DateLayout, v)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		to = t
	}

	expenses, err := h.ledger.ListExpenses(r.Context(), user, from, to)
	if err != nil {
		internalError(w, r, "list expenses failed", err)
		return
	}
	writeOK(w, envelope{"expenses": expenses})
}

// WeeklyReport totals the authenticated user's spending per category over the
// last completed Saturday-to-Saturday week.
func (h *Handlers) WeeklyReport(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	report, err := h.ledger.WeeklyReport(r.Context(), user, h.opts.Now())
	if err != nil {
		internalError(w, r, "weekly report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
