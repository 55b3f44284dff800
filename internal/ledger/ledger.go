// Package ledger records expenses against lookup tables and builds reports.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"expense-ledger/internal/cache"
	"expense-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day format used for expense dates.
const DateLayout = "2006-01-02"

// NoCategory labels report rows for expenses without a category.
const NoCategory = "(none)"

const (
	typesCacheKey    = "lookup:expense_types"
	accountsCacheKey = "lookup:accounts"
)

// ErrInvalidInput is returned for malformed expense fields.
var ErrInvalidInput = errors.New("invalid input")

func strPtr(s string) *string { return &s }

// DefaultExpenseTypes are seeded at startup.
var DefaultExpenseTypes = []models.ExpenseType{
	{Name: "Daily", Description: strPtr("Day to day expenses.")},
	{Name: "Entertainment", Description: strPtr("Restaurants, Bars etc")},
	{Name: "Holiday", Description: strPtr("Holiday Expenses")},
}

// DefaultAccounts are seeded at startup.
var DefaultAccounts = []models.Account{
	{Name: "ASB Orbit", Description: strPtr("ASB Orbit Account")},
	{Name: "ANZ Credit", Description: strPtr("ANZ Visa Credit Card")},
}

// Store is the persistence the ledger needs.
type Store interface {
	ListExpenseTypes(ctx context.Context) ([]models.ExpenseType, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CreateExpense(ctx context.Context, e *models.Expense) error
	ListExpenses(ctx context.Context, userID int64, from, to string) ([]models.Expense, error)
}

// Service implements expense operations on behalf of an authenticated owner.
type Service struct {
	store  Store
	lookup cache.Cache
}

// NewService creates a Service. Lookup tables are read through lookup.
func NewService(store Store, lookup cache.Cache) *Service {
	return &Service{store: store, lookup: lookup}
}

// ListTypes returns all expense types.
func (s *Service) ListTypes(ctx context.Context) ([]models.ExpenseType, error) {
	return cached(ctx, s.lookup, typesCacheKey, s.store.ListExpenseTypes)
}

// ListAccounts returns all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return cached(ctx, s.lookup, accountsCacheKey, s.store.ListAccounts)
}

func cached[T any](ctx context.Context, c cache.Cache, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var items []T
	found, err := c.Get(ctx, key, &items)
	if err != nil {
		slog.WarnContext(ctx, "lookup cache read failed", "key", key, "error", err)
	}
	if found && err == nil {
		return items, nil
	}

	items, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, key, items); err != nil {
		slog.WarnContext(ctx, "lookup cache write failed", "key", key, "error", err)
	}
	return items, nil
}

// NewExpense holds the fields a client supplies for an expense.
type NewExpense struct {
	Date        string
	Description *string
	Category    *string
	Amount      decimal.Decimal
	TypeID      int64
	AccountID   int64
}

// AddExpense records an expense for owner. Missing description and category
// are stored as empty strings.
func (s *Service) AddExpense(ctx context.Context, owner *models.User, in NewExpense) (*models.Expense, error) {
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}

	e := &models.Expense{
		UserID:    owner.ID,
		TypeID:    in.TypeID,
		AccountID: in.AccountID,
		Date:      in.Date,
		Amount:    in.Amount,
	}
	if in.Description != nil {
		e.Description = *in.Description
	}
	if in.Category != nil {
		e.Category = *in.Category
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpenses returns owner's expenses dated in [from, to).
func (s *Service) ListExpenses(ctx context.Context, owner *models.User, from, to time.Time) ([]models.Expense, error) {
	return s.store.ListExpenses(ctx, owner.ID, from.Format(DateLayout), to.Format(DateLayout))
}

// MonthWindow returns the first day of today's month and of the next month.
func MonthWindow(today time.Time) (from, to time.Time) {
	from = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	return from, from.AddDate(0, 1, 0)
}

// WeekWindow returns the most recently completed Saturday-to-Saturday week as
// [previousSaturday, lastSaturday). When today is a Saturday, lastSaturday is today.
func WeekWindow(today time.Time) (previousSaturday, lastSaturday time.Time) {
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	// Sunday=0..Saturday=6; Saturday is 0 days back, Sunday 1, Friday 6.
	back := (int(day.Weekday()) + 1) % 7
	lastSaturday = day.AddDate(0, 0, -back)
	return lastSaturday.AddDate(0, 0, -7), lastSaturday
}

// WeeklyReport totals owner's expenses per category over WeekWindow(today).
func (s *Service) WeeklyReport(ctx context.Context, owner *models.User, today time.Time) (*models.WeeklyReport, error) {
	from, to := WeekWindow(today)

	expenses, err := s.store.ListExpenses(ctx, owner.ID, from.Format(DateLayout), to.Format(DateLayout))
	if err != nil {
		return nil, fmt.Errorf("weekly report: %w", err)
	}

	totals := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		category := e.Category
		if category == "" {
			category = NoCategory
		}
		totals[category] = totals[category].Add(e.Amount)
	}

	data := make([]models.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		data = append(data, models.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Category < data[j].Category })

	return &models.WeeklyReport{
		From: from.Format(DateLayout),
		To:   to.Format(DateLayout),
		Data: data,
	}, nil
}
