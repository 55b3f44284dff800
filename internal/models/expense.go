package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// jsonNumber renders d as a bare JSON number rather than decimal's quoted default.
func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// ExpenseType is a lookup row classifying an expense.
type ExpenseType struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Account is a lookup row naming where the money came from.
type Account struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Expense represents a financial expense record.
// Date is a calendar day formatted as YYYY-MM-DD.
type Expense struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	TypeID      int64           `json:"type_id"`
	AccountID   int64           `json:"account_id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
}

// MarshalJSON writes Amount as a JSON number.
func (e Expense) MarshalJSON() ([]byte, error) {
	type plain Expense
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(e), jsonNumber(e.Amount)})
}

// CategoryTotal is one row of a report.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MarshalJSON writes Total as a JSON number.
func (c CategoryTotal) MarshalJSON() ([]byte, error) {
	type plain CategoryTotal
	return json.Marshal(struct {
		plain
		Total json.Number `json:"total"`
	}{plain(c), jsonNumber(c.Total)})
}

// WeeklyReport sums an owner's expenses over the half-open range [From, To).
type WeeklyReport struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Data []CategoryTotal `json:"data"`
}
