package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expense-ledger/internal/models"
)

const expenseColumns = "id, user_id, type_id, account_id, date, description, category, amount"

// ListExpenseTypes returns every expense type ordered by id.
func (db *DB) ListExpenseTypes(ctx context.Context) ([]models.ExpenseType, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT id, name, description FROM expense_types ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query expense types: %w", err)
	}
	defer rows.Close()

	types := []models.ExpenseType{}
	for rows.Next() {
		var t models.ExpenseType
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &desc); err != nil {
			return nil, fmt.Errorf("scan expense type: %w", err)
		}
		t.Description = nullableString(desc)
		types = append(types, t)
	}
	return types, rows.Err()
}

// ListAccounts returns every account ordered by id.
func (db *DB) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := db.conn.QueryContext(ctx, "SELECT id, name, description FROM accounts ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		var desc sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &desc); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.Description = nullableString(desc)
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// CreateExpense inserts e and sets its ID. The type and account must exist;
// otherwise ErrInvalidType or ErrInvalidAccount is returned and nothing is written.
func (db *DB) CreateExpense(ctx context.Context, e *models.Expense) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if ok, err := db.exists(ctx, tx, "expense_types", e.TypeID); err != nil {
		return err
	} else if !ok {
		return ErrInvalidType
	}
	if ok, err := db.exists(ctx, tx, "accounts", e.AccountID); err != nil {
		return err
	} else if !ok {
		return ErrInvalidAccount
	}

	err = tx.QueryRowContext(ctx,
		db.rebind(`INSERT INTO expenses (user_id, type_id, account_id, date, description, category, amount)
			VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		e.UserID, e.TypeID, e.AccountID, e.Date, e.Description, e.Category, e.Amount,
	).Scan(&e.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert expense: %w", ErrInvalidReference)
		}
		return fmt.Errorf("insert expense: %w", err)
	}

	return tx.Commit()
}

// exists reports whether table has a row with id. table is never user input.
func (db *DB) exists(ctx context.Context, tx *sql.Tx, table string, id int64) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, db.rebind("SELECT 1 FROM "+table+" WHERE id = ?"), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup %s %d: %w", table, id, err)
	}
	return true, nil
}

// GetExpense retrieves a single expense by ID.
func (db *DB) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+expenseColumns+" FROM expenses WHERE id = ?"),
		id,
	)

	var e models.Expense
	if err := row.Scan(&e.ID, &e.UserID, &e.TypeID, &e.AccountID, &e.Date, &e.Description, &e.Category, &e.Amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}
	return &e, nil
}

// ListExpenses retrieves a user's expenses dated in [from, to), newest first.
// Dates are YYYY-MM-DD strings.
func (db *DB) ListExpenses(ctx context.Context, userID int64, from, to string) ([]models.Expense, error) {
	rows, err := db.conn.QueryContext(ctx,
		db.rebind("SELECT "+expenseColumns+` FROM expenses
			WHERE user_id = ? AND date >= ? AND date < ?
			ORDER BY date DESC, id DESC`),
		userID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.TypeID, &e.AccountID, &e.Date, &e.Description, &e.Category, &e.Amount); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}

	return expenses, rows.Err()
}
