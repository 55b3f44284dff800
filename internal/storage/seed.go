package storage

import (
	"context"
	"fmt"

	"expense-ledger/internal/models"
)

// SeedLookups inserts the given expense types and accounts, skipping names
// that already exist.
func (db *DB) SeedLookups(ctx context.Context, types []models.ExpenseType, accounts []models.Account) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range types {
		if _, err := tx.ExecContext(ctx,
			db.rebind("INSERT INTO expense_types (name, description) VALUES (?, ?) ON CONFLICT (name) DO NOTHING"),
			t.Name, t.Description,
		); err != nil {
			return fmt.Errorf("seed expense type %s: %w", t.Name, err)
		}
	}
	for _, a := range accounts {
		if _, err := tx.ExecContext(ctx,
			db.rebind("INSERT INTO accounts (name, description) VALUES (?, ?) ON CONFLICT (name) DO NOTHING"),
			a.Name, a.Description,
		); err != nil {
			return fmt.Errorf("seed account %s: %w", a.Name, err)
		}
	}

	return tx.Commit()
}
