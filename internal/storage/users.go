package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expense-ledger/internal/models"
)

const userColumns = "id, email, password_hash, created_at"

// CreateUser creates a new user with the given email and password hash. The
// email's unique constraint decides races between concurrent registrations.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		db.rebind("INSERT INTO users (email, password_hash) VALUES (?, ?) RETURNING id"),
		email, passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s: %w", email, ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"),
		id,
	)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email. Callers normalize case.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind("SELECT "+userColumns+" FROM users WHERE email = ?"),
		email,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var createdAt sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = createdAt.Time
	return &u, nil
}

// UpdatePassword replaces a user's password hash.
func (db *DB) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		db.rebind("UPDATE users SET password_hash = ? WHERE id = ?"),
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
