package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/theLastOfCats/series-browser/internal/model"
)

// CreateUser returns ErrConflict when the email is taken.
func (db *DB) CreateUser(ctx context.Context, displayName, email, passwordHash string) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO users (display_name, email, password_hash) VALUES (?, ?, ?)`,
		displayName, email, passwordHash)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := db.QueryRowContext(ctx,
		`SELECT id, display_name, email, password_hash FROM users WHERE email = ?`, email).
		Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (db *DB) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
