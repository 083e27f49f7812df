package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/nomada-travel/nomada/backend/internal/model/account"
)

var (
	// ErrUserNotFound is returned when no account matches the email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")
)

// CreateUser inserts a new account and returns its id.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		name, email, passwordHash, time.Now().Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrEmailTaken
		}
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByEmail loads the account registered under email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (account.User, error) {
	var (
		u       account.User
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`,
		email,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return account.User{}, ErrUserNotFound
	}
	if err != nil {
		return account.User{}, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}
