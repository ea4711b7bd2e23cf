package notifier

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// UserDirectory resolves the recipient address for a user id.
type UserDirectory interface {
	Email(ctx context.Context, userID string) (string, error)
}

type PgUsers struct{ DB *pgxpool.Pool }

func (r *PgUsers) Email(ctx context.Context, userID string) (string, error) {
	var email string
	err := r.DB.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return email, err
}
