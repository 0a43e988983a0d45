package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetToken is a persisted password reset token. The row is deleted when
// the token is consumed, which is what makes reset single-use even though
// the signed token itself stays verifiable until its embedded expiry.
type ResetToken struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ResetTokenRepository defines storage for persisted password reset tokens
type ResetTokenRepository interface {
	Create(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) (ResetToken, error)

	// FindActive returns the stored token matching the account and token
	// value that has not expired as of now; ErrResetTokenNotFound otherwise
	FindActive(ctx context.Context, accountID uuid.UUID, token string, now time.Time) (ResetToken, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresResetTokenRepository implements ResetTokenRepository using PostgreSQL
type PostgresResetTokenRepository struct {
	db *pgxpool.Pool
}

// NewPostgresResetTokenRepository creates a new PostgreSQL-based reset token repository
func NewPostgresResetTokenRepository(db *pgxpool.Pool) *PostgresResetTokenRepository {
	return &PostgresResetTokenRepository{db: db}
}

func (r *PostgresResetTokenRepository) Create(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) (ResetToken, error) {
	query := `
		INSERT INTO password_reset_tokens (id, account_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, account_id, token, created_at, expires_at
	`

	var rt ResetToken
	err := r.db.QueryRow(ctx, query, uuid.New(), accountID, token, expiresAt).
		Scan(&rt.ID, &rt.AccountID, &rt.Token, &rt.CreatedAt, &rt.ExpiresAt)
	if err != nil {
		return ResetToken{}, err
	}
	return rt, nil
}

func (r *PostgresResetTokenRepository) FindActive(ctx context.Context, accountID uuid.UUID, token string, now time.Time) (ResetToken, error) {
	query := `
		SELECT id, account_id, token, created_at, expires_at
		FROM password_reset_tokens
		WHERE account_id = $1
		  AND token = $2
		  AND expires_at > $3
	`

	var rt ResetToken
	err := r.db.QueryRow(ctx, query, accountID, token, now).
		Scan(&rt.ID, &rt.AccountID, &rt.Token, &rt.CreatedAt, &rt.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ResetToken{}, ErrResetTokenNotFound
		}
		return ResetToken{}, err
	}
	return rt, nil
}

func (r *PostgresResetTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE id = $1`, id)
	return err
}
