package otp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoCode is returned by repositories when no code exists for an account
var ErrNoCode = errors.New("no one-time code for account")

// OneTimeCode represents a stored login code. At most one code per account is
// live at a time under correct operation; issuing a new code removes the old
// ones.
type OneTimeCode struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Code      string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Repository defines the storage operations for one-time codes
type Repository interface {
	// Replace removes any existing codes for the account and stores the new
	// one as a single transactional unit, so concurrent logins cannot leave
	// two live codes behind
	Replace(ctx context.Context, accountID uuid.UUID, code string, expiresAt time.Time) (OneTimeCode, error)

	// FindLatestByAccount returns the code with the latest expiry for the
	// account (last-issued-wins tie-break), or ErrNoCode
	FindLatestByAccount(ctx context.Context, accountID uuid.UUID) (OneTimeCode, error)

	// Delete removes a consumed code
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-based OTP repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace deletes existing codes for the account and inserts the new one in
// one transaction
func (r *PostgresRepository) Replace(ctx context.Context, accountID uuid.UUID, code string, expiresAt time.Time) (OneTimeCode, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return OneTimeCode{}, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM one_time_codes WHERE account_id = $1`, accountID)
	if err != nil {
		return OneTimeCode{}, err
	}

	query := `
		INSERT INTO one_time_codes (id, account_id, code, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, account_id, code, created_at, expires_at
	`

	var c OneTimeCode
	err = tx.QueryRow(ctx, query, uuid.New(), accountID, code, expiresAt).Scan(
		&c.ID, &c.AccountID, &c.Code, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return OneTimeCode{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return OneTimeCode{}, err
	}
	return c, nil
}

// FindLatestByAccount returns the code with the latest expiry for the account
func (r *PostgresRepository) FindLatestByAccount(ctx context.Context, accountID uuid.UUID) (OneTimeCode, error) {
	query := `
		SELECT id, account_id, code, created_at, expires_at
		FROM one_time_codes
		WHERE account_id = $1
		ORDER BY expires_at DESC
		LIMIT 1
	`

	var c OneTimeCode
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&c.ID, &c.AccountID, &c.Code, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OneTimeCode{}, ErrNoCode
		}
		return OneTimeCode{}, err
	}
	return c, nil
}

// Delete removes a code by id
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM one_time_codes WHERE id = $1`, id)
	return err
}
