package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateParams represents parameters for creating an account
type CreateParams struct {
	Fullname     string
	Email        string
	Phone        string
	PhoneValid   bool
	PasswordHash string
	Role         Role
}

// Repository defines the account operations required by the credential
// workflows. Uniqueness of email and phone is enforced by the store, not by
// check-then-create in application code.
type Repository interface {
	// FindByEmailOrPhone looks up an account by identifier; matching is
	// case-insensitive on email and exact on phone
	FindByEmailOrPhone(ctx context.Context, identifier string) (Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (Account, error)
	Create(ctx context.Context, params CreateParams) (Account, error)
	SetVerified(ctx context.Context, id uuid.UUID) error
	SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-based account repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, fullname, email, phone, password_hash, is_verified, role, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	var phone pgtype.Text
	var createdAt, updatedAt time.Time
	err := row.Scan(&a.ID, &a.Fullname, &a.Email, &phone, &a.PasswordHash, &a.IsVerified, &a.Role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.Phone = phone.String
	a.PhoneValid = phone.Valid
	a.CreatedAt = createdAt
	a.UpdatedAt = updatedAt
	return a, nil
}

// FindByEmailOrPhone looks up an account by email (case-insensitive) or phone (exact)
func (r *PostgresRepository) FindByEmailOrPhone(ctx context.Context, identifier string) (Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE LOWER(email) = LOWER($1) OR phone = $1
	`
	return scanAccount(r.db.QueryRow(ctx, query, identifier))
}

// FindByID looks up an account by id
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

// Create inserts a new unverified account. The unique indexes on email and
// phone turn concurrent duplicate registrations into ErrDuplicateIdentifier.
func (r *PostgresRepository) Create(ctx context.Context, params CreateParams) (Account, error) {
	query := `
		INSERT INTO accounts (id, fullname, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + accountColumns + `
	`

	var phone pgtype.Text
	if params.PhoneValid {
		phone = pgtype.Text{String: params.Phone, Valid: true}
	}

	acct, err := scanAccount(r.db.QueryRow(ctx, query,
		uuid.New(), params.Fullname, params.Email, phone, params.PasswordHash, params.Role))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, ErrDuplicateIdentifier
		}
		return Account{}, err
	}
	return acct, nil
}

// SetVerified marks an account as verified
func (r *PostgresRepository) SetVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE accounts
		SET is_verified = TRUE,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPasswordHash replaces an account's password hash
func (r *PostgresRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE accounts
		SET password_hash = $2,
		    updated_at = NOW() AT TIME ZONE 'UTC'
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
