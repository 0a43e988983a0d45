package account

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository implements Repository using in-memory storage, for tests
// and demo setups without a database
type InMemRepository struct {
	accounts map[uuid.UUID]Account
	mutex    sync.RWMutex
}

// NewInMemRepository creates a new in-memory account repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		accounts: make(map[uuid.UUID]Account),
	}
}

// FindByEmailOrPhone looks up an account by email (case-insensitive) or phone (exact)
func (r *InMemRepository) FindByEmailOrPhone(ctx context.Context, identifier string) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, identifier) {
			return a, nil
		}
		if a.PhoneValid && a.Phone == identifier {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

// FindByID looks up an account by id
func (r *InMemRepository) FindByID(ctx context.Context, id uuid.UUID) (Account, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// Create inserts a new unverified account, enforcing email/phone uniqueness
func (r *InMemRepository) Create(ctx context.Context, params CreateParams) (Account, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, a := range r.accounts {
		if strings.EqualFold(a.Email, params.Email) {
			return Account{}, ErrDuplicateIdentifier
		}
		if params.PhoneValid && a.PhoneValid && a.Phone == params.Phone {
			return Account{}, ErrDuplicateIdentifier
		}
	}

	now := time.Now().UTC()
	acct := Account{
		ID:           uuid.New(),
		Fullname:     params.Fullname,
		Email:        params.Email,
		Phone:        params.Phone,
		PhoneValid:   params.PhoneValid,
		PasswordHash: params.PasswordHash,
		IsVerified:   false,
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.accounts[acct.ID] = acct
	return acct, nil
}

// SetVerified marks an account as verified
func (r *InMemRepository) SetVerified(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.IsVerified = true
	a.UpdatedAt = time.Now().UTC()
	r.accounts[id] = a
	return nil
}

// SetPasswordHash replaces an account's password hash
func (r *InMemRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = time.Now().UTC()
	r.accounts[id] = a
	return nil
}
