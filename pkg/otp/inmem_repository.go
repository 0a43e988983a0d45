package otp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemRepository implements Repository using in-memory storage, for tests
// and demo setups without a database
type InMemRepository struct {
	codes map[uuid.UUID]OneTimeCode // keyed by code id
	mutex sync.RWMutex
}

// NewInMemRepository creates a new in-memory OTP repository
func NewInMemRepository() *InMemRepository {
	return &InMemRepository{
		codes: make(map[uuid.UUID]OneTimeCode),
	}
}

// Replace removes existing codes for the account and stores the new one
func (r *InMemRepository) Replace(ctx context.Context, accountID uuid.UUID, code string, expiresAt time.Time) (OneTimeCode, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for id, c := range r.codes {
		if c.AccountID == accountID {
			delete(r.codes, id)
		}
	}

	c := OneTimeCode{
		ID:        uuid.New(),
		AccountID: accountID,
		Code:      code,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	r.codes[c.ID] = c
	return c, nil
}

// FindLatestByAccount returns the code with the latest expiry for the account
func (r *InMemRepository) FindLatestByAccount(ctx context.Context, accountID uuid.UUID) (OneTimeCode, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var latest OneTimeCode
	found := false
	for _, c := range r.codes {
		if c.AccountID != accountID {
			continue
		}
		if !found || c.ExpiresAt.After(latest.ExpiresAt) {
			latest = c
			found = true
		}
	}
	if !found {
		return OneTimeCode{}, ErrNoCode
	}
	return latest, nil
}

// Delete removes a code by id
func (r *InMemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delete(r.codes, id)
	return nil
}
