package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemResetTokenRepository implements ResetTokenRepository in memory for
// development and tests
type InMemResetTokenRepository struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]ResetToken
}

// NewInMemResetTokenRepository creates a new in-memory reset token repository
func NewInMemResetTokenRepository() *InMemResetTokenRepository {
	return &InMemResetTokenRepository{tokens: make(map[uuid.UUID]ResetToken)}
}

func (r *InMemResetTokenRepository) Create(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) (ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt := ResetToken{
		ID:        uuid.New(),
		AccountID: accountID,
		Token:     token,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	r.tokens[rt.ID] = rt
	return rt, nil
}

func (r *InMemResetTokenRepository) FindActive(ctx context.Context, accountID uuid.UUID, token string, now time.Time) (ResetToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rt := range r.tokens {
		if rt.AccountID == accountID && rt.Token == token && rt.ExpiresAt.After(now) {
			return rt, nil
		}
	}
	return ResetToken{}, ErrResetTokenNotFound
}

func (r *InMemResetTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, id)
	return nil
}
