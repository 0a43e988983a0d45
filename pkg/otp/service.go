package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultExpiry is how long an issued code stays valid
const DefaultExpiry = 5 * time.Minute

var (
	// ErrNotFound is returned when no code exists for the account,
	// including codes already consumed by a previous verification
	ErrNotFound = errors.New("one-time code not found")

	// ErrExpired is returned when the current code is past its expiry,
	// even if it has not been purged yet
	ErrExpired = errors.New("one-time code expired")

	// ErrMismatch is returned when the supplied code does not match
	ErrMismatch = errors.New("one-time code mismatch")
)

// Service manages the one-time code lifecycle: issue, verify, supersede.
// Codes are uniformly random 6-digit numbers, single-use, and expire
// absolutely at creation time + expiry.
type Service struct {
	repo   Repository
	expiry time.Duration
	now    func() time.Time
}

// Option is a function that configures a Service
type Option func(*Service)

// WithExpiry sets the code validity window
func WithExpiry(expiry time.Duration) Option {
	return func(s *Service) {
		s.expiry = expiry
	}
}

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new OTP Service backed by the given repository
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		expiry: DefaultExpiry,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue invalidates any existing codes for the account and stores a fresh
// one. The code is returned for dispatch by email only; it must never be
// included in an HTTP response. Resend is simply another Issue.
func (s *Service) Issue(ctx context.Context, accountID uuid.UUID) (string, error) {
	code, err := generateCode()
	if err != nil {
		slog.Error("Failed to generate one-time code", "account_id", accountID, "err", err)
		return "", fmt.Errorf("failed to generate one-time code: %w", err)
	}

	expiresAt := s.now().UTC().Add(s.expiry)
	if _, err := s.repo.Replace(ctx, accountID, code, expiresAt); err != nil {
		slog.Error("Failed to store one-time code", "account_id", accountID, "err", err)
		return "", fmt.Errorf("failed to store one-time code: %w", err)
	}

	slog.Info("Issued one-time code", "account_id", accountID, "expires_at", expiresAt)
	return code, nil
}

// Verify checks the supplied code against the account's current code. On
// success the code is deleted, so a second verification of the same code
// fails with ErrNotFound.
func (s *Service) Verify(ctx context.Context, accountID uuid.UUID, supplied string) error {
	current, err := s.repo.FindLatestByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrNoCode) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load one-time code: %w", err)
	}

	if s.now().UTC().After(current.ExpiresAt) {
		slog.Warn("One-time code expired", "account_id", accountID, "expires_at", current.ExpiresAt)
		return ErrExpired
	}

	if strings.TrimSpace(supplied) != current.Code {
		slog.Warn("One-time code mismatch", "account_id", accountID)
		return ErrMismatch
	}

	if err := s.repo.Delete(ctx, current.ID); err != nil {
		return fmt.Errorf("failed to consume one-time code: %w", err)
	}
	return nil
}

// generateCode returns a uniformly random 6-digit code in [100000, 999999]
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
