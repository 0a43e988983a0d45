package interests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ErrEmptySelections is returned when a save carries no items at all
var ErrEmptySelections = errors.New("no interest selections provided")

// Service exposes the interests taxonomy and per-account selections
type Service struct {
	repo Repository
}

// NewService creates a new interests service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListTaxonomy returns the taxonomy with the account's selections flagged
func (s *Service) ListTaxonomy(ctx context.Context, accountID uuid.UUID) ([]Category, error) {
	categories, err := s.repo.ListTaxonomy(ctx, accountID)
	if err != nil {
		slog.Error("Failed listing interests taxonomy", "accountID", accountID, "err", err)
		return nil, fmt.Errorf("failed listing interests taxonomy: %w", err)
	}
	return categories, nil
}

// SaveSelections replaces the account's selections with the given set.
// The previous selections are discarded even when the new set is smaller.
func (s *Service) SaveSelections(ctx context.Context, accountID uuid.UUID, selections []Selection) error {
	total := 0
	for _, selection := range selections {
		total += len(selection.ItemIDs)
	}
	if total == 0 {
		return ErrEmptySelections
	}

	if err := s.repo.ReplaceSelections(ctx, accountID, selections); err != nil {
		slog.Error("Failed saving interest selections", "accountID", accountID, "err", err)
		return fmt.Errorf("failed saving interest selections: %w", err)
	}
	return nil
}

// HasSelections reports whether the account has saved any selections
func (s *Service) HasSelections(ctx context.Context, accountID uuid.UUID) (bool, error) {
	return s.repo.HasSelections(ctx, accountID)
}
