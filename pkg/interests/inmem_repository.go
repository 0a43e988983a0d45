package interests

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemRepository implements Repository in memory for development and tests
type InMemRepository struct {
	mu         sync.RWMutex
	taxonomy   []Category
	selections map[uuid.UUID]map[uuid.UUID]bool // accountID -> itemID set
}

// NewInMemRepository creates a new in-memory interests repository seeded with
// the given taxonomy
func NewInMemRepository(taxonomy []Category) *InMemRepository {
	return &InMemRepository{
		taxonomy:   taxonomy,
		selections: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (r *InMemRepository) ListTaxonomy(ctx context.Context, accountID uuid.UUID) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	selected := r.selections[accountID]
	result := make([]Category, 0, len(r.taxonomy))
	for _, cat := range r.taxonomy {
		category := Category{ID: cat.ID, Name: cat.Name, Subcategories: []Subcategory{}}
		for _, sub := range cat.Subcategories {
			subcategory := Subcategory{ID: sub.ID, Name: sub.Name, Items: []Item{}}
			for _, item := range sub.Items {
				subcategory.Items = append(subcategory.Items, Item{
					ID:       item.ID,
					Name:     item.Name,
					Selected: selected[item.ID],
				})
			}
			category.Subcategories = append(category.Subcategories, subcategory)
		}
		result = append(result, category)
	}
	return result, nil
}

func (r *InMemRepository) ReplaceSelections(ctx context.Context, accountID uuid.UUID, selections []Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chosen := make(map[uuid.UUID]bool)
	for _, selection := range selections {
		for _, itemID := range selection.ItemIDs {
			chosen[itemID] = true
		}
	}
	r.selections[accountID] = chosen
	return nil
}

func (r *InMemRepository) HasSelections(ctx context.Context, accountID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.selections[accountID]) > 0, nil
}
