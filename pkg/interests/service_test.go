package interests

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTaxonomy() ([]Category, uuid.UUID, []uuid.UUID) {
	categoryID := uuid.New()
	itemIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	taxonomy := []Category{
		{
			ID:   categoryID,
			Name: "Trades",
			Subcategories: []Subcategory{
				{
					ID:   uuid.New(),
					Name: "Construction",
					Items: []Item{
						{ID: itemIDs[0], Name: "Carpentry"},
						{ID: itemIDs[1], Name: "Plumbing"},
					},
				},
				{
					ID:   uuid.New(),
					Name: "Electrical",
					Items: []Item{
						{ID: itemIDs[2], Name: "Wiring"},
					},
				},
			},
		},
	}
	return taxonomy, categoryID, itemIDs
}

func TestSaveAndListSelections(t *testing.T) {
	taxonomy, categoryID, itemIDs := seedTaxonomy()
	service := NewService(NewInMemRepository(taxonomy))
	ctx := context.Background()
	accountID := uuid.New()

	has, err := service.HasSelections(ctx, accountID)
	require.NoError(t, err)
	assert.False(t, has)

	err = service.SaveSelections(ctx, accountID, []Selection{
		{CategoryID: categoryID, ItemIDs: []uuid.UUID{itemIDs[0], itemIDs[2]}},
	})
	require.NoError(t, err)

	has, err = service.HasSelections(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, has)

	categories, err := service.ListTaxonomy(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, categories, 1)

	flags := make(map[uuid.UUID]bool)
	for _, sub := range categories[0].Subcategories {
		for _, item := range sub.Items {
			flags[item.ID] = item.Selected
		}
	}
	assert.True(t, flags[itemIDs[0]])
	assert.False(t, flags[itemIDs[1]])
	assert.True(t, flags[itemIDs[2]])
}

func TestSaveSelectionsReplacesPrevious(t *testing.T) {
	taxonomy, categoryID, itemIDs := seedTaxonomy()
	service := NewService(NewInMemRepository(taxonomy))
	ctx := context.Background()
	accountID := uuid.New()

	err := service.SaveSelections(ctx, accountID, []Selection{
		{CategoryID: categoryID, ItemIDs: []uuid.UUID{itemIDs[0], itemIDs[1]}},
	})
	require.NoError(t, err)

	err = service.SaveSelections(ctx, accountID, []Selection{
		{CategoryID: categoryID, ItemIDs: []uuid.UUID{itemIDs[2]}},
	})
	require.NoError(t, err)

	categories, err := service.ListTaxonomy(ctx, accountID)
	require.NoError(t, err)

	var selected []uuid.UUID
	for _, sub := range categories[0].Subcategories {
		for _, item := range sub.Items {
			if item.Selected {
				selected = append(selected, item.ID)
			}
		}
	}
	assert.Equal(t, []uuid.UUID{itemIDs[2]}, selected)
}

func TestSaveSelectionsRejectsEmptySet(t *testing.T) {
	taxonomy, categoryID, _ := seedTaxonomy()
	service := NewService(NewInMemRepository(taxonomy))
	ctx := context.Background()

	err := service.SaveSelections(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEmptySelections)

	err = service.SaveSelections(ctx, uuid.New(), []Selection{{CategoryID: categoryID}})
	assert.ErrorIs(t, err, ErrEmptySelections)
}

func TestListTaxonomySelectionsAreScopedPerAccount(t *testing.T) {
	taxonomy, categoryID, itemIDs := seedTaxonomy()
	service := NewService(NewInMemRepository(taxonomy))
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	err := service.SaveSelections(ctx, first, []Selection{
		{CategoryID: categoryID, ItemIDs: []uuid.UUID{itemIDs[0]}},
	})
	require.NoError(t, err)

	categories, err := service.ListTaxonomy(ctx, second)
	require.NoError(t, err)
	for _, sub := range categories[0].Subcategories {
		for _, item := range sub.Items {
			assert.False(t, item.Selected)
		}
	}
}
