package interests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Item is an interest item with its per-account selection flag
type Item struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Selected bool      `json:"selected"`
}

// Subcategory groups interest items under a category
type Subcategory struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Items []Item    `json:"items"`
}

// Category is the top level of the interests taxonomy
type Category struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Selection is one category's worth of chosen items
type Selection struct {
	CategoryID uuid.UUID   `json:"categoryId"`
	ItemIDs    []uuid.UUID `json:"itemIds"`
}

// Repository defines the storage operations for the interests taxonomy and
// per-account selections
type Repository interface {
	// ListTaxonomy returns the full taxonomy with the account's selections
	// flagged on each item
	ListTaxonomy(ctx context.Context, accountID uuid.UUID) ([]Category, error)

	// ReplaceSelections replaces all of the account's selections in one
	// transactional unit
	ReplaceSelections(ctx context.Context, accountID uuid.UUID, selections []Selection) error

	// HasSelections reports whether the account has saved any selections
	HasSelections(ctx context.Context, accountID uuid.UUID) (bool, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL-based interests repository
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type taxonomyRow struct {
	id   uuid.UUID
	name string
}

type subcategoryRow struct {
	taxonomyRow
	categoryID uuid.UUID
}

type itemRow struct {
	taxonomyRow
	subcategoryID uuid.UUID
}

// ListTaxonomy loads the taxonomy tables and assembles the tree in memory,
// flagging the account's selected items
func (r *PostgresRepository) ListTaxonomy(ctx context.Context, accountID uuid.UUID) ([]Category, error) {
	var categories []taxonomyRow
	rows, err := r.db.Query(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c taxonomyRow
		if err := rows.Scan(&c.id, &c.name); err != nil {
			rows.Close()
			return nil, err
		}
		categories = append(categories, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var subcategories []subcategoryRow
	rows, err = r.db.Query(ctx, `SELECT id, name, category_id FROM subcategories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s subcategoryRow
		if err := rows.Scan(&s.id, &s.name, &s.categoryID); err != nil {
			rows.Close()
			return nil, err
		}
		subcategories = append(subcategories, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var items []itemRow
	rows, err = r.db.Query(ctx, `SELECT id, name, subcategory_id FROM interest_items ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var i itemRow
		if err := rows.Scan(&i.id, &i.name, &i.subcategoryID); err != nil {
			rows.Close()
			return nil, err
		}
		items = append(items, i)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	selected := make(map[uuid.UUID]bool)
	rows, err = r.db.Query(ctx, `SELECT item_id FROM account_interests WHERE account_id = $1`, accountID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var itemID uuid.UUID
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return nil, err
		}
		selected[itemID] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assembleTaxonomy(categories, subcategories, items, selected), nil
}

func assembleTaxonomy(categories []taxonomyRow, subcategories []subcategoryRow, items []itemRow, selected map[uuid.UUID]bool) []Category {
	result := make([]Category, 0, len(categories))
	for _, cat := range categories {
		category := Category{ID: cat.id, Name: cat.name, Subcategories: []Subcategory{}}
		for _, sub := range subcategories {
			if sub.categoryID != cat.id {
				continue
			}
			subcategory := Subcategory{ID: sub.id, Name: sub.name, Items: []Item{}}
			for _, item := range items {
				if item.subcategoryID != sub.id {
					continue
				}
				subcategory.Items = append(subcategory.Items, Item{
					ID:       item.id,
					Name:     item.name,
					Selected: selected[item.id],
				})
			}
			category.Subcategories = append(category.Subcategories, subcategory)
		}
		result = append(result, category)
	}
	return result
}

// ReplaceSelections replaces the account's selections in one transaction
func (r *PostgresRepository) ReplaceSelections(ctx context.Context, accountID uuid.UUID, selections []Selection) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM account_interests WHERE account_id = $1`, accountID)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO account_interests (id, account_id, category_id, item_id)
		VALUES ($1, $2, $3, $4)
	`
	for _, selection := range selections {
		for _, itemID := range selection.ItemIDs {
			_, err = tx.Exec(ctx, query, uuid.New(), accountID, selection.CategoryID, itemID)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}

// HasSelections reports whether the account has saved any selections
func (r *PostgresRepository) HasSelections(ctx context.Context, accountID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM account_interests WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
