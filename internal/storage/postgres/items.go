package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

const itemColumns = "id, family_id, type, title, details, date, completed, created_at, created_by"

// CreateItem persists a new item. The family must exist.
func (s *PostgresStore) CreateItem(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	createdAt := s.stamp()

	// INSERT ... SELECT inserts nothing when the family is missing.
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, family_id, type, title, details, date, completed, created_at, created_by)
		SELECT $1::text, f.id, $3::text, $4::text, $5::text, $6::text, FALSE, $7::timestamptz, $8::text
		FROM families f WHERE f.id = $2`,
		item.ID, item.FamilyID, string(item.Type), item.Title,
		nullable(item.Details), nullable(item.Date), createdAt, item.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("family %s: %w", item.FamilyID, storage.ErrNotFound)
	}

	item.Completed = false
	item.CreatedAt = &createdAt
	return nil
}

// GetItem retrieves an item of a family by ID.
func (s *PostgresStore) GetItem(ctx context.Context, familyID, itemID string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = $1 AND family_id = $2",
		itemID, familyID,
	)
	return scanOne(row, itemID)
}

// ToggleItem flips the completed flag in a single UPDATE and returns the
// resulting row.
func (s *PostgresStore) ToggleItem(ctx context.Context, familyID, itemID string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		"UPDATE items SET completed = NOT completed WHERE id = $1 AND family_id = $2 RETURNING "+itemColumns,
		itemID, familyID,
	)
	return scanOne(row, itemID)
}

// DeleteItem removes a single item.
func (s *PostgresStore) DeleteItem(ctx context.Context, familyID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE id = $1 AND family_id = $2",
		itemID, familyID,
	)
	if err != nil {
		return fmt.Errorf("delete item: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	return nil
}

// DeleteCompletedItems removes every completed item of a type in one statement.
func (s *PostgresStore) DeleteCompletedItems(ctx context.Context, familyID string, itemType models.ItemType) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE family_id = $1 AND type = $2 AND completed",
		familyID, string(itemType),
	)
	if err != nil {
		return 0, fmt.Errorf("delete completed items: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete completed items: %w", err)
	}
	return int(n), nil
}

// ListItemsByFamily retrieves the items of one family, newest first, with
// unstamped items last.
func (s *PostgresStore) ListItemsByFamily(ctx context.Context, familyID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+` FROM items WHERE family_id = $1
		 ORDER BY created_at DESC NULLS LAST, seq DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", classify(err))
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", classify(err))
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner, itemID string) (*models.Item, error) {
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", classify(err))
	}
	return item, nil
}

func scanItem(row scanner) (*models.Item, error) {
	item := &models.Item{}
	var (
		itemType  string
		details   sql.NullString
		date      sql.NullString
		createdAt sql.NullTime
	)
	if err := row.Scan(
		&item.ID, &item.FamilyID, &itemType, &item.Title,
		&details, &date, &item.Completed, &createdAt, &item.CreatedBy,
	); err != nil {
		return nil, err
	}

	item.Type = models.ItemType(itemType)
	item.Details = details.String
	item.Date = date.String
	if createdAt.Valid {
		t := createdAt.Time
		item.CreatedAt = &t
	}
	return item, nil
}

// nullable stores empty optional strings as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
