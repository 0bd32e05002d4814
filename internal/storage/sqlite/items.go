package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

const itemColumns = "id, family_id, type, title, details, date, completed, created_at, created_by"

// CreateItem persists a new item to the database.
func (s *SQLiteStore) CreateItem(ctx context.Context, item *models.Item) error {
	// Generate ID if not set
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	createdAt := s.stamp()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM families WHERE id = ?", item.FamilyID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("family %s: %w", item.FamilyID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check family: %w", classify(err))
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO items (id, family_id, type, title, details, date, completed, created_at, created_by)
			 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			item.ID, item.FamilyID, string(item.Type), item.Title,
			nullable(item.Details), nullable(item.Date),
			createdAt.UnixMilli(), item.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", classify(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	item.Completed = false
	item.CreatedAt = &createdAt
	return nil
}

// GetItem retrieves an item of a family by ID.
func (s *SQLiteStore) GetItem(ctx context.Context, familyID, itemID string) (*models.Item, error) {
	return getItem(ctx, s.db, familyID, itemID)
}

func getItem(ctx context.Context, q querier, familyID, itemID string) (*models.Item, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM items WHERE id = ? AND family_id = ?",
		itemID, familyID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", classify(err))
	}
	return item, nil
}

// ToggleItem flips the completed flag in a single UPDATE.
func (s *SQLiteStore) ToggleItem(ctx context.Context, familyID, itemID string) (*models.Item, error) {
	var item *models.Item

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE items SET completed = NOT completed WHERE id = ? AND family_id = ?",
			itemID, familyID,
		)
		if err != nil {
			return fmt.Errorf("failed to toggle item: %w", classify(err))
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("failed to toggle item: %w", err)
		} else if n == 0 {
			return fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
		}

		item, err = getItem(ctx, tx, familyID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes a single item.
func (s *SQLiteStore) DeleteItem(ctx context.Context, familyID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE id = ? AND family_id = ?",
		itemID, familyID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	return nil
}

// DeleteCompletedItems removes every completed item of a type in one statement,
// so other readers see either all of them or none of them.
func (s *SQLiteStore) DeleteCompletedItems(ctx context.Context, familyID string, itemType models.ItemType) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE family_id = ? AND type = ? AND completed = 1",
		familyID, string(itemType),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed items: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete completed items: %w", err)
	}
	return int(n), nil
}

// ListItemsByFamily retrieves the items of one family, newest first.
// Unstamped items sort last; ties fall back to insertion order, newest first.
func (s *SQLiteStore) ListItemsByFamily(ctx context.Context, familyID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+itemColumns+` FROM items WHERE family_id = ?
		 ORDER BY created_at IS NULL, created_at DESC, rowid DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", classify(err))
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", classify(err))
	}

	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	item := &models.Item{}
	var (
		itemType  string
		details   sql.NullString
		date      sql.NullString
		createdAt sql.NullInt64
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
		t := time.UnixMilli(createdAt.Int64)
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
