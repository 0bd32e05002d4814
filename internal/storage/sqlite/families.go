package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// CreateFamily persists a new family with its creator as the only member and
// links the creator's profile, all in one transaction.
func (s *SQLiteStore) CreateFamily(ctx context.Context, family *models.Family, creatorID string) error {
	createdAt := s.stamp()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO families (id, name, created_at) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
			family.ID, family.Name, createdAt.UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert family: %w", classify(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to insert family: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("family %s: %w", family.ID, storage.ErrConflict)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO family_members (family_id, user_id) VALUES (?, ?)",
			family.ID, creatorID,
		); err != nil {
			return fmt.Errorf("failed to insert member: %w", classify(err))
		}

		return s.linkProfile(ctx, tx, creatorID, family.ID)
	})
	if err != nil {
		return err
	}

	family.CreatedAt = createdAt
	family.Members = []string{creatorID}
	return nil
}

// GetFamily retrieves a family by code, including its members in join order.
func (s *SQLiteStore) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	return getFamily(ctx, s.db, familyID)
}

func getFamily(ctx context.Context, q querier, familyID string) (*models.Family, error) {
	family := &models.Family{}
	var createdAt int64
	err := q.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM families WHERE id = ?",
		familyID,
	).Scan(&family.ID, &family.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("family %s: %w", familyID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", classify(err))
	}
	family.CreatedAt = time.UnixMilli(createdAt)

	// rowid order is insertion order, which is join order
	rows, err := q.QueryContext(ctx,
		"SELECT user_id FROM family_members WHERE family_id = ? ORDER BY rowid",
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		family.Members = append(family.Members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", classify(err))
	}

	return family, nil
}

// JoinFamily adds the user to the family's members and links the profile.
// The membership insert is a set union keyed on (family_id, user_id).
func (s *SQLiteStore) JoinFamily(ctx context.Context, familyID, userID string) (*models.Family, error) {
	var family *models.Family

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM families WHERE id = ?", familyID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("family %s: %w", familyID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check family: %w", classify(err))
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO family_members (family_id, user_id) VALUES (?, ?) ON CONFLICT (family_id, user_id) DO NOTHING",
			familyID, userID,
		); err != nil {
			return fmt.Errorf("failed to add member: %w", classify(err))
		}

		if err := s.linkProfile(ctx, tx, userID, familyID); err != nil {
			return err
		}

		family, err = getFamily(ctx, tx, familyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return family, nil
}

// LeaveFamily drops the user's membership and clears the profile link.
func (s *SQLiteStore) LeaveFamily(ctx context.Context, userID string) (string, error) {
	var left string

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		profile, err := getProfile(ctx, tx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !profile.HasFamily() {
			return nil
		}
		left = profile.FamilyID

		// linkProfile removes the membership of the previous family
		return s.linkProfile(ctx, tx, userID, "")
	})
	if err != nil {
		return "", err
	}
	return left, nil
}
