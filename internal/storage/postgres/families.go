package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// CreateFamily persists a new family with its creator as the only member and
// links the creator's profile, all in one transaction.
func (s *PostgresStore) CreateFamily(ctx context.Context, family *models.Family, creatorID string) error {
	createdAt := s.stamp()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO families (id, name, created_at) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
			family.ID, family.Name, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert family: %w", classify(err))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert family: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("family %s: %w", family.ID, storage.ErrConflict)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO family_members (family_id, user_id) VALUES ($1, $2)",
			family.ID, creatorID,
		); err != nil {
			return fmt.Errorf("insert member: %w", classify(err))
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
func (s *PostgresStore) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	return getFamily(ctx, s.db, familyID)
}

func getFamily(ctx context.Context, q querier, familyID string) (*models.Family, error) {
	family := &models.Family{}
	var members []string
	err := q.QueryRowContext(ctx, `
		SELECT f.id, f.name, f.created_at,
		       COALESCE(array_agg(m.user_id ORDER BY m.seq) FILTER (WHERE m.user_id IS NOT NULL), '{}')
		FROM families f
		LEFT JOIN family_members m ON m.family_id = f.id
		WHERE f.id = $1
		GROUP BY f.id`,
		familyID,
	).Scan(&family.ID, &family.Name, &family.CreatedAt, pq.Array(&members))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("family %s: %w", familyID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", classify(err))
	}
	if len(members) > 0 {
		family.Members = members
	}
	return family, nil
}

// JoinFamily adds the user to the family's members and links the profile.
// The membership insert is a set union keyed on (family_id, user_id).
func (s *PostgresStore) JoinFamily(ctx context.Context, familyID, userID string) (*models.Family, error) {
	var family *models.Family

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		// Locks the family row so a concurrent delete cannot slip in between.
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM families WHERE id = $1 FOR SHARE", familyID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("family %s: %w", familyID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check family: %w", classify(err))
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO family_members (family_id, user_id) VALUES ($1, $2) ON CONFLICT (family_id, user_id) DO NOTHING",
			familyID, userID,
		); err != nil {
			return fmt.Errorf("add member: %w", classify(err))
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
func (s *PostgresStore) LeaveFamily(ctx context.Context, userID string) (string, error) {
	var left string

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var familyID sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT family_id FROM profiles WHERE user_id = $1 FOR UPDATE",
			userID,
		).Scan(&familyID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && familyID.String == "") {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read profile: %w", classify(err))
		}
		left = familyID.String

		// linkProfile removes the membership of the previous family
		return s.linkProfile(ctx, tx, userID, "")
	})
	if err != nil {
		return "", err
	}
	return left, nil
}
