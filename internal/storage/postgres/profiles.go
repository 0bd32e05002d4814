package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// GetProfile retrieves the profile of a user.
func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var familyID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT family_id FROM profiles WHERE user_id = $1",
		userID,
	).Scan(&familyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", classify(err))
	}

	return &models.Profile{UserID: userID, FamilyID: familyID.String}, nil
}

// linkProfile points the user's profile at familyID, creating the profile on
// first use. An empty familyID clears the link. A membership in another
// family is dropped so a user belongs to one family.
func (s *PostgresStore) linkProfile(ctx context.Context, tx *sql.Tx, userID, familyID string) error {
	var previous sql.NullString
	err := tx.QueryRowContext(ctx,
		"SELECT family_id FROM profiles WHERE user_id = $1 FOR UPDATE",
		userID,
	).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read profile: %w", classify(err))
	}

	if previous.Valid && previous.String != "" && previous.String != familyID {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM family_members WHERE family_id = $1 AND user_id = $2",
			previous.String, userID,
		); err != nil {
			return fmt.Errorf("remove previous membership: %w", classify(err))
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (user_id, family_id, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET family_id = EXCLUDED.family_id, updated_at = EXCLUDED.updated_at`,
		userID, nullable(familyID), s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("link profile: %w", classify(err))
	}
	return nil
}
