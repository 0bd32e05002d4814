package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// GetProfile retrieves the profile of a user.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return getProfile(ctx, s.db, userID)
}

func getProfile(ctx context.Context, q querier, userID string) (*models.Profile, error) {
	var familyID sql.NullString
	err := q.QueryRowContext(ctx,
		"SELECT family_id FROM profiles WHERE user_id = ?",
		userID,
	).Scan(&familyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", userID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", classify(err))
	}

	return &models.Profile{UserID: userID, FamilyID: familyID.String}, nil
}

// linkProfile points the user's profile at familyID, creating the profile on
// first use. An empty familyID clears the link. If the user was a member of
// another family, that membership is dropped so a user belongs to one family.
func (s *SQLiteStore) linkProfile(ctx context.Context, tx *sql.Tx, userID, familyID string) error {
	var previous sql.NullString
	err := tx.QueryRowContext(ctx,
		"SELECT family_id FROM profiles WHERE user_id = ?",
		userID,
	).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read profile: %w", classify(err))
	}

	if previous.Valid && previous.String != "" && previous.String != familyID {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM family_members WHERE family_id = ? AND user_id = ?",
			previous.String, userID,
		); err != nil {
			return fmt.Errorf("failed to remove previous membership: %w", classify(err))
		}
	}

	var link any
	if familyID != "" {
		link = familyID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, family_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET family_id = excluded.family_id, updated_at = excluded.updated_at`,
		userID, link, s.stamp().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to link profile: %w", classify(err))
	}
	return nil
}
