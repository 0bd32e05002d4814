// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/familysync/internal/models"
)

// Store defines the document operations the family sync model depends on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service or sync layers.
//
// Every mutating method is atomic: it either commits all of its writes or
// none of them.
type Store interface {
	// GetProfile returns the profile of userID.
	// Returns ErrNotFound if the user never created or joined a family.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// CreateFamily inserts family with creatorID as its only member and links
	// the creator's profile to it. family.CreatedAt and family.Members are
	// populated by the store.
	// Returns ErrConflict if a family with the same ID already exists.
	CreateFamily(ctx context.Context, family *models.Family, creatorID string) error

	// GetFamily retrieves a family by its code.
	// Returns ErrNotFound if no family has that code.
	GetFamily(ctx context.Context, familyID string) (*models.Family, error)

	// JoinFamily adds userID to the family's members exactly once and links the
	// user's profile to it. Concurrent joins never lose each other's writes.
	// Returns ErrNotFound, without writing anything, if the family does not exist.
	JoinFamily(ctx context.Context, familyID, userID string) (*models.Family, error)

	// LeaveFamily removes userID from its current family's members and clears
	// the profile link. Returns the ID of the family that was left, or "" if
	// the user had none.
	LeaveFamily(ctx context.Context, userID string) (string, error)

	// CreateItem persists a new item. item.ID and item.CreatedAt are populated
	// by the store. Returns ErrNotFound if item.FamilyID does not exist.
	CreateItem(ctx context.Context, item *models.Item) error

	// GetItem retrieves an item of familyID by its ID.
	// Returns ErrNotFound if the item does not exist in that family.
	GetItem(ctx context.Context, familyID, itemID string) (*models.Item, error)

	// ToggleItem flips the completed flag of an item in a single write and
	// returns the updated item.
	ToggleItem(ctx context.Context, familyID, itemID string) (*models.Item, error)

	// DeleteItem removes an item of familyID.
	DeleteItem(ctx context.Context, familyID, itemID string) error

	// DeleteCompletedItems removes every completed item of the given type in
	// familyID as one batch and returns how many were removed.
	DeleteCompletedItems(ctx context.Context, familyID string, itemType models.ItemType) (int, error)

	// ListItemsByFamily returns the items of familyID, newest first.
	ListItemsByFamily(ctx context.Context, familyID string) ([]models.Item, error)

	// Close releases any resources held by the store.
	Close() error
}
