package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// NewItem is the caller-supplied part of an item.
type NewItem struct {
	Type    models.ItemType
	Title   string
	Details string
	Date    string
}

func (n NewItem) normalize() (NewItem, error) {
	n.Title = strings.TrimSpace(n.Title)
	n.Details = strings.TrimSpace(n.Details)
	n.Date = strings.TrimSpace(n.Date)

	if n.Title == "" {
		return n, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !n.Type.Valid() {
		return n, fmt.Errorf("%w: unknown item type %q", ErrValidation, n.Type)
	}
	if n.Date != "" {
		if _, err := time.Parse(models.DateLayout, n.Date); err != nil {
			return n, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
	}
	return n, nil
}

// AddItem creates an item in userID's active family.
func (s *Service) AddItem(ctx context.Context, userID string, n NewItem) (_ *models.Item, err error) {
	defer func() { observe("add_item", err) }()

	n, err = n.normalize()
	if err != nil {
		return nil, err
	}
	familyID, err := s.ActiveFamily(ctx, userID)
	if err != nil {
		return nil, err
	}

	slog.Info("AddItem request received", "user_id", userID, "family_id", familyID, "type", n.Type)

	item := &models.Item{
		Type:      n.Type,
		Title:     n.Title,
		Details:   n.Details,
		Date:      n.Date,
		FamilyID:  familyID,
		CreatedBy: userID,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// The profile points at a family that no longer exists.
			return nil, ErrNoActiveFamily
		}
		slog.Error("AddItem failed", "family_id", familyID, "error", err)
		return nil, fmt.Errorf("create item: %w", err)
	}

	slog.Info("Item added", "item_id", item.ID, "family_id", familyID)
	return item, nil
}

// ToggleItem flips the completed flag of an item of userID's active family.
func (s *Service) ToggleItem(ctx context.Context, userID, itemID string) (_ *models.Item, err error) {
	defer func() { observe("toggle_item", err) }()

	familyID, err := s.itemScope(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item, err := s.store.ToggleItem(ctx, familyID, itemID)
	if err != nil {
		return nil, itemError("toggle item", itemID, err)
	}

	slog.Info("Item toggled", "item_id", itemID, "family_id", familyID, "completed", item.Completed)
	return item, nil
}

// DeleteItem removes an item of userID's active family.
func (s *Service) DeleteItem(ctx context.Context, userID, itemID string) (err error) {
	defer func() { observe("delete_item", err) }()

	familyID, err := s.itemScope(ctx, userID, itemID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteItem(ctx, familyID, itemID); err != nil {
		return itemError("delete item", itemID, err)
	}

	slog.Info("Item deleted", "item_id", itemID, "family_id", familyID)
	return nil
}

// ClearCompleted removes every completed item of itemType in userID's active
// family as one batch and returns how many were removed.
func (s *Service) ClearCompleted(ctx context.Context, userID string, itemType models.ItemType) (_ int, err error) {
	defer func() { observe("clear_completed", err) }()

	if !itemType.Valid() {
		return 0, fmt.Errorf("%w: unknown item type %q", ErrValidation, itemType)
	}
	familyID, err := s.ActiveFamily(ctx, userID)
	if err != nil {
		return 0, err
	}

	n, err := s.store.DeleteCompletedItems(ctx, familyID, itemType)
	if err != nil {
		slog.Error("ClearCompleted failed", "family_id", familyID, "type", itemType, "error", err)
		return 0, fmt.Errorf("clear completed: %w", err)
	}

	slog.Info("Completed items cleared", "family_id", familyID, "type", itemType, "removed", n)
	return n, nil
}

// itemScope validates itemID and resolves the family it must belong to.
func (s *Service) itemScope(ctx context.Context, userID, itemID string) (string, error) {
	if strings.TrimSpace(itemID) == "" {
		return "", fmt.Errorf("%w: item ID is required", ErrValidation)
	}
	return s.ActiveFamily(ctx, userID)
}

func itemError(op, itemID string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	slog.Error("Item operation failed", "op", op, "item_id", itemID, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}
