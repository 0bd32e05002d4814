package realtime

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/familysync/internal/metrics"
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// Ensure NotifyingStore implements storage.Store
var _ storage.Store = (*NotifyingStore)(nil)

// NotifyingStore publishes change notifications after each committed write
// of the wrapped store. Reads pass through untouched.
//
// A failed publish is logged and counted but never fails the write.
type NotifyingStore struct {
	storage.Store
	broker Broker
}

// NewNotifyingStore wraps next so that writes are announced on broker.
func NewNotifyingStore(next storage.Store, broker Broker) *NotifyingStore {
	return &NotifyingStore{Store: next, broker: broker}
}

// CreateFamily announces the creator's profile, the new family and any family
// the creator was dropped from.
func (s *NotifyingStore) CreateFamily(ctx context.Context, family *models.Family, creatorID string) error {
	previous := s.currentFamily(ctx, creatorID)
	if err := s.Store.CreateFamily(ctx, family, creatorID); err != nil {
		return err
	}
	s.publish(ctx, ProfileTopic(creatorID), FamilyTopic(family.ID))
	if previous != "" && previous != family.ID {
		s.publish(ctx, FamilyTopic(previous))
	}
	return nil
}

// JoinFamily announces the member's profile, the joined family and any
// family the member was dropped from.
func (s *NotifyingStore) JoinFamily(ctx context.Context, familyID, userID string) (*models.Family, error) {
	previous := s.currentFamily(ctx, userID)
	family, err := s.Store.JoinFamily(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ProfileTopic(userID), FamilyTopic(familyID))
	if previous != "" && previous != familyID {
		s.publish(ctx, FamilyTopic(previous))
	}
	return family, nil
}

// LeaveFamily announces the profile and the family that was left.
func (s *NotifyingStore) LeaveFamily(ctx context.Context, userID string) (string, error) {
	left, err := s.Store.LeaveFamily(ctx, userID)
	if err != nil {
		return "", err
	}
	s.publish(ctx, ProfileTopic(userID))
	if left != "" {
		s.publish(ctx, FamilyTopic(left))
	}
	return left, nil
}

func (s *NotifyingStore) CreateItem(ctx context.Context, item *models.Item) error {
	if err := s.Store.CreateItem(ctx, item); err != nil {
		return err
	}
	s.publish(ctx, ItemsTopic(item.FamilyID))
	return nil
}

func (s *NotifyingStore) ToggleItem(ctx context.Context, familyID, itemID string) (*models.Item, error) {
	item, err := s.Store.ToggleItem(ctx, familyID, itemID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ItemsTopic(familyID))
	return item, nil
}

func (s *NotifyingStore) DeleteItem(ctx context.Context, familyID, itemID string) error {
	if err := s.Store.DeleteItem(ctx, familyID, itemID); err != nil {
		return err
	}
	s.publish(ctx, ItemsTopic(familyID))
	return nil
}

// DeleteCompletedItems publishes only when something was removed.
func (s *NotifyingStore) DeleteCompletedItems(ctx context.Context, familyID string, itemType models.ItemType) (int, error) {
	n, err := s.Store.DeleteCompletedItems(ctx, familyID, itemType)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, ItemsTopic(familyID))
	}
	return n, nil
}

// currentFamily returns the user's family before a membership change, or "".
func (s *NotifyingStore) currentFamily(ctx context.Context, userID string) string {
	profile, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Debug("Profile lookup before membership change failed", "user_id", userID, "error", err)
		}
		return ""
	}
	return profile.FamilyID
}

func (s *NotifyingStore) publish(ctx context.Context, topics ...string) {
	// The write has committed; a canceled request must not swallow the signal.
	ctx = context.WithoutCancel(ctx)
	for _, topic := range topics {
		err := s.broker.Publish(ctx, topic)
		metrics.ObserveNotification(err)
		if err != nil {
			slog.Warn("Change notification failed", "topic", topic, "error", err)
		}
	}
}
