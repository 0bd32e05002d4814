// Package retry wraps a storage.Store so transient backend failures are
// retried with exponential backoff before they reach callers.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mmynk/familysync/internal/metrics"
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store retries calls that fail with storage.ErrTransient. Reads and
// JoinFamily, whose replay lands on the same state, are retried with
// backoff. Every other write gets a single attempt, since a transient error
// after the backend applied it would otherwise repeat the change. Transient
// failures that are not retried, or outlive the retries, are reported as
// storage.ErrUnavailable.
type Store struct {
	next            storage.Store
	maxRetries      uint64
	initialInterval time.Duration
	maxInterval     time.Duration
}

// Option configures a retrying Store.
type Option func(*Store)

// WithMaxRetries caps the number of retries after the first attempt.
func WithMaxRetries(n uint64) Option {
	return func(s *Store) {
		s.maxRetries = n
	}
}

// WithIntervals sets the first and the largest wait between attempts.
func WithIntervals(initial, max time.Duration) Option {
	return func(s *Store) {
		s.initialInterval = initial
		s.maxInterval = max
	}
}

// New wraps next with retries.
func New(next storage.Store, opts ...Option) *Store {
	s := &Store{
		next:            next,
		maxRetries:      5,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) newBackOff(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initialInterval
	b.MaxInterval = s.maxInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, s.maxRetries), ctx)
}

// once runs a write that is not safe to replay.
func (s *Store) once(ctx context.Context, op string, fn func() error) error {
	return s.run(ctx, op, backoff.WithContext(&backoff.StopBackOff{}, ctx), fn)
}

func (s *Store) do(ctx context.Context, op string, fn func() error) error {
	return s.run(ctx, op, s.newBackOff(ctx), fn)
}

func (s *Store) run(ctx context.Context, op string, b backoff.BackOffContext, fn func() error) error {
	start := time.Now()
	attempt := 0

	err := backoff.Retry(func() error {
		if attempt > 0 {
			metrics.IncStoreRetry(op)
		}
		attempt++

		err := fn()
		if err == nil || storage.IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)

	metrics.ObserveStore(op, start, err)
	if err != nil && storage.IsTransient(err) {
		return fmt.Errorf("%s after %d attempts: %w: %w", op, attempt, storage.ErrUnavailable, err)
	}
	return err
}

func call[T any](ctx context.Context, s *Store, op string, fn func() (T, error)) (T, error) {
	return result(ctx, s.do, op, fn)
}

func callOnce[T any](ctx context.Context, s *Store, op string, fn func() (T, error)) (T, error) {
	return result(ctx, s.once, op, fn)
}

func result[T any](ctx context.Context, run func(context.Context, string, func() error) error, op string, fn func() (T, error)) (T, error) {
	var out T
	err := run(ctx, op, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return call(ctx, s, "get_profile", func() (*models.Profile, error) {
		return s.next.GetProfile(ctx, userID)
	})
}

func (s *Store) CreateFamily(ctx context.Context, family *models.Family, creatorID string) error {
	return s.once(ctx, "create_family", func() error {
		return s.next.CreateFamily(ctx, family, creatorID)
	})
}

func (s *Store) GetFamily(ctx context.Context, familyID string) (*models.Family, error) {
	return call(ctx, s, "get_family", func() (*models.Family, error) {
		return s.next.GetFamily(ctx, familyID)
	})
}

func (s *Store) JoinFamily(ctx context.Context, familyID, userID string) (*models.Family, error) {
	return call(ctx, s, "join_family", func() (*models.Family, error) {
		return s.next.JoinFamily(ctx, familyID, userID)
	})
}

func (s *Store) LeaveFamily(ctx context.Context, userID string) (string, error) {
	return callOnce(ctx, s, "leave_family", func() (string, error) {
		return s.next.LeaveFamily(ctx, userID)
	})
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	return s.once(ctx, "create_item", func() error {
		return s.next.CreateItem(ctx, item)
	})
}

func (s *Store) GetItem(ctx context.Context, familyID, itemID string) (*models.Item, error) {
	return call(ctx, s, "get_item", func() (*models.Item, error) {
		return s.next.GetItem(ctx, familyID, itemID)
	})
}

func (s *Store) ToggleItem(ctx context.Context, familyID, itemID string) (*models.Item, error) {
	return callOnce(ctx, s, "toggle_item", func() (*models.Item, error) {
		return s.next.ToggleItem(ctx, familyID, itemID)
	})
}

func (s *Store) DeleteItem(ctx context.Context, familyID, itemID string) error {
	return s.once(ctx, "delete_item", func() error {
		return s.next.DeleteItem(ctx, familyID, itemID)
	})
}

func (s *Store) DeleteCompletedItems(ctx context.Context, familyID string, itemType models.ItemType) (int, error) {
	return callOnce(ctx, s, "delete_completed_items", func() (int, error) {
		return s.next.DeleteCompletedItems(ctx, familyID, itemType)
	})
}

func (s *Store) ListItemsByFamily(ctx context.Context, familyID string) ([]models.Item, error) {
	return call(ctx, s, "list_items", func() ([]models.Item, error) {
		return s.next.ListItemsByFamily(ctx, familyID)
	})
}

func (s *Store) Close() error {
	return s.next.Close()
}
