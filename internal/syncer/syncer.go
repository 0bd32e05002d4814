// Package syncer turns store change notifications into a live read model.
//
// A session follows one user: their profile, the family the profile links to
// and that family's items. All notifications of a session are handled by a
// single goroutine, so its state needs no locking and the published snapshots
// are totally ordered.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/familysync/internal/metrics"
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/realtime"
	"github.com/mmynk/familysync/internal/storage"
	"github.com/mmynk/familysync/internal/views"
)

// DefaultResyncInterval is how long a session waits before re-reading state
// after a failed read.
const DefaultResyncInterval = 5 * time.Second

// Syncer opens sync sessions against a store and its change feed.
type Syncer struct {
	store  storage.Store
	broker realtime.Broker
	resync time.Duration
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithResyncInterval overrides DefaultResyncInterval.
func WithResyncInterval(d time.Duration) Option {
	return func(s *Syncer) { s.resync = d }
}

// New creates a Syncer.
func New(store storage.Store, broker realtime.Broker, opts ...Option) *Syncer {
	s := &Syncer{store: store, broker: broker, resync: DefaultResyncInterval}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Watch starts a session for userID and returns its snapshots. The channel
// always holds the most recent snapshot: a slow reader skips intermediate
// ones. It is closed once ctx ends and every subscription is released.
func (s *Syncer) Watch(ctx context.Context, userID string) (<-chan models.Snapshot, error) {
	if userID == "" {
		return nil, errors.New("watch: empty user ID")
	}
	profileSub, err := s.broker.Subscribe(ctx, realtime.ProfileTopic(userID))
	if err != nil {
		return nil, fmt.Errorf("subscribe profile: %w", err)
	}

	sess := &session{
		syncer:     s,
		userID:     userID,
		profileSub: profileSub,
		out:        make(chan models.Snapshot, 1),
	}
	go sess.run(ctx)
	return sess.out, nil
}

type session struct {
	syncer *Syncer
	userID string
	out    chan models.Snapshot

	profileSub realtime.Subscription
	familySub  realtime.Subscription
	itemsSub   realtime.Subscription

	familyID      string
	profileLoaded bool
	family        *models.Family
	familyLoaded  bool
	items         []models.Item
	itemsLoaded   bool

	profileErr error
	familyErr  error
	itemsErr   error

	resync *time.Timer
}

func (s *session) run(ctx context.Context) {
	metrics.SyncSessionStarted()
	defer metrics.SyncSessionEnded()
	defer close(s.out)
	defer s.release()

	slog.Debug("Sync session started", "user_id", s.userID)

	s.publish()
	s.refreshProfile(ctx)
	s.publish()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Sync session ended", "user_id", s.userID)
			return
		case <-s.profileSub.C():
			s.refreshProfile(ctx)
		case <-notifications(s.familySub):
			s.refreshFamily(ctx)
		case <-notifications(s.itemsSub):
			s.refreshItems(ctx)
		case <-s.resyncC():
			s.resync = nil
			s.resyncAll(ctx)
		}
		if ctx.Err() != nil {
			return
		}
		s.publish()
	}
}

// notifications returns nil for a missing subscription so its select case
// never fires.
func notifications(sub realtime.Subscription) <-chan struct{} {
	if sub == nil {
		return nil
	}
	return sub.C()
}

func (s *session) resyncC() <-chan time.Time {
	if s.resync == nil {
		return nil
	}
	return s.resync.C
}

func (s *session) refreshProfile(ctx context.Context) {
	familyID := ""
	profile, err := s.syncer.store.GetProfile(ctx, s.userID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		s.profileErr = err
		return
	default:
		familyID = profile.FamilyID
	}
	s.profileErr = nil
	s.profileLoaded = true

	if familyID != s.familyID || (familyID != "" && s.familySub == nil) {
		s.switchFamily(ctx, familyID)
	}
}

// switchFamily releases the subscriptions of the previous family before
// subscribing to the new one, so no stale notification can be observed.
func (s *session) switchFamily(ctx context.Context, familyID string) {
	s.closeFamilySubs()
	s.familyID = familyID
	s.family, s.familyLoaded, s.familyErr = nil, false, nil
	s.items, s.itemsLoaded, s.itemsErr = nil, false, nil
	if familyID == "" {
		return
	}

	slog.Debug("Sync session switched family", "user_id", s.userID, "family_id", familyID)

	familySub, err := s.syncer.broker.Subscribe(ctx, realtime.FamilyTopic(familyID))
	if err != nil {
		s.familyErr = fmt.Errorf("subscribe family: %w", err)
		return
	}
	itemsSub, err := s.syncer.broker.Subscribe(ctx, realtime.ItemsTopic(familyID))
	if err != nil {
		familySub.Close()
		s.familyErr = fmt.Errorf("subscribe items: %w", err)
		return
	}
	s.familySub, s.itemsSub = familySub, itemsSub

	s.refreshFamily(ctx)
	s.refreshItems(ctx)
}

func (s *session) refreshFamily(ctx context.Context) {
	family, err := s.syncer.store.GetFamily(ctx, s.familyID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Dangling profile link: nothing to show, nothing to wait for.
		family = nil
	case err != nil:
		s.familyErr = err
		return
	}
	s.family, s.familyLoaded, s.familyErr = family, true, nil
}

func (s *session) refreshItems(ctx context.Context) {
	items, err := s.syncer.store.ListItemsByFamily(ctx, s.familyID)
	if err != nil {
		s.itemsErr = err
		return
	}
	views.SortNewestFirst(items)
	s.items, s.itemsLoaded, s.itemsErr = items, true, nil
}

func (s *session) resyncAll(ctx context.Context) {
	s.refreshProfile(ctx)
	if s.familyID == "" || s.familySub == nil {
		return
	}
	if s.familyErr != nil {
		s.refreshFamily(ctx)
	}
	if s.itemsErr != nil {
		s.refreshItems(ctx)
	}
}

func (s *session) err() error {
	return errors.Join(s.profileErr, s.familyErr, s.itemsErr)
}

func (s *session) snapshot() models.Snapshot {
	snap := models.Snapshot{UserID: s.userID, Items: []models.Item{}}
	if s.familyID != "" && s.familyLoaded {
		snap.Family = s.family
	}
	// Items only ever travel with the family they belong to.
	if snap.Family != nil && s.itemsLoaded {
		snap.Items = s.items
	}

	waitingFamily := s.familyID != "" && !s.familyLoaded
	waitingItems := snap.Family != nil && !s.itemsLoaded
	snap.Loading = !s.profileLoaded || waitingFamily || waitingItems

	switch err := s.err(); {
	case err != nil:
		snap.Status, snap.Err = models.SyncUnavailable, err
	case snap.Loading:
		snap.Status = models.SyncLoading
	default:
		snap.Status = models.SyncLive
	}
	return snap
}

// publish replaces any unread snapshot with the current one. The session is
// the only sender, so the send after draining never blocks.
func (s *session) publish() {
	snap := s.snapshot()
	if snap.Err != nil {
		slog.Warn("Sync session unavailable", "user_id", s.userID, "family_id", s.familyID, "error", snap.Err)
		if s.resync == nil {
			s.resync = time.NewTimer(s.syncer.resync)
		}
	}

	select {
	case s.out <- snap:
	default:
		select {
		case <-s.out:
		default:
		}
		s.out <- snap
	}
	metrics.ObserveSnapshot(string(snap.Status))
}

func (s *session) closeFamilySubs() {
	if s.familySub != nil {
		s.familySub.Close()
		s.familySub = nil
	}
	if s.itemsSub != nil {
		s.itemsSub.Close()
		s.itemsSub = nil
	}
}

func (s *session) release() {
	if s.resync != nil {
		s.resync.Stop()
	}
	s.closeFamilySubs()
	s.profileSub.Close()
}
