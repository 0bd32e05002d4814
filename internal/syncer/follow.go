package syncer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmynk/familysync/internal/auth"
	"github.com/mmynk/familysync/internal/models"
)

// Follow runs a session for whichever user provider reports as signed in.
// Every identity change ends the current session, releasing its
// subscriptions, before the next one starts. Sign-out leaves no session
// running. The returned channel is closed once ctx ends.
func (s *Syncer) Follow(ctx context.Context, provider auth.Provider) <-chan models.Snapshot {
	changes := newLatest()
	unsubscribe := provider.OnIdentityChange(changes.set)

	out := make(chan models.Snapshot)
	go func() {
		defer close(out)
		defer unsubscribe()

		var (
			snapshots <-chan models.Snapshot
			stop      context.CancelFunc = func() {}
		)
		endSession := func() {
			stop()
			if snapshots == nil {
				return
			}
			// Drain until the session has released everything.
			for range snapshots {
			}
			snapshots = nil
		}
		defer endSession()

		for {
			select {
			case <-ctx.Done():
				return
			case <-changes.ready:
				id := changes.take()
				endSession()
				if id.UserID == "" {
					slog.Info("Signed out, sync stopped")
					continue
				}
				sessCtx, cancel := context.WithCancel(ctx)
				ch, err := s.Watch(sessCtx, id.UserID)
				if err != nil {
					cancel()
					slog.Error("Sync session failed to start", "user_id", id.UserID, "error", err)
					continue
				}
				snapshots, stop = ch, cancel
			case snap, ok := <-snapshots:
				if !ok {
					snapshots = nil
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// latest holds the most recent identity announced by a provider callback.
type latest struct {
	mu    sync.Mutex
	id    auth.Identity
	ready chan struct{}
}

func newLatest() *latest {
	return &latest{ready: make(chan struct{}, 1)}
}

func (l *latest) set(id auth.Identity) {
	l.mu.Lock()
	l.id = id
	l.mu.Unlock()
	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *latest) take() auth.Identity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.id
}
