package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/familysync/internal/middleware"
	"github.com/mmynk/familysync/internal/syncer"
)

// SyncService streams the caller's live snapshot.
type SyncService struct {
	syncer *syncer.Syncer
}

// NewSyncService creates a SyncService.
func NewSyncService(s *syncer.Syncer) *SyncService {
	return &SyncService{syncer: s}
}

// Watch sends a snapshot on every change until the client goes away.
func (s *SyncService) Watch(ctx context.Context, _ *connect.Request[WatchRequest], stream *connect.ServerStream[Snapshot]) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	userID := middleware.GetUserID(ctx)
	snapshots, err := s.syncer.Watch(ctx, userID)
	if err != nil {
		return connectError(err)
	}

	slog.Info("Watch started", "user_id", userID)
	for snap := range snapshots {
		if err := stream.Send(NewSnapshot(snap)); err != nil {
			slog.Debug("Watch stream closed", "user_id", userID, "error", err)
			return err
		}
	}
	slog.Info("Watch ended", "user_id", userID)
	return nil
}
