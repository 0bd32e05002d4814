package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmynk/familysync/internal/app"
	"github.com/mmynk/familysync/internal/auth"
	"github.com/mmynk/familysync/internal/models"
	"github.com/mmynk/familysync/internal/service"
)

var watchToken string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a user's live snapshot as JSON lines",
	Long: `watch signs in with --token (or as a new anonymous user) against the
configured store and prints every snapshot of that user's session.

Changes made by a running server are only seen when realtime.redis_url is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.Realtime.RedisURL == "" {
			slog.Warn("No redis_url configured, only changes made by this process are seen")
		}

		session := auth.NewSession(a.JWT)
		snapshots := a.Syncer.Follow(ctx, session)

		id, err := auth.Bootstrap(ctx, session, watchToken)
		if err != nil {
			return err
		}
		slog.Info("Watching", "user_id", id.UserID)
		if watchToken == "" {
			slog.Info("Reuse this identity with --token", "token", id.Token)
		}

		return writeSnapshots(cmd.OutOrStdout(), snapshots)
	},
}

// writeSnapshots prints each snapshot in its RPC wire shape, one JSON object
// per line, until snapshots is closed.
func writeSnapshots(w io.Writer, snapshots <-chan models.Snapshot) error {
	enc := json.NewEncoder(w)
	for snap := range snapshots {
		if err := enc.Encode(service.NewSnapshot(snap)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	watchCmd.Flags().StringVar(&watchToken, "token", "", "session token from SignIn")
}
