package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/familysync/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		// Opening a store applies the schema.
		store, err := app.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		slog.Info("Schema up to date", "driver", cfg.Storage.Driver)
		return store.Close()
	},
}
