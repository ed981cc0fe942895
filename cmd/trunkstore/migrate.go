package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trunkstore-lab/trunkstore/internal/core/storage/postgres"
	"github.com/trunkstore-lab/trunkstore/internal/migrations"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status]",
		Short: "Manage the schema contract",
		Long: `Apply, roll back or inspect the schema contract migration.

Examples:
  trunkstore migrate
  trunkstore migrate status --format json
  trunkstore migrate down`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}

			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			db, err := postgres.Connect(postgresOptions(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			switch action {
			case "up":
				return migrations.RunMigrations(db, true)
			case "down":
				return migrations.Rollback(db)
			case "status":
				status, err := migrations.CurrentStatus(db)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return json.NewEncoder(out).Encode(status)
				}
				if !status.Applied {
					fmt.Fprintln(out, "No migrations applied.")
					return nil
				}
				fmt.Fprintf(out, "version %d (dirty: %t)\n", status.Version, status.Dirty)
				return nil
			default:
				return fmt.Errorf("unknown migrate action %q: must be up, down or status", action)
			}
		},
	}
}
