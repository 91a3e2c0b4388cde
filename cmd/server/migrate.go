package main

import (
	"fmt"

	"github.com/prperemyshlev/page-manager/internal/app"
	"github.com/prperemyshlev/page-manager/internal/migrations"
	"github.com/prperemyshlev/page-manager/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply or roll back the embedded credential store migrations.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back every migration
  status  - Show the current schema version`,
	}

	withDB := func(run func(cmd *cobra.Command, pg *database.Postgres) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}

			pg, err := database.NewPostgres(cmd.Context(), cfg.Postgres.DSN())
			if err != nil {
				return err
			}
			defer pg.Close()

			return run(cmd, pg)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, pg *database.Postgres) error {
				if err := app.Migrate(cmd.Context(), pg, true); err != nil {
					return err
				}
				cmd.Println("Migrations applied")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, pg *database.Postgres) error {
				if err := app.Migrate(cmd.Context(), pg, false); err != nil {
					return err
				}
				cmd.Println("Migrations rolled back")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current schema version",
			Args:  cobra.NoArgs,
			RunE: withDB(func(cmd *cobra.Command, pg *database.Postgres) error {
				migrator, err := database.NewMigrator(cmd.Context(), pg, migrations.FS, migrations.Dir)
				if err != nil {
					return err
				}
				defer migrator.Close()

				version, dirty, err := migrator.Version()
				if err != nil {
					return fmt.Errorf("failed to read schema version: %w", err)
				}
				cmd.Printf("version %d (dirty: %t)\n", version, dirty)
				return nil
			}),
		},
	)

	return cmd
}
