package main

import (
	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-auth-api/cmd/authctl/ui"
	"github.com/redmonkez12/go-auth-api/internal/database/migrations"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			group, err := migrations.Up(cmd.Context(), e.db)
			if err != nil {
				return err
			}

			ui.PrintMigrationGroup("migrated to", group)
			return nil
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration group",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			group, err := migrations.Down(cmd.Context(), e.db)
			if err != nil {
				return err
			}

			ui.PrintMigrationGroup("rolled back", group)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			ms, err := migrations.Status(cmd.Context(), e.db)
			if err != nil {
				return err
			}

			ui.PrintMigrationStatus(ms)
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd, statusCmd)
	return cmd
}
