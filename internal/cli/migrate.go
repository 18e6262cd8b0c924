package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/migrator"
	"github.com/eleven-am/tasknest/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back schema migrations",
		Long: `Manage the TaskNest schema using the SQL migrations built into the binary.
Applied migrations are recorded with a checksum in the migrations table.`,
	}

	migrateCmd.AddCommand(newMigrateUpCmd(a), newMigrateDownCmd(a), newMigrateStatusCmd(a))
	return migrateCmd
}

func (a *app) newMigrator(ctx context.Context, createDB bool) (*migrator.Migrator, func(), error) {
	if createDB {
		dsn, err := a.dsn()
		if err != nil {
			return nil, nil, err
		}
		if err := migrator.EnsureDatabaseExists(ctx, dsn); err != nil {
			return nil, nil, err
		}
	}

	db, err := a.connect(ctx)
	if err != nil {
		return nil, nil, err
	}

	m := migrator.New(db, migrations.FS,
		migrator.WithTable(a.cfg.Migrations.Table),
		migrator.WithLogger(logger.Migration()))
	return m, func() { db.Close() }, nil
}

func newMigrateUpCmd(a *app) *cobra.Command {
	var createDB bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			m, closeDB, err := a.newMigrator(ctx, createDB)
			if err != nil {
				return err
			}
			defer closeDB()

			applied, err := m.Up(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "Applied %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&createDB, "create-db", false, "create the database if it does not exist")
	return cmd
}

func newMigrateDownCmd(a *app) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			m, closeDB, err := a.newMigrator(ctx, false)
			if err != nil {
				return err
			}
			defer closeDB()

			rolledBack, err := m.Down(ctx, steps)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rolledBack) == 0 {
				fmt.Fprintln(out, "Nothing to roll back")
			}
			for _, name := range rolledBack {
				fmt.Fprintf(out, "Rolled back %s\n", name)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	return cmd
}

func newMigrateStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			m, closeDB, err := a.newMigrator(ctx, false)
			if err != nil {
				return err
			}
			defer closeDB()

			status, err := m.Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput {
				return printJSON(out, status)
			}

			t := newTable(out, "MIGRATION", "STATE", "APPLIED AT")
			changed := make(map[string]bool, len(status.Changed))
			for _, name := range status.Changed {
				changed[name] = true
			}
			for _, record := range status.Applied {
				state := "applied"
				if changed[record.Name] {
					state = "changed"
				}
				t.row(record.Name, state, formatTime(record.AppliedAt))
			}
			for _, pending := range status.Pending {
				t.row(pending.Name, "pending", "-")
			}
			if err := t.flush(); err != nil {
				return err
			}

			for _, name := range status.Orphaned {
				fmt.Fprintf(out, "Warning: %s is recorded but has no migration file\n", name)
			}
			if len(status.Changed) > 0 {
				return fmt.Errorf("%d applied migration(s) were edited: %w", len(status.Changed), migrator.ErrChecksumMismatch)
			}
			return nil
		},
	}
}
