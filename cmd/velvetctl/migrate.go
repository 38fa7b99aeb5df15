package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/infrastructure/migration"
	"github.com/velvet/backend/internal/infrastructure/persistence"
)

var errNotPostgres = errors.New("migrations apply to the postgres driver only; sqlite ledgers are migrated on server start")

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the generation ledger SQL migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
					return m.Up()
				})
			},
		},
		newMigrateDownCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
					st, err := m.Status()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), st)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q: %w", args[0], err)
				}
				return withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
					return m.Force(version)
				})
			},
		},
	)
	return cmd
}

func newMigrateDownCmd() *cobra.Command {
	var (
		steps int
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && steps < 1 {
				return fmt.Errorf("--steps must be at least 1, got %d", steps)
			}
			return withMigrator(func(m *migration.Migrator, _ *zap.Logger) error {
				if all {
					return m.Down()
				}
				return m.Steps(-steps)
			})
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.Flags().BoolVar(&all, "all", false, "roll back every migration")
	return cmd
}

func withMigrator(fn func(m *migration.Migrator, log *zap.Logger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	if cfg.Database.Driver != persistence.DriverPostgres {
		return errNotPostgres
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("connect to database: %w", err)
	}

	m, err := migration.New(db, log)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	return fn(m, log)
}
