// Package migration applies the ledger's SQL migrations to PostgreSQL with
// golang-migrate. SQLite deployments use gorm AutoMigrate instead.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/velvet/backend/migrations"
)

// Table records the applied version, kept apart from any other schema
// tooling sharing the database.
const Table = "velvet_schema_migrations"

// Status is the schema version recorded in the database. A fresh database
// reports version 0.
type Status struct {
	Version uint
	Dirty   bool
}

func (s Status) String() string {
	return fmt.Sprintf("version=%d dirty=%t", s.Version, s.Dirty)
}

// Migrator runs the ledger migrations against one database
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New uses the migrations embedded in the binary
func New(db *sql.DB, log *zap.Logger) (*Migrator, error) {
	return NewWithSource(db, migrations.FS, log)
}

func NewWithSource(db *sql.DB, fsys fs.FS, log *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: Table})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migration setup: %w", err)
	}

	m.Log = migrateLog{log.Named("migrate").Sugar()}
	return &Migrator{m: m, log: log}, nil
}

// Up applies every pending migration
func (mg *Migrator) Up() error {
	return mg.apply("up", mg.m.Up)
}

// Down rolls back every applied migration
func (mg *Migrator) Down() error {
	return mg.apply("down", mg.m.Down)
}

// Steps moves n migrations forward, or back when n is negative
func (mg *Migrator) Steps(n int) error {
	return mg.apply(fmt.Sprintf("steps %d", n), func() error { return mg.m.Steps(n) })
}

func (mg *Migrator) apply(direction string, run func() error) error {
	err := run()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("Ledger schema unchanged", zap.String("direction", direction))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}

	st, err := mg.Status()
	if err != nil {
		return err
	}
	mg.log.Info("Ledger schema migrated",
		zap.String("direction", direction),
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty),
	)
	return nil
}

func (mg *Migrator) Status() (Status, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("migration version: %w", err)
	}
	return Status{Version: version, Dirty: dirty}, nil
}

// Force records version without running anything, clearing the dirty flag a
// failed migration leaves behind.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("Forcing ledger schema version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and closes the database handle
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLog adapts zap to migrate.Logger
type migrateLog struct {
	s *zap.SugaredLogger
}

func (l migrateLog) Printf(format string, v ...any) {
	l.s.Debugf(strings.TrimSuffix(format, "\n"), v...)
}

func (l migrateLog) Verbose() bool {
	return false
}
