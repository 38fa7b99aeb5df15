package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/velvet/backend/internal/infrastructure/config"
)

// newMockDatabase creates a Database instance with a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB, Driver: DriverPostgres}, mock, mockDB
}

func newSQLiteDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}, nil)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens in-memory sqlite", func(t *testing.T) {
		db := newSQLiteDatabase(t)
		assert.Equal(t, DriverSQLite, db.Driver)
		assert.NoError(t, db.Ping())
		assert.True(t, db.DB.Migrator().HasTable("generation_records"))
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})
}

func TestDatabase_Stats(t *testing.T) {
	db := newSQLiteDatabase(t)

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MaxOpenConnections)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Ping(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	mock.ExpectPing()

	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Close(t *testing.T) {
	db, mock, _ := newMockDatabase(t)

	mock.ExpectClose()

	assert.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
