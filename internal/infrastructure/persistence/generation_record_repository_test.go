package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/shared"
	"github.com/velvet/backend/internal/infrastructure/config"
	"github.com/velvet/backend/internal/infrastructure/migration"
)

func newMockGenerationRecordRepository(t *testing.T) (*GormGenerationRecordRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormGenerationRecordRepository(gormDB), mock, mockDB
}

func fakeRecord(createdAt time.Time) *generation.Record {
	r := generation.NewRecord(
		generation.TaskPrefixVoxel+"_"+gofakeit.UUID(),
		"gid://shopify/Product/"+gofakeit.DigitN(10),
		gofakeit.ProductName(),
		generation.ModeReal,
		"shopify",
	)
	r.Email = gofakeit.Email()
	r.PrimitiveCount = gofakeit.IntRange(1, 40)
	r.CreatedAt = createdAt.UTC()
	return r
}

func TestGormGenerationRecordRepository_FindByTaskID(t *testing.T) {
	t.Run("finds existing record", func(t *testing.T) {
		repo, mock, mockDB := newMockGenerationRecordRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "task_id", "product_id", "product_title", "mode", "model_url", "primitive_count", "email", "source", "created_at"}).
			AddRow(id, "voxel_123", "prod_001", "Modern Velvet Armchair", "mock", "", 0, "", "demo", time.Now())

		mock.ExpectQuery(`SELECT \* FROM "generation_records" WHERE task_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("voxel_123", 1).
			WillReturnRows(rows)

		record, err := repo.FindByTaskID(context.Background(), "voxel_123")
		require.NoError(t, err)
		assert.Equal(t, id, record.ID)
		assert.Equal(t, generation.ModeMock, record.Mode)
		assert.Equal(t, "demo", record.Source)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		repo, mock, mockDB := newMockGenerationRecordRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "generation_records" WHERE task_id = \$1`).
			WithArgs("voxel_missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByTaskID(context.Background(), "voxel_missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormGenerationRecordRepository_ListRecent_QueryError(t *testing.T) {
	repo, mock, mockDB := newMockGenerationRecordRepository(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "generation_records" ORDER BY created_at DESC LIMIT \$1`).
		WithArgs(generation.DefaultListLimit).
		WillReturnError(fmt.Errorf("connection reset"))

	_, err := repo.ListRecent(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list generation records")
}

func TestGormGenerationRecordRepository_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("saves and lists newest first", func(t *testing.T) {
		repo := NewGormGenerationRecordRepository(newSQLiteDatabase(t).DB)

		base := time.Now().Add(-time.Hour)
		var saved []*generation.Record
		for i := 0; i < 3; i++ {
			r := fakeRecord(base.Add(time.Duration(i) * time.Minute))
			require.NoError(t, repo.Save(ctx, r))
			saved = append(saved, r)
		}

		records, err := repo.ListRecent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, saved[2].TaskID, records[0].TaskID)
		assert.Equal(t, saved[1].TaskID, records[1].TaskID)

		found, err := repo.FindByTaskID(ctx, saved[0].TaskID)
		require.NoError(t, err)
		assert.Equal(t, saved[0].ProductTitle, found.ProductTitle)
		assert.Equal(t, saved[0].PrimitiveCount, found.PrimitiveCount)
	})

	t.Run("clamps oversized limit", func(t *testing.T) {
		repo := NewGormGenerationRecordRepository(newSQLiteDatabase(t).DB)
		for i := 0; i < generation.MaxListLimit+5; i++ {
			require.NoError(t, repo.Save(ctx, fakeRecord(time.Now())))
		}

		records, err := repo.ListRecent(ctx, 500)
		require.NoError(t, err)
		assert.Len(t, records, generation.MaxListLimit)
	})

	t.Run("rejects duplicate task id", func(t *testing.T) {
		repo := NewGormGenerationRecordRepository(newSQLiteDatabase(t).DB)
		first := fakeRecord(time.Now())
		require.NoError(t, repo.Save(ctx, first))

		dup := fakeRecord(time.Now())
		dup.TaskID = first.TaskID
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrConflict)
	})

	t.Run("rejects record without task id", func(t *testing.T) {
		repo := NewGormGenerationRecordRepository(newSQLiteDatabase(t).DB)
		assert.ErrorIs(t, repo.Save(ctx, &generation.Record{}), shared.ErrInvalidInput)
	})
}

func TestGormGenerationRecordRepository_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("velvet_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	db, err := NewDatabase(&config.DatabaseConfig{
		Driver:       DriverPostgres,
		Host:         host,
		Port:         port.Int(),
		User:         "postgres",
		Password:     "postgres",
		DBName:       "velvet_test",
		SSLMode:      "disable",
		MaxOpenConns: 4,
		MaxIdleConns: 2,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	m, err := migration.New(sqlDB, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, m.Up())

	repo := NewGormGenerationRecordRepository(db.DB)
	record := fakeRecord(time.Now())
	require.NoError(t, repo.Save(ctx, record))

	found, err := repo.FindByTaskID(ctx, record.TaskID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, found.ID)
	assert.Equal(t, record.Email, found.Email)

	dup := fakeRecord(time.Now())
	dup.TaskID = record.TaskID
	assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrConflict)
}
