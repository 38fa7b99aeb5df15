package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/shared"
)

// GormGenerationRecordRepository implements generation.RecordRepository using GORM
type GormGenerationRecordRepository struct {
	db *gorm.DB
}

// NewGormGenerationRecordRepository creates a new GormGenerationRecordRepository
func NewGormGenerationRecordRepository(db *gorm.DB) *GormGenerationRecordRepository {
	return &GormGenerationRecordRepository{db: db}
}

// Save inserts a ledger entry
func (r *GormGenerationRecordRepository) Save(ctx context.Context, record *generation.Record) error {
	if record == nil || record.TaskID == "" {
		return shared.ErrInvalidInput.WithMessage("generation record requires a task id")
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: task %s", shared.ErrConflict, record.TaskID)
		}
		return fmt.Errorf("failed to save generation record: %w", err)
	}
	return nil
}

// FindByTaskID finds the entry written for a task
func (r *GormGenerationRecordRepository) FindByTaskID(ctx context.Context, taskID string) (*generation.Record, error) {
	var record generation.Record
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListRecent returns the newest entries first
func (r *GormGenerationRecordRepository) ListRecent(ctx context.Context, limit int) ([]generation.Record, error) {
	var records []generation.Record
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(generation.ClampLimit(limit)).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list generation records: %w", err)
	}
	return records, nil
}

var _ generation.RecordRepository = (*GormGenerationRecordRepository)(nil)
