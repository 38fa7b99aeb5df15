package generation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one entry of the generation history ledger
type Record struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID         string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	ProductID      string    `gorm:"type:varchar(64);not null;index"`
	ProductTitle   string    `gorm:"type:varchar(255);not null"`
	Mode           Mode      `gorm:"type:varchar(16);not null"`
	ModelURL       string    `gorm:"type:text"`
	PrimitiveCount int       `gorm:"not null;default:0"`
	Email          string    `gorm:"type:varchar(255)"`
	Source         string    `gorm:"type:varchar(16);not null"`
	CreatedAt      time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (Record) TableName() string {
	return "generation_records"
}

// NewRecord creates a ledger entry for a finished generation
func NewRecord(taskID, productID, productTitle string, mode Mode, source string) *Record {
	return &Record{
		ID:           uuid.New(),
		TaskID:       taskID,
		ProductID:    productID,
		ProductTitle: productTitle,
		Mode:         mode,
		Source:       source,
		CreatedAt:    time.Now().UTC(),
	}
}

// Ledger limits
const (
	DefaultListLimit = 10
	MaxListLimit     = 50
)

// RecordRepository persists generation ledger entries
type RecordRepository interface {
	Save(ctx context.Context, record *Record) error
	FindByTaskID(ctx context.Context, taskID string) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}

// ClampLimit bounds a requested page size to [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
