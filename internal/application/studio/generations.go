package studio

import (
	"context"
	"fmt"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/shared"
)

// ListGenerations returns the newest ledger entries; limit is clamped to
// [1, generation.MaxListLimit] with generation.DefaultListLimit for zero.
func (s *Service) ListGenerations(ctx context.Context, limit int) ([]generation.Record, error) {
	if s.records == nil {
		return nil, shared.ErrNotConfigured.WithMessage("generation ledger is not configured")
	}
	return s.records.ListRecent(ctx, generation.ClampLimit(limit))
}

// GetGeneration returns the ledger entry for a task id
func (s *Service) GetGeneration(ctx context.Context, taskID string) (*generation.Record, error) {
	if s.records == nil {
		return nil, shared.ErrNotConfigured.WithMessage("generation ledger is not configured")
	}
	if taskID == "" {
		return nil, shared.ErrInvalidInput.WithMessage("task id is required")
	}
	record, err := s.records.FindByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("find generation %s: %w", taskID, err)
	}
	return record, nil
}
