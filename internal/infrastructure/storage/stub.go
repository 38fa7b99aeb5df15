package storage

import (
	"context"

	"github.com/velvet/backend/internal/domain/integration"
)

// StubAssetArchive is used when storage is disabled. It reports Enabled()
// false and accepts every write without storing anything.
type StubAssetArchive struct{}

// NewStubAssetArchive creates a new StubAssetArchive
func NewStubAssetArchive() *StubAssetArchive {
	return &StubAssetArchive{}
}

// Ensure StubAssetArchive implements AssetArchive
var _ integration.AssetArchive = (*StubAssetArchive)(nil)

// Enabled always reports false
func (s *StubAssetArchive) Enabled() bool {
	return false
}

// PutJSON is a no-op
func (s *StubAssetArchive) PutJSON(context.Context, string, any) error {
	return nil
}

// CopyFromURL is a no-op
func (s *StubAssetArchive) CopyFromURL(context.Context, string, string) error {
	return nil
}
