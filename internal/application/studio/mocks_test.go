package studio

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
)

// MockStorefront is a mock implementation of integration.Storefront
type MockStorefront struct {
	mock.Mock
}

func (m *MockStorefront) ListProducts(ctx context.Context, creds integration.StoreCredentials) ([]catalog.Product, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockStorefront) GetProduct(ctx context.Context, creds integration.StoreCredentials, productID string) (*catalog.Product, error) {
	args := m.Called(ctx, creds, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockStorefront) PublishModelURL(ctx context.Context, creds integration.StoreCredentials, productID, modelURL string) error {
	return m.Called(ctx, creds, productID, modelURL).Error(0)
}

// MockTracker is a mock implementation of integration.MarketingTracker
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Track3DGeneration(ctx context.Context, email string, product *catalog.Product, modelURL string) (*integration.TrackResult, error) {
	args := m.Called(ctx, email, product, modelURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.TrackResult), args.Error(1)
}

func (m *MockTracker) TriggerCampaign(ctx context.Context, email, segment string, product *catalog.Product, modelURL string) (*integration.TrackResult, error) {
	args := m.Called(ctx, email, segment, product, modelURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.TrackResult), args.Error(1)
}

func (m *MockTracker) TrackVariantGeneration(ctx context.Context, email string, product *catalog.Product, variantPrompt, imageURL string) (*integration.TrackResult, error) {
	args := m.Called(ctx, email, product, variantPrompt, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.TrackResult), args.Error(1)
}

func (m *MockTracker) RecentEvents(ctx context.Context, metricName string) ([]integration.MarketingEvent, error) {
	args := m.Called(ctx, metricName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.MarketingEvent), args.Error(1)
}

// MockVision is a mock implementation of integration.VisionAnalyzer
type MockVision struct {
	mock.Mock
}

func (m *MockVision) DescribeStructure(ctx context.Context, imageURL string) (string, error) {
	args := m.Called(ctx, imageURL)
	return args.String(0), args.Error(1)
}

func (m *MockVision) SynthesizeVariantPrompt(ctx context.Context, imageURL, request string) (string, error) {
	args := m.Called(ctx, imageURL, request)
	return args.String(0), args.Error(1)
}

// MockGeometry is a mock implementation of integration.GeometryGenerator
type MockGeometry struct {
	mock.Mock
}

func (m *MockGeometry) GenerateGeometry(ctx context.Context, imageURL, description string) ([]generation.Primitive, error) {
	args := m.Called(ctx, imageURL, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]generation.Primitive), args.Error(1)
}

// MockImages is a mock implementation of integration.ImageGenerator
type MockImages struct {
	mock.Mock
}

func (m *MockImages) GenerateImage(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockMesh is a mock implementation of integration.MeshGenerator
type MockMesh struct {
	mock.Mock
}

func (m *MockMesh) CreateTask(ctx context.Context, imageURL string) (string, error) {
	args := m.Called(ctx, imageURL)
	return args.String(0), args.Error(1)
}

func (m *MockMesh) GetTask(ctx context.Context, taskID string) (*generation.MeshTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.MeshTask), args.Error(1)
}

// MockRecords is a mock implementation of generation.RecordRepository
type MockRecords struct {
	mock.Mock
}

func (m *MockRecords) Save(ctx context.Context, record *generation.Record) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockRecords) FindByTaskID(ctx context.Context, taskID string) (*generation.Record, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Record), args.Error(1)
}

func (m *MockRecords) ListRecent(ctx context.Context, limit int) ([]generation.Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]generation.Record), args.Error(1)
}

// MockArchive is a mock implementation of integration.AssetArchive
type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockArchive) PutJSON(ctx context.Context, key string, v any) error {
	return m.Called(ctx, key, v).Error(0)
}

func (m *MockArchive) CopyFromURL(ctx context.Context, key, url string) error {
	return m.Called(ctx, key, url).Error(0)
}
