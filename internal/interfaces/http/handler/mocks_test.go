package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/velvet/backend/internal/application/studio"
	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/auth"
)

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context, creds integration.Credentials) ([]catalog.Product, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, creds integration.Credentials, productID string, allowMock bool) (*catalog.Product, error) {
	args := m.Called(ctx, creds, productID, allowMock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductService) Generate3DModel(ctx context.Context, creds integration.Credentials, productID, email string, mode generation.Mode) (*generation.Result, error) {
	args := m.Called(ctx, creds, productID, email, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Result), args.Error(1)
}

func (m *MockProductService) PublishToStore(ctx context.Context, creds integration.Credentials, productID, modelURL string) (*generation.ActionResult, error) {
	args := m.Called(ctx, creds, productID, modelURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.ActionResult), args.Error(1)
}

func (m *MockProductService) SendCampaign(ctx context.Context, creds integration.Credentials, productID, segment, email, modelURL string) (*generation.ActionResult, error) {
	args := m.Called(ctx, creds, productID, segment, email, modelURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.ActionResult), args.Error(1)
}

func (m *MockProductService) GenerateVariantImage(ctx context.Context, creds integration.Credentials, productID, email, request string) (*generation.VariantResult, error) {
	args := m.Called(ctx, creds, productID, email, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.VariantResult), args.Error(1)
}

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) CampaignDashboard(ctx context.Context) *studio.Dashboard {
	return m.Called(ctx).Get(0).(*studio.Dashboard)
}

// MockGenerationService is a mock implementation of GenerationService
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) ListGenerations(ctx context.Context, limit int) ([]generation.Record, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]generation.Record), args.Error(1)
}

func (m *MockGenerationService) GetGeneration(ctx context.Context, taskID string) (*generation.Record, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.Record), args.Error(1)
}

// MockMeshService is a mock implementation of MeshService
type MockMeshService struct {
	mock.Mock
}

func (m *MockMeshService) CreateMeshTask(ctx context.Context, creds integration.Credentials, productID string) (string, error) {
	args := m.Called(ctx, creds, productID)
	return args.String(0), args.Error(1)
}

func (m *MockMeshService) GetMeshTask(ctx context.Context, taskID string) (*generation.MeshTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*generation.MeshTask), args.Error(1)
}

// MockStateManager is a mock implementation of StateManager
type MockStateManager struct {
	mock.Mock
}

func (m *MockStateManager) Issue(ctx context.Context, provider auth.Provider, shop string) (string, error) {
	args := m.Called(ctx, provider, shop)
	return args.String(0), args.Error(1)
}

func (m *MockStateManager) Verify(ctx context.Context, token string, provider auth.Provider, shop string) (*auth.StateClaims, error) {
	args := m.Called(ctx, token, provider, shop)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.StateClaims), args.Error(1)
}

// MockShopifyExchanger is a mock implementation of ShopifyTokenExchanger
type MockShopifyExchanger struct {
	mock.Mock
}

func (m *MockShopifyExchanger) ExchangeToken(ctx context.Context, shop, code string) (string, error) {
	args := m.Called(ctx, shop, code)
	return args.String(0), args.Error(1)
}

// MockKlaviyoExchanger is a mock implementation of KlaviyoTokenExchanger
type MockKlaviyoExchanger struct {
	mock.Mock
}

func (m *MockKlaviyoExchanger) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	args := m.Called(ctx, code, redirectURI)
	return args.String(0), args.Error(1)
}

// MockPinger is a mock implementation of Pinger
type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) PingContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
