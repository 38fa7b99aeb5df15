// Package studio implements the 3D studio use cases: product lookup with
// demo fallback, model generation, store publishing, marketing campaigns,
// variant images and the generation ledger.
package studio

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/demo"
	"github.com/velvet/backend/internal/infrastructure/logger"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// Result messages shown by the console
const (
	MessageProductNotFound   = "Product not found"
	MessagePublishedReal     = "Published to Real Shopify Metafields (velvet.model_url)"
	MessagePublishFailed     = "Failed to publish to Shopify."
	MessagePublishedSimulate = "3D Model published (Simulation Mode - Connect Store for Real)"
	MessageCampaignTriggered = "Campaign Triggered in Klaviyo"
	MessageCampaignFailed    = "Failed to trigger campaign"
	MessageVariantGenerated  = "Variant Generated via Gemini"
	MessageVariantFailed     = "Failed to generate variant."

	// Placeholder model URL tracked when a real generation starts
	GeneratingModelURL = "Generating (OpenAI Voxel)..."
)

// Service coordinates the storefront, marketing and generative adapters
type Service struct {
	store    integration.Storefront
	catalog  integration.ProductCatalog
	tracker  integration.MarketingTracker
	vision   integration.VisionAnalyzer
	geometry integration.GeometryGenerator
	images   integration.ImageGenerator
	mesh     integration.MeshGenerator
	records  generation.RecordRepository
	archive  integration.AssetArchive

	delays  demo.Delays
	metrics *telemetry.StudioMetrics
	logger  *zap.Logger
	now     func() time.Time

	pending sync.WaitGroup
}

// Option configures a Service
type Option func(*Service)

// WithVision sets the image analyzer used for structure descriptions and variant prompts
func WithVision(v integration.VisionAnalyzer) Option {
	return func(s *Service) { s.vision = v }
}

// WithGeometry sets the voxel primitive generator
func WithGeometry(g integration.GeometryGenerator) Option {
	return func(s *Service) { s.geometry = g }
}

// WithImages sets the variant image generator
func WithImages(g integration.ImageGenerator) Option {
	return func(s *Service) { s.images = g }
}

// WithMesh sets the image-to-3D task client
func WithMesh(m integration.MeshGenerator) Option {
	return func(s *Service) { s.mesh = m }
}

// WithRecords sets the generation ledger
func WithRecords(r generation.RecordRepository) Option {
	return func(s *Service) { s.records = r }
}

// WithArchive sets the asset archive
func WithArchive(a integration.AssetArchive) Option {
	return func(s *Service) { s.archive = a }
}

// WithDelays overrides the simulated latencies
func WithDelays(d demo.Delays) Option {
	return func(s *Service) { s.delays = d }
}

// WithMetrics sets the studio metrics
func WithMetrics(m *telemetry.StudioMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the fallback logger used when the context carries none
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now for task ids and archive keys
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a studio Service
func NewService(
	store integration.Storefront,
	catalog integration.ProductCatalog,
	tracker integration.MarketingTracker,
	opts ...Option,
) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		tracker: tracker,
		delays:  demo.DefaultDelays(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// log returns the request logger when one is attached, else the service logger
func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.L(ctx, s.logger)
}

func (s *Service) archiveEnabled() bool {
	return s.archive != nil && s.archive.Enabled()
}

// Wait blocks until background tracking calls have finished
func (s *Service) Wait() {
	s.pending.Wait()
}

// goTrack runs fn detached from the request's cancellation
func (s *Service) goTrack(ctx context.Context, name string, fn func(ctx context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := fn(ctx); err != nil {
			s.log(ctx).Error("Background tracking failed", zap.String("event", name), zap.Error(err))
		}
	}()
}
