package integration

import (
	"context"
	"time"

	"github.com/velvet/backend/internal/domain/catalog"
)

// Metric names tracked by the studio
const (
	MetricGenerated3DModel  = "Generated 3D Model"
	MetricCampaignTriggered = "3D Campaign Triggered"
	MetricVariantGenerated  = "Generated Product Variant"
)

// ActionSource is attached to every tracked event
const ActionSource = "Shopify 3D Console"

// TrackResult reports how an event was handled
type TrackResult struct {
	Success bool `json:"success"`
	Mock    bool `json:"mock,omitempty"`
}

// MarketingEvent is a tracked event read back from the marketing platform
type MarketingEvent struct {
	ID         string         `json:"id"`
	Timestamp  time.Time      `json:"timestamp"`
	Email      string         `json:"email"`
	Properties map[string]any `json:"properties"`
}

// MarketingTracker is the port to the marketing automation platform
type MarketingTracker interface {
	Track3DGeneration(ctx context.Context, email string, product *catalog.Product, modelURL string) (*TrackResult, error)
	TriggerCampaign(ctx context.Context, email, segment string, product *catalog.Product, modelURL string) (*TrackResult, error)
	TrackVariantGeneration(ctx context.Context, email string, product *catalog.Product, variantPrompt, imageURL string) (*TrackResult, error)

	// RecentEvents returns the latest events of a metric, newest first.
	RecentEvents(ctx context.Context, metricName string) ([]MarketingEvent, error)
}
