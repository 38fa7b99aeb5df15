package studio

import (
	"context"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// RecoveryRateUnavailable is reported until recovery flows are measured
const RecoveryRateUnavailable = "N/A"

// Dashboard summarizes recent 3D generation activity in the marketing platform
type Dashboard struct {
	TotalGenerated int                          `json:"totalGenerated"`
	FlowsTriggered int                          `json:"flowsTriggered"`
	RecoveryRate   string                       `json:"recoveryRate"`
	Events         []integration.MarketingEvent `json:"events"`
}

// CampaignDashboard reads the recent "Generated 3D Model" events. A failed
// read yields an empty dashboard.
func (s *Service) CampaignDashboard(ctx context.Context) *Dashboard {
	ctx, span := telemetry.StartServiceSpan(ctx, "studio", "campaign_dashboard")
	defer span.End()

	events, err := s.tracker.RecentEvents(ctx, integration.MetricGenerated3DModel)
	if err != nil {
		s.log(ctx).Warn("Failed to read recent marketing events", zap.Error(err))
		events = nil
	}
	if events == nil {
		events = []integration.MarketingEvent{}
	}

	return &Dashboard{
		TotalGenerated: len(events),
		FlowsTriggered: len(events),
		RecoveryRate:   RecoveryRateUnavailable,
		Events:         events,
	}
}
