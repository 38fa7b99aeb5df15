package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome values for AttrOutcome.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeFallback = "fallback"
)

// Metric attribute keys
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrVendor  = attribute.Key("vendor")
	AttrOutcome = attribute.Key("outcome")
	AttrMode    = attribute.Key("mode")
	AttrSource  = attribute.Key("source")
	AttrMetric  = attribute.Key("metric")
	AttrMock    = attribute.Key("mock")
)

var (
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

	// Image synthesis and mesh polling routinely take minutes
	vendorDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 180}
)

// StudioMetrics groups the counters and histograms the studio services record.
// A nil *StudioMetrics is valid and records nothing.
type StudioMetrics struct {
	generations    metric.Int64Counter
	publishes      metric.Int64Counter
	campaigns      metric.Int64Counter
	variants       metric.Int64Counter
	trackedEvents  metric.Int64Counter
	demoFallbacks  metric.Int64Counter
	httpRequests   metric.Int64Counter
	vendorDuration metric.Float64Histogram
	httpDuration   metric.Float64Histogram
}

// NewStudioMetrics registers the studio instruments on meter.
func NewStudioMetrics(meter metric.Meter) (*StudioMetrics, error) {
	var m StudioMetrics
	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.generations, "studio.generations", "3D generations by mode and outcome"},
		{&m.publishes, "studio.publishes", "Model URL publishes to the storefront"},
		{&m.campaigns, "studio.campaigns", "Campaign triggers"},
		{&m.variants, "studio.variants", "Product variant image generations"},
		{&m.trackedEvents, "studio.marketing.events", "Marketing events tracked by metric"},
		{&m.demoFallbacks, "studio.demo.fallbacks", "Requests served from demo data"},
		{&m.httpRequests, "http.server.requests", "Inbound HTTP requests"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("{call}"))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		*c.dst = counter
	}

	histograms := []struct {
		dst     *metric.Float64Histogram
		name    string
		desc    string
		buckets []float64
	}{
		{&m.vendorDuration, "studio.vendor.duration", "Outbound vendor call latency", vendorDurationBuckets},
		{&m.httpDuration, "http.server.duration", "Inbound HTTP request latency", httpDurationBuckets},
	}
	for _, h := range histograms {
		hist, err := meter.Float64Histogram(h.name,
			metric.WithDescription(h.desc),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(h.buckets...),
		)
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", h.name, err)
		}
		*h.dst = hist
	}
	return &m, nil
}

func inc(ctx context.Context, c metric.Int64Counter, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordGeneration counts a 3D generation attempt.
func (m *StudioMetrics) RecordGeneration(ctx context.Context, mode, outcome string) {
	if m == nil {
		return
	}
	inc(ctx, m.generations, AttrMode.String(mode), AttrOutcome.String(outcome))
}

// RecordPublish counts a publish attempt.
func (m *StudioMetrics) RecordPublish(ctx context.Context, source, outcome string) {
	if m == nil {
		return
	}
	inc(ctx, m.publishes, AttrSource.String(source), AttrOutcome.String(outcome))
}

// RecordCampaign counts a campaign trigger.
func (m *StudioMetrics) RecordCampaign(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	inc(ctx, m.campaigns, AttrOutcome.String(outcome))
}

// RecordVariant counts a variant generation.
func (m *StudioMetrics) RecordVariant(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	inc(ctx, m.variants, AttrOutcome.String(outcome))
}

// RecordTrackedEvent counts a marketing event, mock or real.
func (m *StudioMetrics) RecordTrackedEvent(ctx context.Context, metricName string, mock bool) {
	if m == nil {
		return
	}
	inc(ctx, m.trackedEvents, AttrMetric.String(metricName), AttrMock.Bool(mock))
}

// RecordDemoFallback counts a request answered from demo data.
func (m *StudioMetrics) RecordDemoFallback(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	inc(ctx, m.demoFallbacks, attribute.String("operation", operation))
}

// ObserveVendorCall records the latency of an outbound call.
func (m *StudioMetrics) ObserveVendorCall(ctx context.Context, vendor string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.vendorDuration.Record(ctx, d.Seconds(), metric.WithAttributes(AttrVendor.String(vendor), AttrOutcome.String(outcome)))
}

// ObserveHTTPRequest records one inbound request.
func (m *StudioMetrics) ObserveHTTPRequest(ctx context.Context, method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(route),
		AttrHTTPStatusCode.Int(status),
	}
	inc(ctx, m.httpRequests, attrs...)
	m.httpDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}
