package telemetry

import (
	"context"
	"fmt"
	"sync"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// TracingConfig enables span export. SamplingRatio of 1 keeps every trace,
// 0 keeps none, anything between samples root spans by trace id.
type TracingConfig struct {
	Collector
	Enabled       bool
	SamplingRatio float64
}

// TracerProvider owns the SDK tracer provider for the lifetime of the process
type TracerProvider struct {
	sdk *sdktrace.TracerProvider
	log *zap.Logger

	once     sync.Once
	profiled bool
}

// NewTracerProvider installs an OTLP tracer provider and the W3C propagators
// globally. When disabled the global no-op provider stays in place.
func NewTracerProvider(ctx context.Context, cfg TracingConfig, log *zap.Logger) (*TracerProvider, error) {
	tp := &TracerProvider{log: log}
	if !cfg.Enabled {
		log.Info("Tracing disabled")
		return tp, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	res, err := cfg.resource()
	if err != nil {
		return nil, err
	}

	tp.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
	)
	otel.SetTracerProvider(tp.sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("Tracing enabled",
		zap.String("collector", cfg.Endpoint),
		zap.Float64("sampling_ratio", cfg.SamplingRatio),
	)
	return tp, nil
}

func samplerFor(ratio float64) sdktrace.Sampler {
	if ratio >= 1 {
		return sdktrace.AlwaysSample()
	}
	if ratio <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
}

// EnableSpanProfiles tags Pyroscope CPU samples with span ids. Call it once
// the profiler is running; later calls do nothing.
func (tp *TracerProvider) EnableSpanProfiles() {
	if tp.sdk == nil {
		return
	}
	tp.once.Do(func() {
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.sdk))
		tp.profiled = true
		tp.log.Info("Span profiles enabled")
	})
}

// SpanProfilesEnabled reports whether EnableSpanProfiles took effect
func (tp *TracerProvider) SpanProfilesEnabled() bool {
	return tp.profiled
}

func (tp *TracerProvider) IsEnabled() bool {
	return tp.sdk != nil
}

// Shutdown exports buffered spans
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.sdk == nil {
		return nil
	}
	return flush(ctx, "traces", tp.sdk.Shutdown)
}
