// Package telemetry wires OpenTelemetry tracing, metrics, logs and Pyroscope
// profiling for the studio backend.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceVersion is reported on every exported resource.
const ServiceVersion = "1.0.0"

// shutdownTimeout bounds the final flush of each provider
const shutdownTimeout = 10 * time.Second

// Collector addresses the OTLP gRPC collector shared by every signal
type Collector struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
}

func (c Collector) resource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(c.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}
	return res, nil
}

// flush runs a provider shutdown under shutdownTimeout
func flush(ctx context.Context, signal string, shutdown func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		return fmt.Errorf("flush %s: %w", signal, err)
	}
	return nil
}
