package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for spans started here.
const TracerName = "velvet-studio"

// Span attribute keys shared by the studio services and vendor adapters.
const (
	SpanAttrVendor    = "studio.vendor"
	SpanAttrOperation = "studio.operation"
	SpanAttrShop      = "studio.shop"
	SpanAttrProductID = "studio.product_id"
	SpanAttrTaskID    = "studio.task_id"
	SpanAttrMode      = "studio.mode"
	SpanAttrSource    = "studio.source"
	SpanAttrMetric    = "studio.metric"
	SpanAttrMock      = "studio.mock"
)

// SpanOption customizes a span created by StartSpan.
type SpanOption func(*spanConfig)

type spanConfig struct {
	kind  trace.SpanKind
	attrs []attribute.KeyValue
}

// WithAttribute adds an attribute to the span at start.
func WithAttribute(key string, value any) SpanOption {
	return func(c *spanConfig) {
		c.attrs = append(c.attrs, toAttribute(key, value))
	}
}

// WithSpanKind overrides the default internal span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// StartSpan starts a span on the global tracer provider.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	cfg := spanConfig{kind: trace.SpanKindInternal}
	for _, opt := range opts {
		opt(&cfg)
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(cfg.kind),
		trace.WithAttributes(cfg.attrs...),
	)
}

// StartVendorSpan starts a client span named "<vendor>.<operation>" around an
// outbound call to a third-party platform.
func StartVendorSpan(ctx context.Context, vendor, operation string, opts ...SpanOption) (context.Context, trace.Span) {
	opts = append([]SpanOption{
		WithSpanKind(trace.SpanKindClient),
		WithAttribute(SpanAttrVendor, vendor),
		WithAttribute(SpanAttrOperation, operation),
	}, opts...)
	return StartSpan(ctx, vendor+"."+operation, opts...)
}

// StartServiceSpan starts an internal span named "<service>.<method>".
func StartServiceSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+method, opts...)
}

// SetAttributes sets attributes on the span in ctx.
func SetAttributes(ctx context.Context, kv ...any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		span.SetAttributes(toAttribute(key, kv[i+1]))
	}
}

// RecordError records err on span and marks it failed. A nil err is ignored.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetOK marks span as successful.
func SetOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// EndSpan records err if present, otherwise marks the span OK, then ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		RecordError(span, err)
	} else {
		SetOK(span)
	}
	span.End()
}

// AddEvent adds a named event to the span in ctx.
func AddEvent(ctx context.Context, name string, kv ...any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			attrs = append(attrs, toAttribute(key, kv[i+1]))
		}
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
