package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

func TestHTTPMetrics_NilIsPassThrough(t *testing.T) {
	r := gin.New()
	r.Use(HTTPMetrics(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestHTTPMetrics_RecordsRoutePattern(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := telemetry.NewStudioMetrics(provider.Meter("test"))
	require.NoError(t, err)

	r := gin.New()
	r.Use(HTTPMetrics(m))
	r.GET("/api/v1/products/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/products/123", nil))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var routes []string
	for _, sm := range rm.ScopeMetrics {
		for _, mt := range sm.Metrics {
			hist, ok := mt.Data.(metricdata.Histogram[float64])
			if !ok {
				continue
			}
			for _, dp := range hist.DataPoints {
				if v, ok := dp.Attributes.Value("http.route"); ok {
					routes = append(routes, v.AsString())
				}
			}
		}
	}
	assert.Contains(t, routes, "/api/v1/products/:id")
}

func TestSpanEnricher(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	r := gin.New()
	r.Use(RequestID(), Credentials())
	r.Use(func(c *gin.Context) {
		ctx, span := tp.Tracer("test").Start(c.Request.Context(), "request")
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	r.Use(SpanEnricher())
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.AddCookie(&http.Cookie{Name: CookieShopDomain, Value: "velvet.myshopify.com"})
	serve(r, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.NotEmpty(t, attrs["request_id"])
	assert.Equal(t, "velvet.myshopify.com", attrs[telemetry.SpanAttrShop])
	assert.Equal(t, "Error", spans[0].Status.Code.String())
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
