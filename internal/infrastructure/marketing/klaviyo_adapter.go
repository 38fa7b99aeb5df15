package marketing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/catalog"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// maxResponseSize is the maximum allowed response size from the Klaviyo API (10MB)
const maxResponseSize = 10 * 1024 * 1024

const (
	klaviyoVendor          = "klaviyo"
	klaviyoRecentPageSize  = 10
	klaviyoUnknownProfile  = "Unknown User"
	klaviyoErrorBodyLength = 512
)

// KlaviyoAdapter tracks studio events in Klaviyo and reads them back
type KlaviyoAdapter struct {
	config     *KlaviyoConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.StudioMetrics
}

// KlaviyoOption configures a KlaviyoAdapter
type KlaviyoOption func(*KlaviyoAdapter)

// WithKlaviyoLogger sets the adapter logger
func WithKlaviyoLogger(logger *zap.Logger) KlaviyoOption {
	return func(a *KlaviyoAdapter) {
		a.logger = logger
	}
}

// WithKlaviyoMetrics records tracked events and call latency
func WithKlaviyoMetrics(m *telemetry.StudioMetrics) KlaviyoOption {
	return func(a *KlaviyoAdapter) {
		a.metrics = m
	}
}

// WithKlaviyoHTTPClient replaces the default HTTP client
func WithKlaviyoHTTPClient(c *http.Client) KlaviyoOption {
	return func(a *KlaviyoAdapter) {
		a.httpClient = c
	}
}

// NewKlaviyoAdapter creates a new Klaviyo adapter
func NewKlaviyoAdapter(config *KlaviyoConfig, opts ...KlaviyoOption) *KlaviyoAdapter {
	config.Validate()
	a := &KlaviyoAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Config returns the adapter configuration
func (a *KlaviyoAdapter) Config() *KlaviyoConfig {
	return a.config
}

// ---------------------------------------------------------------------------
// Event tracking
// ---------------------------------------------------------------------------

// Track3DGeneration records a "Generated 3D Model" event
func (a *KlaviyoAdapter) Track3DGeneration(ctx context.Context, email string, product *catalog.Product, modelURL string) (*integration.TrackResult, error) {
	return a.trackEvent(ctx, integration.MetricGenerated3DModel, email, map[string]any{
		"ProductName":  product.Title,
		"ProductID":    product.ID,
		"ModelURL":     modelURL,
		"Price":        product.PriceString(),
		"ImageURL":     product.PrimaryImage(),
		"ActionSource": integration.ActionSource,
	})
}

// TriggerCampaign records a "3D Campaign Triggered" event, which Klaviyo
// flows use as their trigger
func (a *KlaviyoAdapter) TriggerCampaign(ctx context.Context, email, segment string, product *catalog.Product, modelURL string) (*integration.TrackResult, error) {
	return a.trackEvent(ctx, integration.MetricCampaignTriggered, email, map[string]any{
		"ProductName":  product.Title,
		"ProductID":    product.ID,
		"ModelURL":     modelURL,
		"Segment":      segment,
		"Price":        product.PriceString(),
		"ImageURL":     product.PrimaryImage(),
		"ActionSource": integration.ActionSource,
	})
}

// TrackVariantGeneration records a "Generated Product Variant" event
func (a *KlaviyoAdapter) TrackVariantGeneration(ctx context.Context, email string, product *catalog.Product, variantPrompt, imageURL string) (*integration.TrackResult, error) {
	return a.trackEvent(ctx, integration.MetricVariantGenerated, email, map[string]any{
		"ProductName":      product.Title,
		"ProductID":        product.ID,
		"VariantPrompt":    variantPrompt,
		"VariantImageURL":  imageURL,
		"OriginalImageURL": product.PrimaryImage(),
		"ActionSource":     integration.ActionSource,
	})
}

func (a *KlaviyoAdapter) trackEvent(ctx context.Context, metric, email string, properties map[string]any) (*integration.TrackResult, error) {
	if a.config.IsMockTracking() {
		a.logger.Info("Mock marketing event tracked",
			zap.Bool("mock", true),
			zap.String("metric", metric),
			zap.Any("product_name", properties["ProductName"]),
		)
		a.metrics.RecordTrackedEvent(ctx, metric, true)
		return &integration.TrackResult{Success: true, Mock: true}, nil
	}

	body := newKlaviyoEventRequest(metric, email, properties)
	if _, err := a.doRequest(ctx, "create_event", http.MethodPost, a.config.BaseURL+"/api/events/", body); err != nil {
		a.logger.Error("Klaviyo event tracking failed", zap.String("metric", metric), zap.Error(err))
		return nil, err
	}

	a.metrics.RecordTrackedEvent(ctx, metric, false)
	return &integration.TrackResult{Success: true}, nil
}

// IdentifyProfile is a placeholder for profile updates outside of events;
// events already upsert the profile by email.
func (a *KlaviyoAdapter) IdentifyProfile(_ context.Context, email string, properties map[string]any) error {
	if a.config.IsMockTracking() {
		return nil
	}
	a.logger.Info("Identifying marketing profile",
		zap.String("email", email),
		zap.Int("property_count", len(properties)),
	)
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// MetricID resolves a metric name to its Klaviyo id. It returns "" when the
// key is a placeholder, the metric does not exist or the API refuses.
func (a *KlaviyoAdapter) MetricID(ctx context.Context, metricName string) (string, error) {
	if a.config.IsMockReads() {
		return "", nil
	}

	q := url.Values{}
	q.Set("filter", fmt.Sprintf("equals(attributes.name,%q)", metricName))

	data, err := a.doRequest(ctx, "get_metric", http.MethodGet, a.config.BaseURL+"/api/metrics/?"+q.Encode(), nil)
	if err != nil {
		if isHTTPStatusError(err) {
			a.logger.Warn("Klaviyo metric lookup refused", zap.String("metric", metricName), zap.Error(err))
			return "", nil
		}
		return "", err
	}

	var resp klaviyoMetricsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].ID, nil
}

// RecentEvents returns the ten most recent events of a metric with the
// profile email resolved from the included profiles.
func (a *KlaviyoAdapter) RecentEvents(ctx context.Context, metricName string) ([]integration.MarketingEvent, error) {
	metricID, err := a.MetricID(ctx, metricName)
	if err != nil {
		return nil, err
	}
	if metricID == "" {
		return []integration.MarketingEvent{}, nil
	}

	q := url.Values{}
	q.Set("filter", fmt.Sprintf("equals(metric_id,%q)", metricID))
	q.Set("sort", "-timestamp")
	q.Set("page[size]", strconv.Itoa(klaviyoRecentPageSize))
	q.Set("include", "profile")

	data, err := a.doRequest(ctx, "list_events", http.MethodGet, a.config.BaseURL+"/api/events/?"+q.Encode(), nil)
	if err != nil {
		if isHTTPStatusError(err) {
			a.logger.Warn("Klaviyo event listing refused", zap.String("metric", metricName), zap.Error(err))
			return []integration.MarketingEvent{}, nil
		}
		return nil, err
	}

	var resp klaviyoEventsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	emails := make(map[string]string, len(resp.Included))
	for _, inc := range resp.Included {
		emails[inc.ID] = inc.Attributes.Email
	}

	events := make([]integration.MarketingEvent, 0, len(resp.Data))
	for _, item := range resp.Data {
		email := klaviyoUnknownProfile
		if rel := item.Relationships.Profile.Data; rel != nil && emails[rel.ID] != "" {
			email = emails[rel.ID]
		}

		ts := item.Attributes.Timestamp.Time
		if ts.IsZero() {
			ts = item.Attributes.Datetime.Time
		}
		props := item.Attributes.Properties
		if props == nil {
			props = item.Attributes.Legacy
		}
		if props == nil {
			props = map[string]any{}
		}

		events = append(events, integration.MarketingEvent{
			ID:         item.ID,
			Timestamp:  ts,
			Email:      email,
			Properties: props,
		})
	}
	return events, nil
}

// ---------------------------------------------------------------------------
// OAuth
// ---------------------------------------------------------------------------

// ExchangeCode trades an OAuth authorization code for an access token.
func (a *KlaviyoAdapter) ExchangeCode(ctx context.Context, code, redirectURI string) (_ string, err error) {
	ctx, span := telemetry.StartVendorSpan(ctx, klaviyoVendor, "exchange_code")
	start := time.Now()
	defer func() {
		a.metrics.ObserveVendorCall(ctx, klaviyoVendor, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(a.config.ClientID, a.config.ClientSecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	var token klaviyoTokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&token); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if token.AccessToken == "" {
		a.logger.Error("Klaviyo OAuth exchange returned no token", zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: HTTP %d: no access token", integration.ErrPlatformAuthFailed, resp.StatusCode)
	}
	return token.AccessToken, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d: %s", integration.ErrPlatformRequestFailed, e.status, e.body)
}

func (e *httpStatusError) Unwrap() error {
	switch e.status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return integration.ErrPlatformAuthFailed
	case http.StatusTooManyRequests:
		return integration.ErrPlatformRateLimited
	default:
		return integration.ErrPlatformRequestFailed
	}
}

func isHTTPStatusError(err error) bool {
	var statusErr *httpStatusError
	return errors.As(err, &statusErr)
}

func (a *KlaviyoAdapter) doRequest(ctx context.Context, operation, method, endpoint string, body any) (_ []byte, err error) {
	ctx, span := telemetry.StartVendorSpan(ctx, klaviyoVendor, operation)
	start := time.Now()
	defer func() {
		a.metrics.ObserveVendorCall(ctx, klaviyoVendor, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("klaviyo: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
	req.Header.Set("Authorization", "Klaviyo-API-Key "+a.config.PrivateKey)
	req.Header.Set("Accept", klaviyoMediaType)
	req.Header.Set("Revision", a.config.Revision)
	if body != nil {
		req.Header.Set("Content-Type", klaviyoMediaType)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > klaviyoErrorBodyLength {
			snippet = snippet[:klaviyoErrorBodyLength]
		}
		return nil, &httpStatusError{status: resp.StatusCode, body: snippet}
	}
	return data, nil
}

// Ensure KlaviyoAdapter implements the MarketingTracker port
var _ integration.MarketingTracker = (*KlaviyoAdapter)(nil)
