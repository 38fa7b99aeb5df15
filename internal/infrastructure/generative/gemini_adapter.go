package generative

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

const (
	geminiVendor       = "gemini"
	geminiImageMIME    = "image/jpeg"
	GeminiDefaultModel = "gemini-1.5-flash"
)

// GeminiConfig holds configuration for the Gemini API
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, mainly for tests and proxies
	BaseURL string
	Timeout time.Duration
}

// Validate fills defaults for unset fields.
func (c *GeminiConfig) Validate() {
	if c.Model == "" {
		c.Model = GeminiDefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
}

// GeminiAdapter describes product images with a Gemini vision model
type GeminiAdapter struct {
	config     *GeminiConfig
	client     *genai.Client
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.StudioMetrics
}

// GeminiOption configures a GeminiAdapter
type GeminiOption func(*GeminiAdapter)

// WithGeminiLogger sets the adapter logger
func WithGeminiLogger(logger *zap.Logger) GeminiOption {
	return func(a *GeminiAdapter) {
		a.logger = logger
	}
}

// WithGeminiMetrics records call latency
func WithGeminiMetrics(m *telemetry.StudioMetrics) GeminiOption {
	return func(a *GeminiAdapter) {
		a.metrics = m
	}
}

// WithGeminiHTTPClient replaces the HTTP client used for image downloads and
// API calls
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(a *GeminiAdapter) {
		a.httpClient = c
	}
}

// NewGeminiAdapter creates a Gemini adapter. Without an API key the adapter
// is built but every call returns ErrPlatformNotConfigured.
func NewGeminiAdapter(ctx context.Context, config *GeminiConfig, opts ...GeminiOption) (*GeminiAdapter, error) {
	config.Validate()
	a := &GeminiAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if config.APIKey == "" {
		return a, nil
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: a.httpClient,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(config.BaseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	a.client = client
	return a, nil
}

// IsConfigured reports whether the adapter can reach the API
func (a *GeminiAdapter) IsConfigured() bool {
	return a.client != nil
}

// DescribeStructure breaks the product in the image down into simple shapes
func (a *GeminiAdapter) DescribeStructure(ctx context.Context, imageURL string) (string, error) {
	return a.describe(ctx, "describe_structure", imageURL, structurePrompt)
}

// SynthesizeVariantPrompt writes an image-generation prompt for a variant of
// the pictured product that satisfies request
func (a *GeminiAdapter) SynthesizeVariantPrompt(ctx context.Context, imageURL, request string) (string, error) {
	return a.describe(ctx, "variant_prompt", imageURL, variantPrompt(request))
}

func (a *GeminiAdapter) describe(ctx context.Context, operation, imageURL, prompt string) (_ string, err error) {
	if a.client == nil {
		return "", fmt.Errorf("%w: gemini api key missing", integration.ErrPlatformNotConfigured)
	}

	ctx, span := telemetry.StartVendorSpan(ctx, geminiVendor, operation)
	start := time.Now()
	defer func() {
		a.metrics.ObserveVendorCall(ctx, geminiVendor, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	image, err := fetchImage(ctx, a.httpClient, imageURL)
	if err != nil {
		return "", err
	}
	telemetry.SetAttributes(ctx, "image_bytes", len(image))

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(prompt),
			genai.NewPartFromBytes(image, geminiImageMIME),
		}, genai.RoleUser),
	}
	resp, err := a.client.Models.GenerateContent(ctx, a.config.Model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", integration.ErrPlatformRequestFailed, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", integration.ErrEmptyCompletion
	}
	a.logger.Debug("Gemini description received", zap.String("operation", operation), zap.Int("length", len(text)))
	return text, nil
}

// Ensure GeminiAdapter implements the VisionAnalyzer port
var _ integration.VisionAnalyzer = (*GeminiAdapter)(nil)
