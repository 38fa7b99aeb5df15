package generative

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

const (
	openAIVendor            = "openai"
	openAIDefaultBackoff    = time.Second
	openAIErrorBodyLength   = 512
	openAIJSONObjectFormat  = "json_object"
	openAIImageResponseType = "url"
)

// OpenAIAdapter reconstructs products as primitives with a chat-vision
// model and renders variant images
type OpenAIAdapter struct {
	config     *OpenAIConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.StudioMetrics
	pacer      *rate.Limiter
	backoff    time.Duration
}

// OpenAIOption configures an OpenAIAdapter
type OpenAIOption func(*OpenAIAdapter)

// WithOpenAILogger sets the adapter logger
func WithOpenAILogger(logger *zap.Logger) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.logger = logger
	}
}

// WithOpenAIMetrics records call latency
func WithOpenAIMetrics(m *telemetry.StudioMetrics) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.metrics = m
	}
}

// WithOpenAIHTTPClient replaces the default HTTP client
func WithOpenAIHTTPClient(c *http.Client) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.httpClient = c
	}
}

// WithOpenAIBackoff sets the first wait after a 429; each retry doubles it.
func WithOpenAIBackoff(d time.Duration) OpenAIOption {
	return func(a *OpenAIAdapter) {
		a.backoff = d
	}
}

// NewOpenAIAdapter creates a new OpenAI adapter
func NewOpenAIAdapter(config *OpenAIConfig, opts ...OpenAIOption) *OpenAIAdapter {
	config.Validate()
	a := &OpenAIAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
		pacer:      rate.NewLimiter(rate.Every(config.MinInterval), 1),
		backoff:    openAIDefaultBackoff,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ---------------------------------------------------------------------------
// Geometry
// ---------------------------------------------------------------------------

// GenerateGeometry asks the vision model to rebuild the product in the image
// out of primitives. description, when set, is embedded as extra context.
func (a *OpenAIAdapter) GenerateGeometry(ctx context.Context, imageURL, description string) ([]generation.Primitive, error) {
	if !a.config.IsConfigured() {
		return nil, fmt.Errorf("%w: openai api key missing", integration.ErrPlatformNotConfigured)
	}

	req := openAIChatRequest{
		Model: a.config.VisionModel,
		Messages: []openAIMessage{
			{Role: "system", Content: geometrySystemPrompt},
			{Role: "user", Content: []openAIContentPart{
				{Type: "text", Text: geometryPrompt(description)},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: imageURL}},
			}},
		},
		MaxTokens:      a.config.MaxTokens,
		ResponseFormat: &openAIResponseFormat{Type: openAIJSONObjectFormat},
	}

	data, err := a.doRequest(ctx, "chat_completion", "/chat/completions", req)
	if err != nil {
		return nil, err
	}

	var resp openAIChatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, integration.ErrEmptyCompletion
	}

	primitives, recognized, err := parsePrimitives(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	if !recognized {
		a.logger.Warn("Unexpected geometry JSON structure, returning no primitives")
	}
	if unknown := generation.CountUnknownKinds(primitives); unknown > 0 {
		a.logger.Debug("Geometry contains unrecognized shape kinds", zap.Int("unknown", unknown))
	}
	a.logger.Info("Geometry generated", zap.Int("primitives", len(primitives)))
	return primitives, nil
}

// parsePrimitives splits a model reply into primitives without interpreting
// them. It accepts an object with a "primitives" array or a bare array,
// optionally wrapped in a markdown code fence. Any other valid JSON yields an
// empty list with recognized=false.
func parsePrimitives(content string) (_ []generation.Primitive, recognized bool, _ error) {
	raw := []byte(stripCodeFence(content))
	if !json.Valid(raw) {
		return nil, false, fmt.Errorf("%w: geometry reply is not valid JSON", integration.ErrPlatformInvalidResponse)
	}

	var primitives []generation.Primitive
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &primitives); err != nil {
			return nil, false, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		return primitives, true, nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, false, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		list, ok := envelope["primitives"]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(list), []byte("[")) {
			return []generation.Primitive{}, false, nil
		}
		if err := json.Unmarshal(list, &primitives); err != nil {
			return nil, false, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
		}
		return primitives, true, nil
	default:
		return []generation.Primitive{}, false, nil
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

// GenerateImage renders a single image for prompt and returns its hosted URL
func (a *OpenAIAdapter) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !a.config.IsConfigured() {
		return "", fmt.Errorf("%w: openai api key missing", integration.ErrPlatformNotConfigured)
	}

	req := openAIImageRequest{
		Model:          a.config.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           a.config.ImageSize,
		ResponseFormat: openAIImageResponseType,
	}
	data, err := a.doRequest(ctx, "image_generation", "/images/generations", req)
	if err != nil {
		return "", err
	}

	var resp openAIImageResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", integration.ErrNoImageGenerated
	}
	return resp.Data[0].URL, nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

var errOpenAIRateLimited = errors.New("openai: rate limited")

// doRequest posts body to path, waiting on the pacer first and retrying
// HTTP 429 with exponential backoff.
func (a *OpenAIAdapter) doRequest(ctx context.Context, operation, path string, body any) (_ []byte, err error) {
	ctx, span := telemetry.StartVendorSpan(ctx, openAIVendor, operation)
	start := time.Now()
	defer func() {
		a.metrics.ObserveVendorCall(ctx, openAIVendor, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}

	wait := a.backoff
	for attempt := 0; ; attempt++ {
		data, err := a.send(ctx, path, payload)
		if !errors.Is(err, errOpenAIRateLimited) {
			return data, err
		}
		if attempt >= a.config.MaxRetries {
			return nil, fmt.Errorf("%w: openai: gave up after %d retries", integration.ErrPlatformRateLimited, attempt)
		}

		a.logger.Warn("OpenAI rate limited, backing off",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("wait", wait),
		)
		telemetry.AddEvent(ctx, "rate_limited", "attempt", attempt+1)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		wait *= 2
	}
}

func (a *OpenAIAdapter) send(ctx context.Context, path string, payload []byte) ([]byte, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errOpenAIRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d: %s", integration.ErrPlatformRequestFailed, resp.StatusCode, openAIErrorMessage(data))
	}
	return data, nil
}

func openAIErrorMessage(data []byte) string {
	var body struct {
		Error *openAIError `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != nil && body.Error.Message != "" {
		return body.Error.Message
	}
	if len(data) > openAIErrorBodyLength {
		data = data[:openAIErrorBodyLength]
	}
	return string(data)
}

// Ensure OpenAIAdapter implements the generation ports
var (
	_ integration.GeometryGenerator = (*OpenAIAdapter)(nil)
	_ integration.ImageGenerator    = (*OpenAIAdapter)(nil)
)
