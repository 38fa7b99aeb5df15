package generative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

const (
	meshyVendor         = "meshy"
	MeshyDefaultBaseURL = "https://api.meshy.ai"
	meshyTaskPath       = "/v2/image-to-3d"
)

// MeshyConfig holds configuration for the Meshy image-to-3D API
type MeshyConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Validate fills defaults for unset fields.
func (c *MeshyConfig) Validate() {
	if c.BaseURL == "" {
		c.BaseURL = MeshyDefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

type meshyCreateRequest struct {
	ImageURL     string `json:"image_url"`
	EnablePBR    bool   `json:"enable_pbr"`
	ShouldRemesh bool   `json:"should_remesh"`
}

type meshyCreateResponse struct {
	Result string `json:"result"`
}

type meshyTaskResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	ModelURLs struct {
		GLB  string `json:"glb"`
		USDZ string `json:"usdz"`
	} `json:"model_urls"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// MeshyAdapter runs image-to-3D jobs on Meshy
type MeshyAdapter struct {
	config     *MeshyConfig
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.StudioMetrics
}

// MeshyOption configures a MeshyAdapter
type MeshyOption func(*MeshyAdapter)

// WithMeshyLogger sets the adapter logger
func WithMeshyLogger(logger *zap.Logger) MeshyOption {
	return func(a *MeshyAdapter) {
		a.logger = logger
	}
}

// WithMeshyMetrics records call latency
func WithMeshyMetrics(m *telemetry.StudioMetrics) MeshyOption {
	return func(a *MeshyAdapter) {
		a.metrics = m
	}
}

// NewMeshyAdapter creates a new Meshy adapter
func NewMeshyAdapter(config *MeshyConfig, opts ...MeshyOption) *MeshyAdapter {
	config.Validate()
	a := &MeshyAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CreateTask starts an image-to-3D job and returns its id
func (a *MeshyAdapter) CreateTask(ctx context.Context, imageURL string) (string, error) {
	if a.config.APIKey == "" {
		return "", fmt.Errorf("%w: meshy api key missing", integration.ErrPlatformNotConfigured)
	}

	body := meshyCreateRequest{ImageURL: imageURL, EnablePBR: true, ShouldRemesh: true}
	data, err := a.doRequest(ctx, "create_task", http.MethodPost, meshyTaskPath, body)
	if err != nil {
		return "", err
	}

	var resp meshyCreateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if resp.Result == "" {
		return "", fmt.Errorf("%w: meshy returned no task id", integration.ErrPlatformInvalidResponse)
	}
	a.logger.Info("Meshy task created", zap.String("task_id", resp.Result))
	return resp.Result, nil
}

// GetTask returns the current state of a job
func (a *MeshyAdapter) GetTask(ctx context.Context, taskID string) (*generation.MeshTask, error) {
	if a.config.APIKey == "" {
		return nil, fmt.Errorf("%w: meshy api key missing", integration.ErrPlatformNotConfigured)
	}

	data, err := a.doRequest(ctx, "get_task", http.MethodGet, meshyTaskPath+"/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, err
	}

	var resp meshyTaskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if resp.ID == "" {
		resp.ID = taskID
	}
	return &generation.MeshTask{
		ID:       resp.ID,
		Status:   generation.MeshTaskStatus(resp.Status),
		Progress: resp.Progress,
		ModelURLs: generation.MeshModelURLs{
			GLB:  resp.ModelURLs.GLB,
			USDZ: resp.ModelURLs.USDZ,
		},
		ThumbnailURL: resp.ThumbnailURL,
	}, nil
}

func (a *MeshyAdapter) doRequest(ctx context.Context, operation, method, path string, body any) (_ []byte, err error) {
	ctx, span := telemetry.StartVendorSpan(ctx, meshyVendor, operation)
	start := time.Now()
	defer func() {
		a.metrics.ObserveVendorCall(ctx, meshyVendor, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("meshy: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
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

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: meshy task not found", integration.ErrPlatformRequestFailed)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, integration.ErrPlatformRateLimited
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}
	return data, nil
}

// Ensure MeshyAdapter implements the MeshGenerator port
var _ integration.MeshGenerator = (*MeshyAdapter)(nil)
