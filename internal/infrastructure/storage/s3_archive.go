package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/velvet/backend/internal/domain/integration"
	infraconfig "github.com/velvet/backend/internal/infrastructure/config"
	"github.com/velvet/backend/internal/infrastructure/telemetry"
)

// maxAssetSize caps a copied asset (20MB)
const maxAssetSize = 20 * 1024 * 1024

const s3Vendor = "s3"

// Ensure S3AssetArchive implements AssetArchive
var _ integration.AssetArchive = (*S3AssetArchive)(nil)

// S3AssetArchive implements AssetArchive using AWS S3 SDK v2.
// It is compatible with any S3-compatible storage (AWS S3, RustFS, MinIO, etc.)
type S3AssetArchive struct {
	client     *s3.Client
	httpClient *http.Client
	bucket     string
	logger     *zap.Logger
	metrics    *telemetry.StudioMetrics
}

// S3AssetArchiveOption is a functional option for configuring S3AssetArchive
type S3AssetArchiveOption func(*S3AssetArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3AssetArchiveOption {
	return func(s *S3AssetArchive) {
		s.logger = logger
	}
}

// WithMetrics records call latency
func WithMetrics(m *telemetry.StudioMetrics) S3AssetArchiveOption {
	return func(s *S3AssetArchive) {
		s.metrics = m
	}
}

// WithHTTPClient sets the client used to download assets for copying
func WithHTTPClient(c *http.Client) S3AssetArchiveOption {
	return func(s *S3AssetArchive) {
		s.httpClient = c
	}
}

// NewS3AssetArchive creates a new S3AssetArchive from configuration.
func NewS3AssetArchive(cfg *infraconfig.StorageConfig, opts ...S3AssetArchiveOption) (*S3AssetArchive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		if cfg.UseSSL {
			endpoint = "https://" + endpoint
		} else {
			endpoint = "http://" + endpoint
		}
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid storage endpoint: %w", err)
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(endpoint)
	})

	archive := &S3AssetArchive{
		client:     client,
		httpClient: &http.Client{Timeout: time.Minute},
		bucket:     cfg.Bucket,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// Enabled reports true; assets are stored
func (s *S3AssetArchive) Enabled() bool {
	return true
}

// Bucket returns the bucket name
func (s *S3AssetArchive) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket if it doesn't exist.
// Call this during application startup to ensure the bucket is ready.
func (s *S3AssetArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating asset bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PutJSON stores v encoded as JSON under key
func (s *S3AssetArchive) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode asset: %w", err)
	}
	return s.Upload(ctx, key, data, "application/json")
}

// CopyFromURL downloads src and stores the body under key. The stored
// content type is taken from the download response.
func (s *S3AssetArchive) CopyFromURL(ctx context.Context, key, src string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return fmt.Errorf("build asset download: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: asset download: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: asset download: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize))
	if err != nil {
		return fmt.Errorf("%w: asset download: %v", integration.ErrPlatformUnavailable, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return s.Upload(ctx, key, data, contentType)
}

// Upload stores data under key
func (s *S3AssetArchive) Upload(ctx context.Context, key string, data []byte, contentType string) (err error) {
	if key == "" {
		return errors.New("storage key is required")
	}

	ctx, span := telemetry.StartVendorSpan(ctx, s3Vendor, "put_object")
	start := time.Now()
	defer func() {
		s.metrics.ObserveVendorCall(ctx, s3Vendor, time.Since(start), err)
		telemetry.EndSpan(span, err)
	}()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Debug("Asset archived", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}
