package generative

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/velvet/backend/internal/domain/integration"
)

const (
	// maxResponseSize caps JSON bodies from the AI APIs (10MB)
	maxResponseSize = 10 * 1024 * 1024
	// maxImageSize caps downloaded product images (20MB)
	maxImageSize = 20 * 1024 * 1024
)

// fetchImage downloads a product image for inline submission to a vision model.
func fetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: product has no image", integration.ErrPlatformRequestFailed)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformRequestFailed, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: image download: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: image download: HTTP %d", integration.ErrPlatformRequestFailed, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: image download: %v", integration.ErrPlatformUnavailable, err)
	}
	return data, nil
}
