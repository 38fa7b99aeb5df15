package generative

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/velvet/backend/internal/domain/integration"
)

var fakeJPEG = []byte{0xff, 0xd8, 0xff, 0xe0, 'v', 'e', 'l', 'v', 'e', 't'}

// createMockGeminiServer serves both the product image and the
// generateContent endpoint.
func createMockGeminiServer(t *testing.T, reply string, inspect func(body map[string]any)) string {
	t.Helper()
	server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/images/product.jpg" {
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(fakeJPEG)
			return
		}
		if !strings.Contains(r.URL.Path, ":generateContent") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		data, _ := io.ReadAll(r.Body)
		var body map[string]any
		require.NoError(t, json.Unmarshal(data, &body))
		if inspect != nil {
			inspect(body)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"role": "model", "parts": []map[string]any{{"text": reply}}}},
			},
		})
	})
	return server.URL
}

func newTestGeminiAdapter(t *testing.T, baseURL string) *GeminiAdapter {
	t.Helper()
	adapter, err := NewGeminiAdapter(context.Background(),
		&GeminiConfig{APIKey: "gm-test", BaseURL: baseURL},
		WithGeminiLogger(zaptest.NewLogger(t)),
	)
	require.NoError(t, err)
	return adapter
}

func TestGeminiAdapter_DescribeStructure(t *testing.T) {
	t.Run("sends prompt and inline image", func(t *testing.T) {
		var parts []any
		baseURL := createMockGeminiServer(t, "Four cylindrical legs, a square seat.", func(body map[string]any) {
			contents := body["contents"].([]any)
			parts = contents[0].(map[string]any)["parts"].([]any)
		})

		adapter := newTestGeminiAdapter(t, baseURL)
		text, err := adapter.DescribeStructure(context.Background(), baseURL+"/images/product.jpg")
		require.NoError(t, err)
		assert.Equal(t, "Four cylindrical legs, a square seat.", text)

		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].(map[string]any)["text"], "Analyze this product image for 3D reconstruction.")
		inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
		assert.Equal(t, "image/jpeg", inline["mimeType"])
		assert.Equal(t, base64.StdEncoding.EncodeToString(fakeJPEG), inline["data"])
	})

	t.Run("empty reply is an error", func(t *testing.T) {
		baseURL := createMockGeminiServer(t, " ", nil)
		_, err := newTestGeminiAdapter(t, baseURL).DescribeStructure(context.Background(), baseURL+"/images/product.jpg")
		assert.ErrorIs(t, err, integration.ErrEmptyCompletion)
	})

	t.Run("image download failure", func(t *testing.T) {
		baseURL := createMockGeminiServer(t, "unused", nil)
		_, err := newTestGeminiAdapter(t, baseURL).DescribeStructure(context.Background(), baseURL+"/images/missing.jpg")
		assert.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
	})
}

func TestGeminiAdapter_SynthesizeVariantPrompt(t *testing.T) {
	var prompt string
	baseURL := createMockGeminiServer(t, "A photorealistic emerald velvet armchair, same angle.", func(body map[string]any) {
		parts := body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
		prompt = parts[0].(map[string]any)["text"].(string)
	})

	text, err := newTestGeminiAdapter(t, baseURL).SynthesizeVariantPrompt(context.Background(), baseURL+"/images/product.jpg", "make it emerald velvet")
	require.NoError(t, err)
	assert.Equal(t, "A photorealistic emerald velvet armchair, same angle.", text)
	assert.Contains(t, prompt, "You are a Creative Director.")
	assert.Contains(t, prompt, `User Request: "make it emerald velvet"`)
}

func TestGeminiAdapter_NotConfigured(t *testing.T) {
	adapter, err := NewGeminiAdapter(context.Background(), &GeminiConfig{})
	require.NoError(t, err)
	assert.False(t, adapter.IsConfigured())
	assert.Equal(t, "gemini-1.5-flash", adapter.config.Model)

	_, err = adapter.DescribeStructure(context.Background(), "https://img.example.com/a.jpg")
	assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
	_, err = adapter.SynthesizeVariantPrompt(context.Background(), "https://img.example.com/a.jpg", "blue")
	assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
}
