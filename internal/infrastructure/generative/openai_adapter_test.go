package generative

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
)

func createMockOpenAIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func newTestOpenAIAdapter(t *testing.T, server *httptest.Server, opts ...OpenAIOption) *OpenAIAdapter {
	t.Helper()
	cfg := &OpenAIConfig{APIKey: "sk-test", BaseURL: server.URL, MaxRetries: 3}
	opts = append([]OpenAIOption{WithOpenAILogger(zaptest.NewLogger(t)), WithOpenAIBackoff(time.Millisecond)}, opts...)
	return NewOpenAIAdapter(cfg, opts...)
}

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	}
}

func TestOpenAIConfig_Defaults(t *testing.T) {
	cfg := NewOpenAIConfig("")
	assert.False(t, cfg.IsConfigured())
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.VisionModel)
	assert.Equal(t, "dall-e-3", cfg.ImageModel)
	assert.Equal(t, "1024x1024", cfg.ImageSize)
	assert.Equal(t, 4000, cfg.MaxTokens)
}

func TestOpenAIAdapter_GenerateGeometry(t *testing.T) {
	t.Run("sends vision request and parses primitives", func(t *testing.T) {
		var captured openAIChatRequest
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			body, _ := io.ReadAll(r.Body)
			require.NoError(t, json.Unmarshal(body, &captured))

			var raw map[string]any
			require.NoError(t, json.Unmarshal(body, &raw))
			messages := raw["messages"].([]any)
			user := messages[1].(map[string]any)["content"].([]any)
			assert.Contains(t, user[0].(map[string]any)["text"], "CONTEXT FROM VISUAL ANALYSIS")
			assert.Equal(t, "https://img.example.com/chair.jpg", user[1].(map[string]any)["image_url"].(map[string]any)["url"])

			_ = json.NewEncoder(w).Encode(chatReply(`{"primitives":[{"type":"box","position":[0,1,0],"rotation":[0,0,0],"scale":[1,0.1,1],"color":"#333333"},{"type":"torus","position":[0,0,0],"rotation":[1.57,0,0],"scale":[1,1,1],"color":"#ff0000","radius":0.5,"tube":0.1}]}`))
		})

		adapter := newTestOpenAIAdapter(t, server)
		primitives, err := adapter.GenerateGeometry(context.Background(), "https://img.example.com/chair.jpg", "four legs and a seat")
		require.NoError(t, err)

		require.Len(t, primitives, 2)
		assert.Equal(t, generation.ShapeBox, primitives[0].Kind())
		assert.JSONEq(t, `{"type":"box","position":[0,1,0],"rotation":[0,0,0],"scale":[1,0.1,1],"color":"#333333"}`, string(primitives[0]))
		assert.Equal(t, generation.ShapeTorus, primitives[1].Kind())

		assert.Equal(t, "gpt-4o", captured.Model)
		assert.Equal(t, 4000, captured.MaxTokens)
		require.NotNil(t, captured.ResponseFormat)
		assert.Equal(t, "json_object", captured.ResponseFormat.Type)
		assert.Equal(t, "system", captured.Messages[0].Role)
		assert.Equal(t, geometrySystemPrompt, captured.Messages[0].Content)
	})

	t.Run("omits context block without description", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.NotContains(t, string(body), "CONTEXT FROM VISUAL ANALYSIS")
			_ = json.NewEncoder(w).Encode(chatReply(`[]`))
		})

		primitives, err := newTestOpenAIAdapter(t, server).GenerateGeometry(context.Background(), "https://img.example.com/a.jpg", "")
		require.NoError(t, err)
		assert.Empty(t, primitives)
	})

	t.Run("returns empty list and warns on unexpected structure", func(t *testing.T) {
		core, recorded := observer.New(zapcore.WarnLevel)
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(chatReply(`{"shapes":[]}`))
		})

		adapter := newTestOpenAIAdapter(t, server, WithOpenAILogger(zap.New(core)))
		primitives, err := adapter.GenerateGeometry(context.Background(), "https://img.example.com/a.jpg", "")
		require.NoError(t, err)
		assert.NotNil(t, primitives)
		assert.Empty(t, primitives)
		assert.Equal(t, 1, recorded.FilterMessage("Unexpected geometry JSON structure, returning no primitives").Len())
	})

	t.Run("empty completion is an error", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(chatReply("  "))
		})

		_, err := newTestOpenAIAdapter(t, server).GenerateGeometry(context.Background(), "https://img.example.com/a.jpg", "")
		assert.ErrorIs(t, err, integration.ErrEmptyCompletion)
	})

	t.Run("unparsable completion is an invalid response", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(chatReply("here are your shapes: box, box"))
		})

		_, err := newTestOpenAIAdapter(t, server).GenerateGeometry(context.Background(), "https://img.example.com/a.jpg", "")
		assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
	})

	t.Run("missing key is not configured", func(t *testing.T) {
		adapter := NewOpenAIAdapter(&OpenAIConfig{})
		_, err := adapter.GenerateGeometry(context.Background(), "https://img.example.com/a.jpg", "")
		assert.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
	})

	t.Run("server error carries API message", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid image URL","type":"invalid_request_error"}}`))
		})

		_, err := newTestOpenAIAdapter(t, server).GenerateGeometry(context.Background(), "bad", "")
		require.ErrorIs(t, err, integration.ErrPlatformRequestFailed)
		assert.Contains(t, err.Error(), "Invalid image URL")
	})

	t.Run("auth failure", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := newTestOpenAIAdapter(t, server).GenerateGeometry(context.Background(), "https://img.example.com/a.jpg", "")
		assert.ErrorIs(t, err, integration.ErrPlatformAuthFailed)
	})
}

func TestOpenAIAdapter_RateLimitRetry(t *testing.T) {
	t.Run("retries 429 then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_ = json.NewEncoder(w).Encode(chatReply(`[{"type":"sphere"}]`))
		})

		primitives, err := newTestOpenAIAdapter(t, server).GenerateGeometry(context.Background(), "https://img.example.com/a.jpg", "")
		require.NoError(t, err)
		assert.Len(t, primitives, 1)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var calls atomic.Int32
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusTooManyRequests)
		})

		_, err := newTestOpenAIAdapter(t, server).GenerateImage(context.Background(), "a red chair")
		assert.ErrorIs(t, err, integration.ErrPlatformRateLimited)
		assert.Equal(t, int32(4), calls.Load())
	})

	t.Run("stops waiting when context is cancelled", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		adapter := newTestOpenAIAdapter(t, server, WithOpenAIBackoff(time.Hour))
		_, err := adapter.GenerateImage(ctx, "a red chair")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestOpenAIAdapter_GenerateImage(t *testing.T) {
	t.Run("returns hosted URL", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/images/generations", r.URL.Path)
			var req openAIImageRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "dall-e-3", req.Model)
			assert.Equal(t, 1, req.N)
			assert.Equal(t, "1024x1024", req.Size)
			assert.Equal(t, "url", req.ResponseFormat)
			assert.Equal(t, "a velvet chair in emerald green", req.Prompt)

			_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://cdn.example.com/variant.png"}]}`))
		})

		url, err := newTestOpenAIAdapter(t, server).GenerateImage(context.Background(), "a velvet chair in emerald green")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/variant.png", url)
	})

	t.Run("no image in response", func(t *testing.T) {
		server := createMockOpenAIServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
		})

		_, err := newTestOpenAIAdapter(t, server).GenerateImage(context.Background(), "prompt")
		assert.ErrorIs(t, err, integration.ErrNoImageGenerated)
	})
}

func TestParsePrimitives(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantLen    int
		recognized bool
		wantErr    bool
	}{
		{"object envelope", `{"primitives":[{"type":"box"},{"type":"cone"}]}`, 2, true, false},
		{"bare array", `[{"type":"capsule"}]`, 1, true, false},
		{"json fence", "```json\n{\"primitives\":[{\"type\":\"box\"}]}\n```", 1, true, false},
		{"plain fence", "```\n[{\"type\":\"box\"}]\n```", 1, true, false},
		{"primitives not an array", `{"primitives":{"type":"box"}}`, 0, false, false},
		{"scalar", `42`, 0, false, false},
		{"invalid json", `{"primitives":[`, 0, false, true},
		{"mistyped fields pass through", `[{"type":"box","position":"up"},{"type":"torus","radius":"0.5"}]`, 2, true, false},
		{"non-object entries pass through", `{"primitives":[{"type":"box"},7,null]}`, 3, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primitives, recognized, err := parsePrimitives(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, integration.ErrPlatformInvalidResponse)
				return
			}
			require.NoError(t, err)
			assert.Len(t, primitives, tt.wantLen)
			assert.Equal(t, tt.recognized, recognized)
		})
	}
}

func TestParsePrimitives_KeepsReplyVerbatim(t *testing.T) {
	reply := `{"primitives":[` +
		`{"type":"box","position":[0,1,0],"rotation":[0,0,0],"scale":[1,0.1,1],"color":"#333333"},` +
		`{"type":"torus","position":[0,0,0],"scale":[1,1,1],"color":"#ff0000","radius":"0.5","tube":0.1,"segments":32}]}`

	primitives, recognized, err := parsePrimitives(reply)
	require.NoError(t, err)
	assert.True(t, recognized)
	require.Len(t, primitives, 2)

	assert.JSONEq(t, `{"type":"torus","position":[0,0,0],"scale":[1,1,1],"color":"#ff0000","radius":"0.5","tube":0.1,"segments":32}`, string(primitives[1]))
	assert.Zero(t, generation.CountUnknownKinds(primitives))
}

func TestGeometryPrompt(t *testing.T) {
	withContext := geometryPrompt(`A lamp with a "conical" shade`)
	assert.Contains(t, withContext, "CONTEXT FROM VISUAL ANALYSIS")
	assert.Contains(t, withContext, `\"conical\"`)
	assert.Contains(t, withContext, "50-100 primitives")

	assert.NotContains(t, geometryPrompt(""), "CONTEXT FROM VISUAL ANALYSIS")
}
