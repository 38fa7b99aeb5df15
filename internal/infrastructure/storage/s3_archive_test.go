package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/velvet/backend/internal/infrastructure/config"
)

// ============================================================================
// Unit Tests (no external dependencies)
// ============================================================================

func TestNewS3AssetArchive_Validation(t *testing.T) {
	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3AssetArchive(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3AssetArchive(&config.StorageConfig{AccessKey: "k", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("missing access key returns error", func(t *testing.T) {
		_, err := NewS3AssetArchive(&config.StorageConfig{Bucket: "b", SecretKey: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access key is required")
	})

	t.Run("missing secret key returns error", func(t *testing.T) {
		_, err := NewS3AssetArchive(&config.StorageConfig{Bucket: "b", AccessKey: "k"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret key is required")
	})

	t.Run("valid config without scheme", func(t *testing.T) {
		archive, err := NewS3AssetArchive(&config.StorageConfig{
			Bucket: "velvet-assets", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000",
		})
		require.NoError(t, err)
		assert.True(t, archive.Enabled())
		assert.Equal(t, "velvet-assets", archive.Bucket())
	})
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "generations/voxel_1718000000123.json", GenerationKey("voxel_1718000000123"))
	assert.Equal(t, "variants/prod_001/1718000000123.png", VariantKey("prod_001", time.UnixMilli(1718000000123)))
}

// fakeS3 records PUT requests the way a path-style S3 endpoint receives them.
type fakeS3 struct {
	mu   sync.Mutex
	puts map[string]putRecord
}

type putRecord struct {
	contentType string
	body        string
}

func newFakeS3(t *testing.T) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{puts: map[string]putRecord{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/assets/source.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG fake image"))
		case r.Method == http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.puts[r.URL.Path] = putRecord{contentType: r.Header.Get("Content-Type"), body: string(body)}
			f.mu.Unlock()
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeS3) get(path string) (putRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.puts[path]
	return r, ok
}

func newTestArchive(t *testing.T, endpoint string) *S3AssetArchive {
	t.Helper()
	archive, err := NewS3AssetArchive(&config.StorageConfig{
		Bucket:       "velvet-assets",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Endpoint:     endpoint,
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return archive
}

func TestS3AssetArchive_PutJSON(t *testing.T) {
	fake, server := newFakeS3(t)
	archive := newTestArchive(t, server.URL)

	err := archive.PutJSON(context.Background(), GenerationKey("voxel_1"), []map[string]any{{"type": "box"}})
	require.NoError(t, err)

	rec, ok := fake.get("/velvet-assets/generations/voxel_1.json")
	require.True(t, ok)
	assert.Equal(t, "application/json", rec.contentType)
	assert.Contains(t, rec.body, `"type":"box"`)
}

func TestS3AssetArchive_CopyFromURL(t *testing.T) {
	fake, server := newFakeS3(t)
	archive := newTestArchive(t, server.URL)

	t.Run("copies body and content type", func(t *testing.T) {
		err := archive.CopyFromURL(context.Background(), "variants/prod_001/1.png", server.URL+"/assets/source.png")
		require.NoError(t, err)

		rec, ok := fake.get("/velvet-assets/variants/prod_001/1.png")
		require.True(t, ok)
		assert.Equal(t, "image/png", rec.contentType)
		assert.Contains(t, rec.body, "fake image")
	})

	t.Run("download failure", func(t *testing.T) {
		err := archive.CopyFromURL(context.Background(), "variants/prod_001/2.png", server.URL+"/assets/missing.png")
		assert.Error(t, err)
	})
}

func TestS3AssetArchive_UploadRequiresKey(t *testing.T) {
	archive := newTestArchive(t, "http://localhost:9000")
	err := archive.Upload(context.Background(), "", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage key is required")
}

func TestStubAssetArchive(t *testing.T) {
	s := NewStubAssetArchive()
	assert.False(t, s.Enabled())
	assert.NoError(t, s.PutJSON(context.Background(), "k", map[string]string{}))
	assert.NoError(t, s.CopyFromURL(context.Background(), "k", "https://example.com/a.png"))
}
