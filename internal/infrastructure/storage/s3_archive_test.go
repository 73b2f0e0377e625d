package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mfgadmin/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig(endpoint string) config.StorageConfig {
	return config.StorageConfig{
		Enabled:      true,
		Endpoint:     endpoint,
		Bucket:       "valuation",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func TestNewS3Archive_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*config.StorageConfig)
		errMsg string
	}{
		{"missing bucket", func(c *config.StorageConfig) { c.Bucket = "" }, "bucket is required"},
		{"missing access key", func(c *config.StorageConfig) { c.AccessKey = "" }, "access key is required"},
		{"missing secret key", func(c *config.StorageConfig) { c.SecretKey = "" }, "secret key is required"},
		{"bad endpoint", func(c *config.StorageConfig) { c.Endpoint = "http://" }, "invalid storage endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig("http://localhost:9000")
			tt.mutate(&cfg)
			_, err := NewS3Archive(ctx, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewS3Archive_Defaults(t *testing.T) {
	archive, err := NewS3Archive(context.Background(), validConfig("localhost:9000"))
	require.NoError(t, err)

	assert.Equal(t, "valuation", archive.Bucket())
	assert.Equal(t, 15*time.Minute, archive.presignExpiration)
}

func TestNewS3Archive_Options(t *testing.T) {
	archive, err := NewS3Archive(context.Background(), validConfig("localhost:9000"),
		WithLogger(zaptest.NewLogger(t)),
		WithPresignExpiration(time.Hour),
	)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, archive.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	ep, err := normalizeEndpoint("", false)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", ep)

	ep, err = normalizeEndpoint("minio.internal:9000", true)
	require.NoError(t, err)
	assert.Equal(t, "https://minio.internal:9000", ep)

	ep, err = normalizeEndpoint("http://rustfs:9000", true)
	require.NoError(t, err)
	assert.Equal(t, "http://rustfs:9000", ep)
}

func TestS3Archive_DownloadURL(t *testing.T) {
	archive, err := NewS3Archive(context.Background(), validConfig("http://localhost:9000"))
	require.NoError(t, err)

	link, expiresAt, err := archive.DownloadURL(context.Background(), "snapshots/storage_items_20250310_233000.xlsx")
	require.NoError(t, err)
	assert.Contains(t, link, "/valuation/snapshots/storage_items_20250310_233000.xlsx")
	assert.Contains(t, link, "X-Amz-Signature=")
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	_, _, err = archive.DownloadURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

// fakeS3 answers the few path-style calls the archive makes
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]string // path -> content type
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	switch r.Method {
	case http.MethodPut:
		f.objects[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[r.URL.Path]; ok || r.URL.Path == "/valuation" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeArchive(t *testing.T) (*S3Archive, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	archive, err := NewS3Archive(context.Background(), validConfig(srv.URL))
	require.NoError(t, err)
	return archive, fake
}

func TestS3Archive_PutAndExists(t *testing.T) {
	archive, fake := newFakeArchive(t)
	ctx := context.Background()
	key := "snapshots/storage_items_20250310_233000.xlsx"

	exists, err := archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, archive.Put(ctx, key, []byte("xlsx bytes"), "application/test"))

	exists, err = archive.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "application/test", fake.objects["/valuation/"+key])
	assert.True(t, strings.HasPrefix(fake.requests[0], "HEAD /valuation/"))
}

func TestS3Archive_EnsureBucketExisting(t *testing.T) {
	archive, fake := newFakeArchive(t)

	require.NoError(t, archive.EnsureBucket(context.Background()))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, []string{"HEAD /valuation"}, fake.requests)
}

func TestS3Archive_EmptyKey(t *testing.T) {
	archive, _ := newFakeArchive(t)
	ctx := context.Background()

	assert.ErrorIs(t, archive.Put(ctx, "", nil, ""), ErrEmptyKey)
	_, err := archive.Exists(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}
