package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mealshare/mealshare/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, opts ...Option) *Cache {
	t.Helper()
	cfg := &config.ImagesConfig{
		Enabled:   true,
		CacheDir:  filepath.Join(t.TempDir(), "images"),
		MaxWidth:  100,
		MaxHeight: 100,
		Quality:   80,
	}
	// httptest servers listen on loopback
	cfg.AllowPrivateNetworks = true
	c, err := New(cfg, opts...)
	require.NoError(t, err)
	return c
}

func imageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.jpg"))
	assert.True(t, IsRemote("http://example.com/a.jpg"))
	assert.False(t, IsRemote("/static/images/default-recipe-image.svg"))
	assert.False(t, IsRemote("ftp://example.com/a.jpg"))
	assert.False(t, IsRemote("https:///a.jpg"))
	assert.False(t, IsRemote(""))
}

func TestPath_ScalesDown(t *testing.T) {
	c := newTestCache(t)
	srv := imageServer(t, "image/jpeg", jpegBytes(t, 400, 200))

	path, err := c.Path(context.Background(), srv.URL+"/big.jpg")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestPath_KeepsSmallImages(t *testing.T) {
	c := newTestCache(t)
	srv := imageServer(t, "image/jpeg", jpegBytes(t, 40, 30))

	path, err := c.Path(context.Background(), srv.URL+"/small.jpg")
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestPath_RejectsNonImages(t *testing.T) {
	c := newTestCache(t)
	srv := imageServer(t, "text/html", []byte("<html></html>"))

	_, err := c.Path(context.Background(), srv.URL+"/page")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid content type")
}

func TestPath_RejectsLocalPaths(t *testing.T) {
	c := newTestCache(t)
	_, err := c.Path(context.Background(), "/static/images/default-recipe-image.svg")
	require.Error(t, err)
}

func TestPath_DiskFull(t *testing.T) {
	c := newTestCache(t, WithDiskUsage(func(context.Context, string) (float64, error) {
		return 97.5, nil
	}))
	c.maxDiskUsage = 90
	srv := imageServer(t, "image/jpeg", jpegBytes(t, 10, 10))

	_, err := c.Path(context.Background(), srv.URL+"/a.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDiskFull))
}

func TestPath_RefusesPrivateHosts(t *testing.T) {
	c, err := New(&config.ImagesConfig{
		Enabled:   true,
		CacheDir:  filepath.Join(t.TempDir(), "images"),
		MaxWidth:  100,
		MaxHeight: 100,
		Quality:   80,
	})
	require.NoError(t, err)

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(jpegBytes(t, 10, 10))
	}))
	defer srv.Close()

	_, err = c.Path(context.Background(), srv.URL+"/a.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbiddenAddress)
	assert.Zero(t, hits.Load())
}

func TestIsPublicAddr(t *testing.T) {
	tests := []struct {
		addr   string
		public bool
	}{
		{"93.184.216.34", true},
		{"2606:2800:220:1:248:1893:25c8:1946", true},
		{"127.0.0.1", false},
		{"::1", false},
		{"10.1.2.3", false},
		{"172.16.0.1", false},
		{"192.168.1.1", false},
		{"169.254.169.254", false},
		{"fe80::1", false},
		{"fc00::1", false},
		{"0.0.0.0", false},
		{"::", false},
		{"224.0.0.1", false},
		{"100.64.0.1", false},
		{"::ffff:127.0.0.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.public, IsPublicAddr(netip.MustParseAddr(tt.addr)))
		})
	}
}

func TestPath_RejectsHugeImages(t *testing.T) {
	c := newTestCache(t)
	c.maxPixels = 50 * 50
	srv := imageServer(t, "image/jpeg", jpegBytes(t, 100, 100))

	_, err := c.Path(context.Background(), srv.URL+"/huge.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NoFileExists(t, c.path(srv.URL+"/huge.jpg"))
}

func TestServe(t *testing.T) {
	c := newTestCache(t)
	srv := imageServer(t, "image/jpeg", jpegBytes(t, 10, 10))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/images/recipe/1", nil)
	require.NoError(t, c.Serve(context.Background(), w, r, srv.URL+"/a.jpg"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
}

func TestServe_ErrorWritesNothing(t *testing.T) {
	c := newTestCache(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/images/recipe/1", nil)
	require.Error(t, c.Serve(context.Background(), w, r, srv.URL+"/missing.jpg"))
	assert.Zero(t, w.Body.Len())
	assert.Empty(t, w.Header())
}

func TestCleanup(t *testing.T) {
	c := newTestCache(t)
	old := filepath.Join(c.dir, "old")
	fresh := filepath.Join(c.dir, "fresh")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	removed, err := c.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
}
