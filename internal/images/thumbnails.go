// Package images downloads remote recipe images, scales them down and serves
// them from a local disk cache.
package images

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/mealshare/mealshare/internal/config"
	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sync/singleflight"
)

// maxDownloadSize caps how much of a remote image is read.
const maxDownloadSize = 20 << 20

var (
	// ErrDiskFull is returned when the disk holding the cache is above the configured usage limit.
	ErrDiskFull = errors.New("image cache disk usage limit reached")
	// ErrForbiddenAddress is returned when an image host resolves to a non-public address.
	ErrForbiddenAddress = errors.New("image host resolves to a forbidden address")
	// ErrTooLarge is returned when a source image has more pixels than allowed.
	ErrTooLarge = errors.New("image dimensions exceed the allowed limit")
)

// DiskUsageFunc reports the used percentage of the filesystem holding path.
type DiskUsageFunc func(ctx context.Context, path string) (float64, error)

// Cache stores scaled copies of remote images on disk.
type Cache struct {
	dir          string
	client       *http.Client
	maxWidth     int
	maxHeight    int
	quality      int
	maxDiskUsage float64
	maxPixels    int
	diskUsage    DiskUsageFunc
	group        singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithHTTPClient sets the client used to download images.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.client = client }
}

// WithDiskUsage replaces the function that reports filesystem usage.
func WithDiskUsage(fn DiskUsageFunc) Option {
	return func(c *Cache) { c.diskUsage = fn }
}

// New creates the cache directory and returns a Cache for it.
func New(cfg *config.ImagesConfig, opts ...Option) (*Cache, error) {
	if cfg == nil {
		return nil, errors.New("image cache config is required")
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image cache directory: %w", err)
	}

	c := &Cache{
		dir:          cfg.CacheDir,
		client:       newClient(cfg.AllowPrivateNetworks),
		maxWidth:     cfg.MaxWidth,
		maxHeight:    cfg.MaxHeight,
		quality:      cfg.Quality,
		maxDiskUsage: cfg.MaxDiskUsagePercent,
		maxPixels:    cfg.MaxPixels,
		diskUsage:    DiskUsage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newClient returns the client used for downloads. Unless allowPrivate is set,
// connections are only made to public unicast addresses. The check runs on
// the resolved address, so DNS names pointing inward are refused as well.
func newClient(allowPrivate bool) *http.Client {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	if !allowPrivate {
		dialer.Control = guardAddress
	}
	return &http.Client{
		Timeout: 30 * time.Second,
		// Proxy stays nil so the dialer sees the real destination.
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

func guardAddress(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, address)
	}
	if !IsPublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, ap.Addr())
	}
	return nil
}

// IsPublicAddr reports whether addr is a globally routable unicast address.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return false
	}
	// carrier-grade NAT, 100.64.0.0/10
	if addr.Is4() && addr.As4()[0] == 100 && addr.As4()[1]&0xc0 == 64 {
		return false
	}
	return true
}

// DiskUsage returns the used percentage of the filesystem holding path.
func DiskUsage(ctx context.Context, path string) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to get disk usage for %s: %w", path, err)
	}
	return usage.UsedPercent, nil
}

// IsRemote reports whether imageURL is an absolute http(s) URL the cache can fetch.
func IsRemote(imageURL string) bool {
	u, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c *Cache) key(imageURL string) string {
	sum := sha256.Sum256([]byte(imageURL))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(imageURL string) string {
	return filepath.Join(c.dir, c.key(imageURL))
}

// Path returns the local path of the scaled image, downloading it first if needed.
// Concurrent calls for the same URL share one download.
func (c *Cache) Path(ctx context.Context, imageURL string) (string, error) {
	if !IsRemote(imageURL) {
		return "", fmt.Errorf("not a remote image: %q", imageURL)
	}

	target := c.path(imageURL)
	if _, err := os.Stat(target); err == nil {
		log.Debug("Using cached image", "path", target)
		return target, nil
	}

	_, err, _ := c.group.Do(target, func() (any, error) {
		return nil, c.download(ctx, imageURL, target)
	})
	if err != nil {
		return "", err
	}
	return target, nil
}

func (c *Cache) download(ctx context.Context, imageURL, target string) error {
	if c.maxDiskUsage > 0 {
		used, err := c.diskUsage(ctx, c.dir)
		if err != nil {
			return err
		}
		if used >= c.maxDiskUsage {
			return fmt.Errorf("%w: %.1f%% used", ErrDiskFull, used)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("invalid content type: %s", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	if c.maxPixels > 0 && conf.Width*conf.Height > c.maxPixels {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, conf.Width, conf.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	scaled := imaging.Fit(img, c.maxWidth, c.maxHeight, imaging.Lanczos)

	tmp, err := os.CreateTemp(c.dir, "tmp_*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if format == "png" {
		err = imaging.Encode(tmp, scaled, imaging.PNG)
	} else {
		err = imaging.Encode(tmp, scaled, imaging.JPEG, imaging.JPEGQuality(c.quality))
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to save scaled image: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to move temp file: %w", err)
	}

	log.Info("Cached image",
		"url", imageURL,
		"original", fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"cached", fmt.Sprintf("%dx%d", scaled.Bounds().Dx(), scaled.Bounds().Dy()),
	)
	return nil
}

// Serve writes the scaled image for imageURL. Nothing is written to w when an
// error is returned, so callers can fall back to another response.
func (c *Cache) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, imageURL string) error {
	target, err := c.Path(ctx, imageURL)
	if err != nil {
		return err
	}

	f, err := os.Open(target)
	if err != nil {
		return fmt.Errorf("failed to open cached image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat cached image: %w", err)
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

// Cleanup removes cached images older than maxAge and returns how many were removed.
func (c *Cache) Cleanup(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			log.Debug("Removing old cached image", "path", path)
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
