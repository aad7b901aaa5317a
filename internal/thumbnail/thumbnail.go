package thumbnail

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"time"

	"medialib/internal/logging"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/semaphore"
)

const (
	// Size is the thumbnail bounding box; the longer side of the
	// rendered image never exceeds it and aspect ratio is preserved.
	Size = 256

	jpegQuality = 80

	// decodeTimeout bounds a single video frame extraction so files
	// with no usable keyframe near the seek point fail instead of
	// stalling a permit.
	decodeTimeout = 30 * time.Second
)

// Generation failure classes. None are retried internally; each maps to
// a reported failure for that file only.
var (
	// ErrNoVideoStream indicates the container has no video stream.
	ErrNoVideoStream = errors.New("no video stream found")
	// ErrNoDecodableFrame indicates no frame could be decoded within
	// the decode budget.
	ErrNoDecodableFrame = errors.New("no frames could be decoded")
)

// DeriveKey maps a file path to its thumbnail cache key: the SHA-256
// digest of the UTF-8 path bytes as lowercase hex. The key is a pure
// function of the path string only; file content does not influence it,
// so a file replaced in place with an unchanged path keeps its key.
func DeriveKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return fmt.Sprintf("%x", sum)
}

// Generator produces and caches preview thumbnails. The limiter caps
// simultaneously in-flight decode operations across all callers of this
// Generator, single-file and batch alike.
type Generator struct {
	cacheDir string
	limiter  *semaphore.Weighted
}

// New creates a Generator writing thumbnails under cacheDir, gated by
// the given decode limiter.
func New(cacheDir string, limiter *semaphore.Weighted) *Generator {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		logging.Warn("Failed to create thumbnail cache dir %s: %v", cacheDir, err)
	}
	return &Generator{
		cacheDir: cacheDir,
		limiter:  limiter,
	}
}

// CacheDir returns the thumbnail cache directory.
func (g *Generator) CacheDir() string {
	return g.cacheDir
}

// ThumbnailPath returns the cache path a thumbnail for filePath would
// occupy, whether or not it exists yet.
func (g *Generator) ThumbnailPath(filePath string) string {
	return filepath.Join(g.cacheDir, DeriveKey(filePath)+".jpg")
}

// Exists reports whether a thumbnail is cached for filePath. Presence
// of the file at the derived key is treated as valid.
func (g *Generator) Exists(filePath string) bool {
	_, err := os.Stat(g.ThumbnailPath(filePath))
	return err == nil
}

// resize fits an image into the Size x Size bounding box preserving
// aspect ratio.
func resize(img image.Image) image.Image {
	return imaging.Fit(img, Size, Size, imaging.Lanczos)
}

// save encodes a thumbnail as JPEG at the cache path. The write goes
// through a temp file and rename so a concurrent reader never sees a
// partial thumbnail.
func (g *Generator) save(thumbPath string, img image.Image) error {
	tmp, err := os.CreateTemp(g.cacheDir, ".thumb-*.jpg")
	if err != nil {
		return fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	if err := os.Rename(tmpPath, thumbPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move thumbnail into cache: %w", err)
	}
	return nil
}
