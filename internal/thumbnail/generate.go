package thumbnail

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"medialib/internal/logging"
	"medialib/internal/metrics"
)

// Generate produces a thumbnail for filePath and returns the cache path
// of the rendered JPEG. A cached thumbnail is returned immediately
// without re-validation against the source file. Otherwise one limiter
// permit is held for the duration of the decode; acquisition blocks
// until a permit is free or ctx is cancelled.
func (g *Generator) Generate(ctx context.Context, filePath string, isVideo bool) (string, error) {
	thumbPath := g.ThumbnailPath(filePath)

	if _, err := os.Stat(thumbPath); err == nil {
		logging.Debug("Thumbnail cache hit: %s", filePath)
		metrics.ThumbnailCacheHits.Inc()
		return thumbPath, nil
	}

	if err := g.limiter.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for decode permit: %w", err)
	}
	defer g.limiter.Release(1)

	metrics.DecodesInFlight.Inc()
	defer metrics.DecodesInFlight.Dec()

	// A sibling may have generated this thumbnail while we waited, in
	// which case this call is a hit, not a miss.
	if _, err := os.Stat(thumbPath); err == nil {
		logging.Debug("Thumbnail generated concurrently: %s", filePath)
		metrics.ThumbnailCacheHits.Inc()
		return thumbPath, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	kind := "image"
	if isVideo {
		kind = "video"
	}
	logging.Debug("Generating thumbnail: %s (%s)", filePath, kind)
	start := time.Now()

	var img image.Image
	var err error
	if isVideo {
		img, err = g.decodeVideoFrame(ctx, filePath)
	} else {
		img, err = g.decodeImage(ctx, filePath)
	}
	if err != nil {
		metrics.ThumbnailFailures.WithLabelValues(kind).Inc()
		return "", err
	}

	if err := g.save(thumbPath, resize(img)); err != nil {
		metrics.ThumbnailFailures.WithLabelValues(kind).Inc()
		return "", err
	}

	metrics.ThumbnailGenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	logging.Debug("Thumbnail generated: %s -> %s", filePath, thumbPath)
	return thumbPath, nil
}
