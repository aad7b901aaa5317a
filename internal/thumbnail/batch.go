package thumbnail

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"sync"

	"medialib/internal/logging"
)

// Request identifies one file in a batch thumbnail run.
type Request struct {
	Path    string `json:"path"`
	IsVideo bool   `json:"isVideo"`
}

// Response reports the per-file outcome of a batch run. Exactly one of
// ThumbnailPath or Error is meaningful depending on Success. DataURL is
// populated only when the caller asked for inline results.
type Response struct {
	Path          string `json:"path"`
	Success       bool   `json:"success"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
	DataURL       string `json:"dataUrl,omitempty"`
	Error         string `json:"error,omitempty"`
}

// GenerateBatch generates thumbnails for all requests concurrently.
// Each file runs in its own goroutine, with actual decode work gated by
// the generator's shared limiter, so the batch never exceeds the
// configured decode concurrency. One file failing never aborts its
// siblings; its Response carries the error instead. Results are
// returned in request order.
func (g *Generator) GenerateBatch(ctx context.Context, requests []Request) []Response {
	responses := make([]Response, len(requests))

	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			thumbPath, err := g.Generate(ctx, req.Path, req.IsVideo)
			if err != nil {
				logging.Warn("Batch thumbnail failed for %s: %v", req.Path, err)
				responses[i] = Response{Path: req.Path, Error: err.Error()}
				return
			}
			responses[i] = Response{Path: req.Path, Success: true, ThumbnailPath: thumbPath}
		}(i, req)
	}
	wg.Wait()

	return responses
}

// DataURL reads a generated thumbnail and returns it as a
// base64-encoded JPEG data URL for direct embedding by clients.
func DataURL(thumbPath string) (string, error) {
	data, err := os.ReadFile(thumbPath)
	if err != nil {
		return "", fmt.Errorf("failed to read thumbnail: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
