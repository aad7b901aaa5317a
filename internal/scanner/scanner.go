package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"medialib/internal/logging"
	"medialib/internal/mediatypes"
	"medialib/internal/metrics"
	"medialib/internal/workers"
)

// Entry describes one media file discovered by a scan.
type Entry struct {
	Path           string                    `json:"path"`
	Name           string                    `json:"name"`
	Size           int64                     `json:"size"`
	ModifiedDate   time.Time                 `json:"modifiedDate"`
	Extension      string                    `json:"extension"`
	Classification mediatypes.Classification `json:"classification"`
	MimeType       string                    `json:"mimeType"`
}

// Options configures a scan.
type Options struct {
	// Recursive descends into subdirectories. When false only the
	// immediate children of the root are considered.
	Recursive bool
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
	// MaxWorkers caps the stat workers; 0 uses the I/O default.
	MaxWorkers int
}

// DefaultOptions returns the options used by the scan API.
func DefaultOptions() Options {
	return Options{
		Recursive:  true,
		SkipHidden: true,
	}
}

// Scan walks root and returns every supported media file, sorted by
// modification time with the newest first. The root must exist and be
// a directory. Files whose extension is outside the image and video
// allow-lists are skipped; unreadable entries are logged and skipped
// rather than failing the scan.
func Scan(ctx context.Context, root string, opts Options) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("folder does not exist: %s", root)
		}
		return nil, fmt.Errorf("failed to access folder %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", root)
	}

	start := time.Now()
	paths, err := collectPaths(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	entries := statEntries(ctx, paths, opts)

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ModifiedDate.After(entries[j].ModifiedDate)
	})

	metrics.ScannerRunsTotal.Inc()
	metrics.ScannerFilesDiscovered.Add(float64(len(entries)))
	logging.Info("Scanned %s: %d media files in %v", root, len(entries), time.Since(start))

	return entries, nil
}

// collectPaths gathers candidate media file paths under root. Only the
// walk itself is serial; stat work happens in statEntries.
func collectPaths(ctx context.Context, root string, opts Options) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if opts.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if !opts.Recursive && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if mediatypes.IsMediaFile(strings.ToLower(filepath.Ext(path))) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan of %s failed: %w", root, err)
	}
	return paths, nil
}

// statEntries stats candidate paths with a small worker pool. A file
// that disappears between walk and stat is dropped silently.
func statEntries(ctx context.Context, paths []string, opts Options) []Entry {
	numWorkers := opts.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = workers.ForIO(8)
	}
	if numWorkers > len(paths) && len(paths) > 0 {
		numWorkers = len(paths)
	}

	jobs := make(chan string, numWorkers)
	results := make(chan Entry, numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}
				info, err := os.Stat(path)
				if err != nil {
					logging.Debug("Skipping %s: %v", path, err)
					continue
				}
				ext := strings.ToLower(filepath.Ext(path))
				results <- Entry{
					Path:           path,
					Name:           info.Name(),
					Size:           info.Size(),
					ModifiedDate:   info.ModTime(),
					Extension:      strings.TrimPrefix(ext, "."),
					Classification: mediatypes.Classify(ext),
					MimeType:       mediatypes.GetMimeType(ext),
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var entries []Entry
	for e := range results {
		entries = append(entries, e)
	}
	return entries
}
