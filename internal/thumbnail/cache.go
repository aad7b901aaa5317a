package thumbnail

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"medialib/internal/logging"
)

// ClearCache removes every cached thumbnail and recreates the cache
// directory.
func (g *Generator) ClearCache() error {
	if err := os.RemoveAll(g.cacheDir); err != nil {
		return fmt.Errorf("failed to clear thumbnail cache: %w", err)
	}
	if err := os.MkdirAll(g.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to recreate thumbnail cache dir: %w", err)
	}
	logging.Info("Thumbnail cache cleared: %s", g.cacheDir)
	return nil
}

// CacheSize returns the total size in bytes of all cached thumbnails.
func (g *Generator) CacheSize() (int64, error) {
	var total int64
	err := filepath.WalkDir(g.cacheDir, func(path string, d fs.DirEntry, err error) error {
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
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure thumbnail cache: %w", err)
	}
	return total, nil
}
