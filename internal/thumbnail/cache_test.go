package thumbnail

import (
	"context"
	"os"
	"testing"
)

func TestCacheSizeEmpty(t *testing.T) {
	gen := newTestGenerator(t, 1)

	size, err := gen.CacheSize()
	if err != nil {
		t.Fatalf("CacheSize() error = %v", err)
	}
	if size != 0 {
		t.Errorf("CacheSize() = %d for empty cache, want 0", size)
	}
}

func TestCacheSizeAndClear(t *testing.T) {
	gen := newTestGenerator(t, 2)
	srcDir := t.TempDir()

	for _, name := range []string{"a.png", "b.png"} {
		src := writeTestPNG(t, srcDir, name, 64, 64)
		if _, err := gen.Generate(context.Background(), src, false); err != nil {
			t.Fatalf("Generate(%s) error = %v", name, err)
		}
	}

	size, err := gen.CacheSize()
	if err != nil {
		t.Fatalf("CacheSize() error = %v", err)
	}
	if size <= 0 {
		t.Errorf("CacheSize() = %d after generating thumbnails, want > 0", size)
	}

	if err := gen.ClearCache(); err != nil {
		t.Fatalf("ClearCache() error = %v", err)
	}

	// Cache directory survives, contents do not.
	if _, err := os.Stat(gen.CacheDir()); err != nil {
		t.Fatalf("cache dir missing after ClearCache(): %v", err)
	}

	size, err = gen.CacheSize()
	if err != nil {
		t.Fatalf("CacheSize() after clear error = %v", err)
	}
	if size != 0 {
		t.Errorf("CacheSize() = %d after ClearCache(), want 0", size)
	}

	entries, err := os.ReadDir(gen.CacheDir())
	if err != nil {
		t.Fatalf("failed to read cache dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("cache dir has %d entries after ClearCache(), want 0", len(entries))
	}
}
