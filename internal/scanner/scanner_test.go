package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"medialib/internal/mediatypes"
)

func writeFile(t *testing.T, path string, modTime time.Time) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatalf("failed to set mtime on %s: %v", path, err)
		}
	}
}

func TestScanFiltersAndClassifies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "photo.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, "clip.mp4"), time.Time{})
	writeFile(t, filepath.Join(root, "notes.txt"), time.Time{})
	writeFile(t, filepath.Join(root, "archive.zip"), time.Time{})

	entries, err := Scan(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Scan() returned %d entries, want 2 (media only)", len(entries))
	}

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Name] = e
	}

	photo, ok := byName["photo.jpg"]
	if !ok {
		t.Fatal("photo.jpg missing from scan results")
	}
	if photo.Classification != mediatypes.ClassImage {
		t.Errorf("photo.jpg classification = %v, want image", photo.Classification)
	}
	if photo.Extension != "jpg" {
		t.Errorf("photo.jpg extension = %q, want jpg", photo.Extension)
	}
	if photo.MimeType != "image/jpeg" {
		t.Errorf("photo.jpg mime = %q, want image/jpeg", photo.MimeType)
	}
	if photo.Size <= 0 {
		t.Errorf("photo.jpg size = %d, want > 0", photo.Size)
	}

	clip, ok := byName["clip.mp4"]
	if !ok {
		t.Fatal("clip.mp4 missing from scan results")
	}
	if clip.Classification != mediatypes.ClassVideo {
		t.Errorf("clip.mp4 classification = %v, want video", clip.Classification)
	}
}

func TestScanNewestFirst(t *testing.T) {
	root := t.TempDir()
	now := time.Now()
	writeFile(t, filepath.Join(root, "oldest.jpg"), now.Add(-2*time.Hour))
	writeFile(t, filepath.Join(root, "middle.jpg"), now.Add(-1*time.Hour))
	writeFile(t, filepath.Join(root, "newest.jpg"), now)

	entries, err := Scan(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Scan() returned %d entries, want 3", len(entries))
	}

	want := []string{"newest.jpg", "middle.jpg", "oldest.jpg"}
	for i, name := range want {
		if entries[i].Name != name {
			t.Errorf("entries[%d].Name = %s, want %s (newest first)", i, entries[i].Name, name)
		}
	}
}

func TestScanRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, "sub", "nested.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, "sub", "deep", "deeper.mp4"), time.Time{})

	entries, err := Scan(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("recursive Scan() returned %d entries, want 3", len(entries))
	}

	opts := DefaultOptions()
	opts.Recursive = false
	entries, err = Scan(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("Scan() non-recursive error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("non-recursive Scan() returned %d entries, want 1", len(entries))
	}
	if entries[0].Name != "top.jpg" {
		t.Errorf("non-recursive Scan() found %s, want top.jpg", entries[0].Name)
	}
}

func TestScanSkipsHidden(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "visible.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, ".hidden.jpg"), time.Time{})
	writeFile(t, filepath.Join(root, ".thumbnails", "cached.jpg"), time.Time{})

	entries, err := Scan(context.Background(), root, DefaultOptions())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Scan() returned %d entries, want 1 (hidden skipped)", len(entries))
	}
	if entries[0].Name != "visible.jpg" {
		t.Errorf("Scan() found %s, want visible.jpg", entries[0].Name)
	}

	opts := DefaultOptions()
	opts.SkipHidden = false
	entries, err = Scan(context.Background(), root, opts)
	if err != nil {
		t.Fatalf("Scan() without SkipHidden error = %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("Scan() without SkipHidden returned %d entries, want 3", len(entries))
	}
}

func TestScanErrors(t *testing.T) {
	t.Run("Nonexistent root", func(t *testing.T) {
		if _, err := Scan(context.Background(), "/does/not/exist", DefaultOptions()); err == nil {
			t.Error("Scan() error = nil for nonexistent root, want error")
		}
	})

	t.Run("Root is a file", func(t *testing.T) {
		root := t.TempDir()
		file := filepath.Join(root, "file.jpg")
		writeFile(t, file, time.Time{})

		if _, err := Scan(context.Background(), file, DefaultOptions()); err == nil {
			t.Error("Scan() error = nil for file root, want error")
		}
	})
}

func TestScanEmptyFolder(t *testing.T) {
	entries, err := Scan(context.Background(), t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Scan() returned %d entries for empty folder, want 0", len(entries))
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), time.Time{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, root, DefaultOptions()); err == nil {
		t.Error("Scan() error = nil with cancelled context, want error")
	}
}
