package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medialib/internal/database"
	"medialib/internal/mediainfo"
	"medialib/internal/thumbnail"

	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"
)

func newTestHandlers(t *testing.T) (*Handlers, *mux.Router) {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	thumbGen := thumbnail.New(t.TempDir(), semaphore.NewWeighted(2))
	h := New(db, mediainfo.NewCache(db), thumbGen)

	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/media/info", h.GetMediaInfo).Methods("GET")
	api.HandleFunc("/media", h.ListMedia).Methods("GET")
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/thumbnail/exists", h.ThumbnailExists).Methods("GET")
	api.HandleFunc("/thumbnail/batch", h.BatchThumbnails).Methods("POST")
	api.HandleFunc("/thumbnail/cache", h.ClearThumbnailCache).Methods("DELETE")
	api.HandleFunc("/thumbnail/cache/size", h.ThumbnailCacheSize).Methods("GET")
	api.HandleFunc("/scan", h.ScanFolder).Methods("POST")
	api.HandleFunc("/folders", h.ListScannedFolders).Methods("GET")
	api.HandleFunc("/folders/{id}", h.DeleteScannedFolder).Methods("DELETE")
	api.HandleFunc("/preferences", h.ListPreferences).Methods("GET")
	api.HandleFunc("/preferences/{key}", h.GetPreference).Methods("GET")
	api.HandleFunc("/preferences/{key}", h.SetPreference).Methods("PUT")
	api.HandleFunc("/preferences/{key}", h.DeletePreference).Methods("DELETE")

	return h, r
}

func writeTestPNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func doRequest(t *testing.T, r *mux.Router, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	_, r := newTestHandlers(t)

	rec := doRequest(t, r, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != statusHealthy {
		t.Errorf("health status = %q, want %q", resp.Status, statusHealthy)
	}
}

func TestGetMediaInfo(t *testing.T) {
	_, r := newTestHandlers(t)
	path := writeTestPNG(t, t.TempDir(), "photo.png", 320, 240)

	rec := doRequest(t, r, "GET", "/api/media/info?path="+path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/media/info status = %d, body %s", rec.Code, rec.Body.String())
	}

	var record database.MediaMetadata
	decodeBody(t, rec, &record)
	if record.Width == nil || *record.Width != 320 {
		t.Errorf("Width = %v, want 320", record.Width)
	}
	if record.Format == nil || *record.Format != "PNG" {
		t.Errorf("Format = %v, want PNG", record.Format)
	}
	if record.ID == 0 {
		t.Error("ID = 0, want persisted record id")
	}

	// Second request should be served from the cache with the same id.
	rec = doRequest(t, r, "GET", "/api/media/info?path="+path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second GET /api/media/info status = %d", rec.Code)
	}
	var cached database.MediaMetadata
	decodeBody(t, rec, &cached)
	if cached.ID != record.ID {
		t.Errorf("cached ID = %d, want %d", cached.ID, record.ID)
	}
}

func TestGetMediaInfoErrors(t *testing.T) {
	_, r := newTestHandlers(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"Missing path", "/api/media/info", http.StatusBadRequest},
		{"NUL in path", "/api/media/info?path=/a%00b.png", http.StatusBadRequest},
		{"Nonexistent image", "/api/media/info?path=/nope/photo.png", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, "GET", tt.target, nil)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestGetThumbnail(t *testing.T) {
	_, r := newTestHandlers(t)
	path := writeTestPNG(t, t.TempDir(), "photo.png", 640, 480)

	rec := doRequest(t, r, "GET", "/api/thumbnail?path="+path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/thumbnail status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}

	img, err := jpeg.Decode(rec.Body)
	if err != nil {
		t.Fatalf("response is not a valid JPEG: %v", err)
	}
	if img.Bounds().Dx() > thumbnail.Size || img.Bounds().Dy() > thumbnail.Size {
		t.Errorf("thumbnail = %dx%d, want within %dx%d",
			img.Bounds().Dx(), img.Bounds().Dy(), thumbnail.Size, thumbnail.Size)
	}
}

func TestThumbnailExists(t *testing.T) {
	_, r := newTestHandlers(t)
	path := writeTestPNG(t, t.TempDir(), "photo.png", 64, 64)

	rec := doRequest(t, r, "GET", "/api/thumbnail/exists?path="+path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/thumbnail/exists status = %d", rec.Code)
	}
	var resp ThumbnailExistsResponse
	decodeBody(t, rec, &resp)
	if resp.Exists {
		t.Error("Exists = true before generation, want false")
	}

	if rec := doRequest(t, r, "GET", "/api/thumbnail?path="+path, nil); rec.Code != http.StatusOK {
		t.Fatalf("thumbnail generation failed: %d", rec.Code)
	}

	rec = doRequest(t, r, "GET", "/api/thumbnail/exists?path="+path, nil)
	decodeBody(t, rec, &resp)
	if !resp.Exists {
		t.Error("Exists = false after generation, want true")
	}
	if resp.ThumbnailPath == "" {
		t.Error("ThumbnailPath empty for existing thumbnail")
	}
}

func TestBatchThumbnails(t *testing.T) {
	_, r := newTestHandlers(t)
	srcDir := t.TempDir()

	requests := []thumbnail.Request{
		{Path: writeTestPNG(t, srcDir, "a.png", 64, 64)},
		{Path: filepath.Join(srcDir, "missing.png")},
		{Path: writeTestPNG(t, srcDir, "b.png", 64, 64)},
	}

	rec := doRequest(t, r, "POST", "/api/thumbnail/batch", requests)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/thumbnail/batch status = %d, body %s", rec.Code, rec.Body.String())
	}

	var responses []thumbnail.Response
	decodeBody(t, rec, &responses)
	if len(responses) != 3 {
		t.Fatalf("batch returned %d responses, want 3", len(responses))
	}
	if !responses[0].Success || !responses[2].Success {
		t.Error("valid files failed in batch")
	}
	if responses[1].Success {
		t.Error("missing file succeeded in batch, want failure")
	}
	if responses[1].Error == "" {
		t.Error("failed batch entry has no error message")
	}
}

func TestBatchThumbnailsDataURL(t *testing.T) {
	_, r := newTestHandlers(t)
	srcDir := t.TempDir()

	requests := []thumbnail.Request{
		{Path: writeTestPNG(t, srcDir, "a.png", 64, 64)},
		{Path: filepath.Join(srcDir, "missing.png")},
	}

	rec := doRequest(t, r, "POST", "/api/thumbnail/batch?dataUrl=true", requests)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/thumbnail/batch status = %d", rec.Code)
	}

	var responses []thumbnail.Response
	decodeBody(t, rec, &responses)
	if len(responses) != 2 {
		t.Fatalf("batch returned %d responses, want 2", len(responses))
	}
	if !strings.HasPrefix(responses[0].DataURL, "data:image/jpeg;base64,") {
		t.Errorf("DataURL = %.40q, want a JPEG data URL", responses[0].DataURL)
	}
	if responses[1].DataURL != "" {
		t.Errorf("failed entry has DataURL %.40q, want empty", responses[1].DataURL)
	}
}

func TestBatchThumbnailsBadBody(t *testing.T) {
	_, r := newTestHandlers(t)

	req := httptest.NewRequest("POST", "/api/thumbnail/batch", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d for malformed body, want 400", rec.Code)
	}
}

func TestThumbnailCacheLifecycle(t *testing.T) {
	_, r := newTestHandlers(t)
	path := writeTestPNG(t, t.TempDir(), "photo.png", 64, 64)

	if rec := doRequest(t, r, "GET", "/api/thumbnail?path="+path, nil); rec.Code != http.StatusOK {
		t.Fatalf("thumbnail generation failed: %d", rec.Code)
	}

	rec := doRequest(t, r, "GET", "/api/thumbnail/cache/size", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET cache/size status = %d", rec.Code)
	}
	var size map[string]int64
	decodeBody(t, rec, &size)
	if size["sizeBytes"] <= 0 {
		t.Errorf("sizeBytes = %d after generation, want > 0", size["sizeBytes"])
	}

	if rec := doRequest(t, r, "DELETE", "/api/thumbnail/cache", nil); rec.Code != http.StatusOK {
		t.Fatalf("DELETE cache status = %d", rec.Code)
	}

	rec = doRequest(t, r, "GET", "/api/thumbnail/cache/size", nil)
	decodeBody(t, rec, &size)
	if size["sizeBytes"] != 0 {
		t.Errorf("sizeBytes = %d after clear, want 0", size["sizeBytes"])
	}
}

func TestScanAndFolders(t *testing.T) {
	_, r := newTestHandlers(t)
	mediaDir := t.TempDir()
	writeTestPNG(t, mediaDir, "a.png", 32, 32)
	writeTestPNG(t, mediaDir, "b.png", 32, 32)
	if err := os.WriteFile(filepath.Join(mediaDir, "skip.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	rec := doRequest(t, r, "POST", "/api/scan", ScanRequest{Path: mediaDir})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /api/scan status = %d, body %s", rec.Code, rec.Body.String())
	}

	var scan ScanResponse
	decodeBody(t, rec, &scan)
	if scan.FolderID == 0 {
		t.Error("scan FolderID = 0, want registered folder id")
	}
	if len(scan.Files) != 2 {
		t.Errorf("scan found %d files, want 2", len(scan.Files))
	}

	rec = doRequest(t, r, "GET", "/api/folders", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/folders status = %d", rec.Code)
	}
	var folders []database.ScannedFolder
	decodeBody(t, rec, &folders)
	if len(folders) != 1 {
		t.Fatalf("listed %d folders, want 1", len(folders))
	}
	if folders[0].FileCount != 2 {
		t.Errorf("folder FileCount = %d, want 2", folders[0].FileCount)
	}

	rec = doRequest(t, r, "DELETE", fmt.Sprintf("/api/folders/%d", scan.FolderID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /api/folders/{id} status = %d", rec.Code)
	}

	rec = doRequest(t, r, "GET", "/api/folders", nil)
	decodeBody(t, rec, &folders)
	if len(folders) != 0 {
		t.Errorf("listed %d folders after delete, want 0", len(folders))
	}
}

func TestScanErrors(t *testing.T) {
	_, r := newTestHandlers(t)

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"Empty path", ScanRequest{Path: ""}, http.StatusBadRequest},
		{"Nonexistent folder", ScanRequest{Path: "/does/not/exist"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, "POST", "/api/scan", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestScanPrunesMissingFiles(t *testing.T) {
	h, r := newTestHandlers(t)
	mediaDir := t.TempDir()
	keep := writeTestPNG(t, mediaDir, "keep.png", 32, 32)
	gone := writeTestPNG(t, mediaDir, "gone.png", 32, 32)

	// First scan registers the folder; metadata extraction attaches
	// records to it.
	rec := doRequest(t, r, "POST", "/api/scan", ScanRequest{Path: mediaDir})
	if rec.Code != http.StatusOK {
		t.Fatalf("first scan status = %d", rec.Code)
	}
	for _, p := range []string{keep, gone} {
		if rec := doRequest(t, r, "GET", "/api/media/info?path="+p, nil); rec.Code != http.StatusOK {
			t.Fatalf("metadata extraction for %s failed: %d", p, rec.Code)
		}
	}

	if err := os.Remove(gone); err != nil {
		t.Fatalf("failed to remove file: %v", err)
	}

	rec = doRequest(t, r, "POST", "/api/scan", ScanRequest{Path: mediaDir})
	if rec.Code != http.StatusOK {
		t.Fatalf("second scan status = %d", rec.Code)
	}

	ctx := context.Background()
	if record, err := h.db.GetMediaByPath(ctx, gone); err != nil || record != nil {
		t.Errorf("record for removed file still cached (record %v, err %v), want pruned", record, err)
	}
	if record, err := h.db.GetMediaByPath(ctx, keep); err != nil || record == nil {
		t.Errorf("record for surviving file missing (err %v), want kept", err)
	}
}

func TestPreferencesAPI(t *testing.T) {
	_, r := newTestHandlers(t)

	rec := doRequest(t, r, "PUT", "/api/preferences/theme", PreferenceValue{Value: "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT preference status = %d", rec.Code)
	}

	rec = doRequest(t, r, "GET", "/api/preferences/theme", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET preference status = %d", rec.Code)
	}
	var pref PreferenceValue
	decodeBody(t, rec, &pref)
	if pref.Value != "dark" {
		t.Errorf("preference value = %q, want dark", pref.Value)
	}

	rec = doRequest(t, r, "GET", "/api/preferences", nil)
	var prefs []database.UserPreference
	decodeBody(t, rec, &prefs)
	if len(prefs) != 1 {
		t.Errorf("listed %d preferences, want 1", len(prefs))
	}

	rec = doRequest(t, r, "DELETE", "/api/preferences/theme", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE preference status = %d", rec.Code)
	}

	rec = doRequest(t, r, "GET", "/api/preferences/theme", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted preference status = %d, want 404", rec.Code)
	}
}

func TestListMedia(t *testing.T) {
	_, r := newTestHandlers(t)
	path := writeTestPNG(t, t.TempDir(), "photo.png", 64, 64)

	if rec := doRequest(t, r, "GET", "/api/media/info?path="+path, nil); rec.Code != http.StatusOK {
		t.Fatalf("metadata extraction failed: %d", rec.Code)
	}

	rec := doRequest(t, r, "GET", "/api/media", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/media status = %d", rec.Code)
	}
	var records []database.MediaMetadata
	decodeBody(t, rec, &records)
	if len(records) != 1 {
		t.Errorf("listed %d records, want 1", len(records))
	}

	rec = doRequest(t, r, "GET", "/api/media?folderId=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /api/media?folderId=abc status = %d, want 400", rec.Code)
	}
}
