package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"medialib/internal/logging"
	"medialib/internal/scanner"

	"github.com/gorilla/mux"
)

// ScanRequest asks for a folder to be scanned and registered.
type ScanRequest struct {
	Path      string `json:"path"`
	Recursive *bool  `json:"recursive,omitempty"`
}

// ScanResponse returns the registered folder and the discovered files,
// newest first.
type ScanResponse struct {
	FolderID int64           `json:"folderId"`
	Path     string          `json:"path"`
	Files    []scanner.Entry `json:"files"`
}

// ScanFolder walks a directory, registers it as a scanned folder and
// returns the media files found. Cached metadata rows for files that no
// longer exist under the folder are pruned.
func (h *Handlers) ScanFolder(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		writeJSONError(w, "path is required", http.StatusBadRequest)
		return
	}
	if strings.ContainsRune(req.Path, '\x00') {
		writeJSONError(w, "invalid path", http.StatusBadRequest)
		return
	}

	opts := scanner.DefaultOptions()
	if req.Recursive != nil {
		opts.Recursive = *req.Recursive
	}

	entries, err := scanner.Scan(r.Context(), req.Path, opts)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	absPath, err := filepath.Abs(req.Path)
	if err != nil {
		absPath = req.Path
	}

	folderID, err := h.db.UpsertFolder(r.Context(), absPath, filepath.Base(absPath), int64(len(entries)))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.pruneMissing(r, folderID)

	if entries == nil {
		entries = []scanner.Entry{}
	}
	writeJSON(w, ScanResponse{
		FolderID: folderID,
		Path:     absPath,
		Files:    entries,
	})
}

// pruneMissing deletes cached metadata rows under a folder whose files
// have disappeared from disk. Failures only log; a prune problem never
// fails the scan that triggered it.
func (h *Handlers) pruneMissing(r *http.Request, folderID int64) {
	records, err := h.db.ListMediaByFolder(r.Context(), folderID)
	if err != nil {
		logging.Warn("Failed to list cached metadata for folder %d: %v", folderID, err)
		return
	}
	for _, rec := range records {
		if _, err := os.Stat(rec.FilePath); os.IsNotExist(err) {
			if err := h.db.DeleteMediaByPath(r.Context(), rec.FilePath); err != nil {
				logging.Warn("Failed to prune metadata for %s: %v", rec.FilePath, err)
				continue
			}
			logging.Debug("Pruned metadata for missing file: %s", rec.FilePath)
		}
	}
}

// ListScannedFolders returns all registered folders, most recently
// scanned first.
func (h *Handlers) ListScannedFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.db.ListFolders(r.Context())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, folders)
}

// DeleteScannedFolder removes a registered folder. Metadata rows
// referencing it are removed by the cascade; detached rows are
// untouched.
func (h *Handlers) DeleteScannedFolder(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	folderID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSONError(w, "invalid folder id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteFolder(r.Context(), folderID); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "deleted")
}
