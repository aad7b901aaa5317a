package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"medialib/internal/logging"
	"medialib/internal/mediainfo"
)

// GetMediaInfo returns metadata for a single file, extracting it when
// no fresh cached record exists.
func (h *Handlers) GetMediaInfo(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePathParam(w, r)
	if !ok {
		return
	}

	record, err := h.metaCache.GetOrExtract(r.Context(), path)
	if err != nil {
		logging.Debug("Metadata extraction failed for %s: %v", path, err)
		switch {
		case errors.Is(err, mediainfo.ErrInvalidPath):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, mediainfo.ErrFileOpen):
			writeJSONError(w, err.Error(), http.StatusNotFound)
		default:
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		}
		return
	}

	writeJSON(w, record)
}

// ListMedia returns cached metadata records, optionally restricted to a
// scanned folder via the folderId query parameter.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	if idStr := r.URL.Query().Get("folderId"); idStr != "" {
		folderID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			writeJSONError(w, "invalid folderId", http.StatusBadRequest)
			return
		}
		records, err := h.db.ListMediaByFolder(r.Context(), folderID)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, records)
		return
	}

	records, err := h.db.ListAllMedia(r.Context())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}
