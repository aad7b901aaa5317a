package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"medialib/internal/logging"
	"medialib/internal/mediatypes"
	"medialib/internal/thumbnail"
)

// GetThumbnail serves the cached thumbnail for a file, generating it
// first if necessary. The optional video query parameter forces video
// frame extraction; otherwise the file extension decides.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePathParam(w, r)
	if !ok {
		return
	}

	isVideo := mediatypes.ClassifyPath(path) == mediatypes.ClassVideo
	if v := r.URL.Query().Get("video"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeJSONError(w, "invalid video parameter", http.StatusBadRequest)
			return
		}
		isVideo = parsed
	}

	thumbPath, err := h.thumbGen.Generate(r.Context(), path, isVideo)
	if err != nil {
		logging.Debug("Thumbnail generation failed for %s: %v", path, err)
		switch {
		case errors.Is(err, thumbnail.ErrNoVideoStream), errors.Is(err, thumbnail.ErrNoDecodableFrame):
			writeJSONError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			writeJSONError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, thumbPath)
}

// ThumbnailExistsResponse reports cache presence for one file.
type ThumbnailExistsResponse struct {
	Exists        bool   `json:"exists"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
}

// ThumbnailExists reports whether a cached thumbnail exists for a file
// without generating one.
func (h *Handlers) ThumbnailExists(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePathParam(w, r)
	if !ok {
		return
	}

	resp := ThumbnailExistsResponse{Exists: h.thumbGen.Exists(path)}
	if resp.Exists {
		resp.ThumbnailPath = h.thumbGen.ThumbnailPath(path)
	}
	writeJSON(w, resp)
}

// BatchThumbnails generates thumbnails for a list of files, returning a
// per-file outcome for each. Failures are reported inline and never
// fail the request as a whole. With dataUrl=true each successful result
// also carries the thumbnail as a base64 JPEG data URL.
func (h *Handlers) BatchThumbnails(w http.ResponseWriter, r *http.Request) {
	var requests []thumbnail.Request
	if err := json.NewDecoder(r.Body).Decode(&requests); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(requests) == 0 {
		writeJSON(w, []thumbnail.Response{})
		return
	}

	responses := h.thumbGen.GenerateBatch(r.Context(), requests)

	if inline, _ := strconv.ParseBool(r.URL.Query().Get("dataUrl")); inline {
		for i := range responses {
			if !responses[i].Success {
				continue
			}
			url, err := thumbnail.DataURL(responses[i].ThumbnailPath)
			if err != nil {
				logging.Warn("Failed to inline thumbnail for %s: %v", responses[i].Path, err)
				continue
			}
			responses[i].DataURL = url
		}
	}

	writeJSON(w, responses)
}

// ClearThumbnailCache removes all cached thumbnails.
func (h *Handlers) ClearThumbnailCache(w http.ResponseWriter, _ *http.Request) {
	if err := h.thumbGen.ClearCache(); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "cleared")
}

// ThumbnailCacheSize reports the total on-disk size of the thumbnail
// cache in bytes.
func (h *Handlers) ThumbnailCacheSize(w http.ResponseWriter, _ *http.Request) {
	size, err := h.thumbGen.CacheSize()
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]int64{"sizeBytes": size})
}
