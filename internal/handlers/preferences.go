package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// PreferenceValue carries a preference value in request and response
// bodies.
type PreferenceValue struct {
	Value string `json:"value"`
}

// ListPreferences returns all stored user preferences.
func (h *Handlers) ListPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.db.ListPreferences(r.Context())
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, prefs)
}

// GetPreference returns a single preference by key.
func (h *Handlers) GetPreference(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	value, found, err := h.db.GetPreference(r.Context(), key)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		writeJSONError(w, "preference not found", http.StatusNotFound)
		return
	}
	writeJSON(w, PreferenceValue{Value: value})
}

// SetPreference stores a preference value, replacing any existing one.
func (h *Handlers) SetPreference(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var body PreferenceValue
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.SetPreference(r.Context(), key, body.Value); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "saved")
}

// DeletePreference removes a preference by key.
func (h *Handlers) DeletePreference(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	if err := h.db.DeletePreference(r.Context(), key); err != nil {
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONStatus(w, "deleted")
}
