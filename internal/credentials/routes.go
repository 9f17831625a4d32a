package credentials

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type settingsStatus struct {
	ModelKeySet  bool `json:"model_key_set"`
	SearchKeySet bool `json:"search_key_set"`
}

type settingsUpdate struct {
	ModelKey  string `json:"model_key"`
	SearchKey string `json:"search_key"`
}

// RegisterRoutes mounts the settings endpoints under /api/settings.
func RegisterRoutes(r chi.Router, store Store) {
	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", handleGet(store))
		r.Put("/", handlePut(store))
	})
}

func handleGet(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		k, err := store.Load(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, settingsStatus{
			ModelKeySet:  k.ModelKey != "",
			SearchKeySet: k.SearchKey != "",
		})
	}
}

func handlePut(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsUpdate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}

		err := store.Save(r.Context(), Keys{ModelKey: req.ModelKey, SearchKey: req.SearchKey})
		switch {
		case errors.Is(err, ErrIncomplete):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": MsgIncomplete})
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"status": MsgSaved})
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
