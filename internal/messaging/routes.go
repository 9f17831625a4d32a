package messaging

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRoutes mounts POST /api/definition and the /ws/definitions
// WebSocket endpoint, both answered by client.
func RegisterRoutes(r chi.Router, client Client, logger *zap.Logger) {
	r.Post("/api/definition", handleDefinition(client))
	r.Get("/ws/definitions", WSHandler(client, logger))
}

func handleDefinition(client Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, Response{Error: "invalid JSON body"})
			return
		}
		if req.Action == "" {
			req.Action = ActionGetDefinition
		}

		resp, err := client.Send(r.Context(), req)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, Response{ID: req.ID, Error: err.Error()})
			return
		}
		if resp.Error != "" {
			writeJSON(w, http.StatusBadRequest, resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
