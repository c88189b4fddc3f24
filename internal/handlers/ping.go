package handlers

import (
	"net/http"
)

// PingResponse is the response for the ping endpoint
type PingResponse struct {
	Status string `json:"status"`
}

// HandlePing handles the /api/ping endpoint
func (h *Handlers) HandlePing(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	respondJSON(w, http.StatusOK, PingResponse{Status: "ok"})
}
