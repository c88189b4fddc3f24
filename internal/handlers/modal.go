package handlers

import (
	"encoding/json"
	"net/http"

	"luckyyield/internal/auth"
	"luckyyield/internal/ui"
)

// ModalRequest is the request body for modal state changes. Actions
// are pure state replacement; no validation beyond the action name.
type ModalRequest struct {
	Action   string `json:"action"` // open_buy, close_buy, open_result, close_result
	RaffleID string `json:"raffle_id,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

// ModalResponse reports the currently open modal, if any.
type ModalResponse struct {
	Modal *ui.Modal `json:"modal"`
}

// HandleModal handles GET and POST for /api/ui/modal. The slot is
// transient process state; it never persists across restarts.
func (h *Handlers) HandleModal(w http.ResponseWriter, r *http.Request) {
	_, ok := auth.EmailFromContext(r.Context())
	if !ok {
		respondWithError(w, "Unauthorized: user not in context", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, ModalResponse{Modal: h.modals.Current()})
	case http.MethodPost:
		var req ModalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		switch req.Action {
		case "open_buy":
			h.modals.OpenBuyModal(req.RaffleID)
		case "close_buy":
			h.modals.CloseBuyModal()
		case "open_result":
			h.modals.OpenResultModal(req.RaffleID, req.Outcome)
		case "close_result":
			h.modals.CloseResultModal()
		default:
			respondWithError(w, "Unknown action", http.StatusBadRequest)
			return
		}
		respondJSON(w, http.StatusOK, ModalResponse{Modal: h.modals.Current()})
	default:
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
