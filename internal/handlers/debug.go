package handlers

import (
	"encoding/json"
	"net/http"

	"luckyyield/internal/auth"
	"luckyyield/internal/format"
)

// Debug endpoints back the ?debug=1 panel in the dashboard. They are
// registered only when debug mode is enabled at startup; h.admin stays
// nil otherwise and the routes simply do not exist.

// DebugFinalizeRequest is the request body for force-finalizing a raffle
type DebugFinalizeRequest struct {
	RaffleID string `json:"raffle_id"`
}

// DebugFinalizeResponse reports the drawn outcome
type DebugFinalizeResponse struct {
	RaffleID string `json:"raffle_id"`
	Outcome  string `json:"outcome"`
}

// HandleDebugFinalize handles POST /api/debug/finalize
func (h *Handlers) HandleDebugFinalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.admin == nil {
		respondWithError(w, "Debug mode disabled", http.StatusForbidden)
		return
	}
	if _, ok := auth.EmailFromContext(r.Context()); !ok {
		respondWithError(w, "Unauthorized: user not in context", http.StatusUnauthorized)
		return
	}

	var req DebugFinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RaffleID == "" {
		respondWithError(w, "raffle_id is required", http.StatusBadRequest)
		return
	}

	outcome, err := h.admin.ForceFinalize(req.RaffleID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DebugFinalizeResponse{RaffleID: req.RaffleID, Outcome: string(outcome)})
}

// DebugCreditResponse reports the balance after a demo top-up
type DebugCreditResponse struct {
	NewBalance        int64  `json:"new_balance"`
	NewBalanceDisplay string `json:"new_balance_display"`
}

// HandleDebugCredit handles POST /api/debug/credit
func (h *Handlers) HandleDebugCredit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.admin == nil {
		respondWithError(w, "Debug mode disabled", http.StatusForbidden)
		return
	}
	if _, ok := auth.EmailFromContext(r.Context()); !ok {
		respondWithError(w, "Unauthorized: user not in context", http.StatusUnauthorized)
		return
	}

	balance, err := h.admin.CreditDemo()
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, DebugCreditResponse{
		NewBalance:        balance,
		NewBalanceDisplay: format.USDC(balance),
	})
}
