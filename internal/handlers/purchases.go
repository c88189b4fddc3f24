package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"luckyyield/internal/auth"
	"luckyyield/internal/format"
)

// PurchaseRequest is the request body for buying tickets
type PurchaseRequest struct {
	RaffleID string `json:"raffle_id"`
	Quantity int64  `json:"quantity"`
}

// PurchaseResponse is the response after a committed purchase
type PurchaseResponse struct {
	NewBalance        int64         `json:"new_balance"`
	NewBalanceDisplay string        `json:"new_balance_display"`
	Pool              int64         `json:"pool"`
	PoolDisplay       string        `json:"pool_display"`
	Entry             EntryResponse `json:"entry"`
}

// HandlePurchases handles the POST /api/purchases endpoint
func (h *Handlers) HandlePurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, ok := auth.EmailFromContext(r.Context())
	if !ok {
		respondWithError(w, "Unauthorized: user not in context", http.StatusUnauthorized)
		return
	}

	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.RaffleID == "" {
		respondWithError(w, "raffle_id is required", http.StatusBadRequest)
		return
	}

	// A purchase whose settlement is in flight commits even if the
	// browser gives up on the request.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.purchases.Purchase(ctx, req.RaffleID, req.Quantity)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, PurchaseResponse{
		NewBalance:        result.NewBalance,
		NewBalanceDisplay: format.USDC(result.NewBalance),
		Pool:              result.Pool,
		PoolDisplay:       format.Pool(result.Pool),
		Entry:             entryResponse(result.Entry),
	})
}
