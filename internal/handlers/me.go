package handlers

import (
	"fmt"
	"net/http"
	"time"

	"luckyyield/internal/auth"
	"luckyyield/internal/format"
	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
)

// EntryResponse is one wallet entry as rendered by the API.
type EntryResponse struct {
	RaffleID      string `json:"raffle_id"`
	TicketsBought int64  `json:"tickets_bought"`
	Status        string `json:"status"`
	Outcome       string `json:"outcome"`
	PurchasedAt   string `json:"purchased_at"`
}

// MeResponse is the response for the /api/me endpoint
type MeResponse struct {
	Email          string          `json:"email"`
	Balance        int64           `json:"balance"`
	BalanceDisplay string          `json:"balance_display"`
	Entries        []EntryResponse `json:"entries"`
}

// HandleMe handles the GET /api/me endpoint
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		respondWithError(w, "Unauthorized: user not in context", http.StatusUnauthorized)
		return
	}

	wallet, err := h.wallet.Wallet()
	if err != nil {
		logger.Debug(email, "me_error", "error="+err.Error())
		respondWithError(w, "Failed to load wallet", http.StatusInternalServerError)
		return
	}

	entries, err := h.wallet.Entries()
	if err != nil {
		logger.Debug(email, "me_entries_error", "error="+err.Error())
		respondWithError(w, "Failed to load entries", http.StatusInternalServerError)
		return
	}

	resp := MeResponse{
		Email:          wallet.Email,
		Balance:        wallet.Balance,
		BalanceDisplay: format.USDC(wallet.Balance),
		Entries:        make([]EntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, entryResponse(e))
	}

	logger.Debug(email, "me_success", fmt.Sprintf("balance=%d entries=%d", wallet.Balance, len(entries)))
	respondJSON(w, http.StatusOK, resp)
}

// TransactionResponse is one ledger row as rendered by the API.
type TransactionResponse struct {
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	SourceType    string `json:"source_type"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
}

// HandleTransactions handles the GET /api/me/transactions endpoint
func (h *Handlers) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		respondWithError(w, "Unauthorized: user not in context", http.StatusUnauthorized)
		return
	}

	txns, err := h.wallet.Transactions(50)
	if err != nil {
		logger.Debug(email, "transactions_error", "error="+err.Error())
		respondWithError(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}

	resp := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, TransactionResponse{
			Amount:        t.Amount,
			AmountDisplay: format.USDC(t.Amount),
			SourceType:    t.SourceType,
			Description:   t.Description,
			CreatedAt:     t.CreatedAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

func entryResponse(e *storage.UserEntry) EntryResponse {
	return EntryResponse{
		RaffleID:      e.RaffleID,
		TicketsBought: e.TicketsBought,
		Status:        string(e.Status),
		Outcome:       string(e.Outcome),
		PurchasedAt:   e.PurchasedAt.Format(time.RFC3339),
	}
}
