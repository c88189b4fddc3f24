package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"luckyyield/internal/auth"
	"luckyyield/internal/format"
	"luckyyield/internal/logger"
)

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email string `json:"email"`
}

// LoginResponse carries the session token and the wallet snapshot the
// dashboard needs right after login.
type LoginResponse struct {
	Token          string `json:"token"`
	Email          string `json:"email"`
	Balance        int64  `json:"balance"`
	BalanceDisplay string `json:"balance_display"`
}

// HandleLogin handles the POST /api/login endpoint
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Debug("", "login_invalid_body", "error="+err.Error())
		respondWithError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email, err := h.wallet.Login(req.Email)
	if err != nil {
		logger.Debug("", "login_rejected", "email="+req.Email)
		respondServiceError(w, err)
		return
	}

	wallet, err := h.wallet.Wallet()
	if err != nil {
		logger.Debug(email, "login_wallet_error", "error="+err.Error())
		respondWithError(w, "Failed to load wallet", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		Token:          auth.IssueToken(h.secret, email, time.Now()),
		Email:          email,
		Balance:        wallet.Balance,
		BalanceDisplay: format.USDC(wallet.Balance),
	})
}

// HandleLogout handles the POST /api/logout endpoint. The wallet's
// balance and entries stay persisted; only the identity is cleared.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondWithError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		respondWithError(w, "Unauthorized: user not in context", http.StatusUnauthorized)
		return
	}

	if err := h.wallet.Logout(); err != nil {
		logger.Debug(email, "logout_error", "error="+err.Error())
		respondWithError(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
