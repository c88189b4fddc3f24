// Package handlers exposes the JSON API consumed by the dashboard
// front-end. Handlers are thin: validation of the request shape, calls
// into the services, and mapping of sentinel errors to status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"luckyyield/internal/service"
	"luckyyield/internal/storage"
	"luckyyield/internal/ui"
)

// Handlers carries the services the API routes dispatch into. The
// admin service is nil unless debug mode is enabled.
type Handlers struct {
	wallet    *service.WalletService
	catalog   *service.CatalogService
	purchases *service.PurchaseService
	modals    *ui.Coordinator
	admin     *service.AdminService
	secret    string
}

// New creates the handler set. secret signs session tokens.
func New(wallet *service.WalletService, catalog *service.CatalogService, purchases *service.PurchaseService, modals *ui.Coordinator, secret string) *Handlers {
	return &Handlers{
		wallet:    wallet,
		catalog:   catalog,
		purchases: purchases,
		modals:    modals,
		secret:    secret,
	}
}

// EnableDebug attaches the debug-only administrative service.
func (h *Handlers) EnableDebug(admin *service.AdminService) {
	h.admin = admin
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Message string `json:"message"`
}

// respondJSON writes v as a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Message: message})
}

// respondServiceError maps sentinel errors to HTTP status codes.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		respondWithError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		respondWithError(w, "not found", http.StatusNotFound)
	case errors.Is(err, storage.ErrInsufficientFunds):
		respondWithError(w, "insufficient balance", http.StatusPaymentRequired)
	case errors.Is(err, storage.ErrRaffleFinalized):
		respondWithError(w, "raffle already finalized", http.StatusForbidden)
	default:
		respondWithError(w, "internal error", http.StatusInternalServerError)
	}
}
