package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"luckyyield/internal/auth"
	"luckyyield/internal/service"
	"luckyyield/internal/storage"
	"luckyyield/internal/ui"
)

func setupHandlers(t *testing.T) (*Handlers, *storage.Store, *ui.Coordinator) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	modals := ui.NewCoordinator()
	h := New(
		service.NewWalletService(store),
		service.NewCatalogService(store),
		service.NewPurchaseService(store, 0),
		modals,
		"test-secret",
	)
	return h, store, modals
}

// authedRequest builds a request whose context already carries the
// email, as the middleware would have put it there.
func authedRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	ctx := context.WithValue(req.Context(), auth.EmailKey, "demo@example.com")
	return req.WithContext(ctx)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func TestHandlePing(t *testing.T) {
	h, _, _ := setupHandlers(t)

	rec := httptest.NewRecorder()
	h.HandlePing(rec, httptest.NewRequest("GET", "/api/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if resp := decode[PingResponse](t, rec); resp.Status != "ok" {
		t.Errorf("Expected status ok, got %s", resp.Status)
	}

	rec = httptest.NewRecorder()
	h.HandlePing(rec, httptest.NewRequest("POST", "/api/ping", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for POST, got %d", rec.Code)
	}
}

func TestHandleLogin(t *testing.T) {
	h, store, _ := setupHandlers(t)

	body := bytes.NewBufferString(`{"email": "  demo@example.com  "}`)
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest("POST", "/api/login", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[LoginResponse](t, rec)
	if resp.Email != "demo@example.com" {
		t.Errorf("Expected trimmed email, got %q", resp.Email)
	}
	if resp.Balance != storage.WelcomeBalance {
		t.Errorf("Expected welcome balance %d, got %d", storage.WelcomeBalance, resp.Balance)
	}
	if resp.BalanceDisplay != "100" {
		t.Errorf("Expected balance display 100, got %q", resp.BalanceDisplay)
	}
	if resp.Token == "" {
		t.Error("Expected a session token")
	}

	wallet, err := store.Wallet()
	if err != nil {
		t.Fatalf("Failed to load wallet: %v", err)
	}
	if wallet.Email != "demo@example.com" {
		t.Errorf("Expected email persisted, got %q", wallet.Email)
	}
}

func TestHandleLoginRejectsBadEmail(t *testing.T) {
	h, _, _ := setupHandlers(t)

	cases := []string{`{"email": ""}`, `{"email": "   "}`, `{"email": "no-at-sign"}`, `not json`}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, httptest.NewRequest("POST", "/api/login", bytes.NewBufferString(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleLogout(t *testing.T) {
	h, store, _ := setupHandlers(t)
	if err := store.SetEmail("demo@example.com"); err != nil {
		t.Fatalf("Failed to set email: %v", err)
	}

	rec := httptest.NewRecorder()
	h.HandleLogout(rec, authedRequest("POST", "/api/logout", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	wallet, err := store.Wallet()
	if err != nil {
		t.Fatalf("Failed to load wallet: %v", err)
	}
	if wallet.Email != "" {
		t.Errorf("Expected email cleared, got %q", wallet.Email)
	}
	if wallet.Balance != storage.WelcomeBalance {
		t.Errorf("Expected balance retained across logout, got %d", wallet.Balance)
	}
}

func TestHandleMe(t *testing.T) {
	h, store, _ := setupHandlers(t)
	if err := store.SetEmail("demo@example.com"); err != nil {
		t.Fatalf("Failed to set email: %v", err)
	}
	if _, err := store.UpsertEntry("raffle-001", 3); err != nil {
		t.Fatalf("Failed to add entry: %v", err)
	}

	rec := httptest.NewRecorder()
	h.HandleMe(rec, authedRequest("GET", "/api/me", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	resp := decode[MeResponse](t, rec)
	if resp.Email != "demo@example.com" {
		t.Errorf("Expected email in response, got %q", resp.Email)
	}
	if len(resp.Entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(resp.Entries))
	}
	if resp.Entries[0].RaffleID != "raffle-001" || resp.Entries[0].TicketsBought != 3 {
		t.Errorf("Unexpected entry: %+v", resp.Entries[0])
	}
	if resp.Entries[0].Outcome != "pending" {
		t.Errorf("Expected pending outcome, got %q", resp.Entries[0].Outcome)
	}

	// Unauthenticated request has no email in context.
	rec = httptest.NewRecorder()
	h.HandleMe(rec, httptest.NewRequest("GET", "/api/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without context email, got %d", rec.Code)
	}
}

func TestHandleTransactions(t *testing.T) {
	h, _, _ := setupHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleTransactions(rec, authedRequest("GET", "/api/me/transactions", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	resp := decode[[]TransactionResponse](t, rec)
	if len(resp) != 1 {
		t.Fatalf("Expected 1 transaction (welcome bonus), got %d", len(resp))
	}
	if resp[0].SourceType != storage.SourceWelcomeBonus || resp[0].Amount != storage.WelcomeBalance {
		t.Errorf("Unexpected transaction: %+v", resp[0])
	}
}

func TestHandleRaffles(t *testing.T) {
	h, store, _ := setupHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleRaffles(rec, httptest.NewRequest("GET", "/api/raffles", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	resp := decode[[]RaffleResponse](t, rec)
	if len(resp) != 4 {
		t.Fatalf("Expected 4 seeded raffles, got %d", len(resp))
	}

	// Active raffles sort soonest-ending first.
	for i := 1; i < len(resp); i++ {
		if resp[i-1].Status == "active" && resp[i].Status == "active" && resp[i-1].EndsAt > resp[i].EndsAt {
			t.Errorf("Expected raffles sorted by end time, got %s before %s", resp[i-1].EndsAt, resp[i].EndsAt)
		}
	}

	var weekly *RaffleResponse
	for i := range resp {
		if resp[i].ID == "raffle-001" {
			weekly = &resp[i]
		}
	}
	if weekly == nil {
		t.Fatal("Expected raffle-001 in the list")
	}
	if weekly.TicketPrice != 500 || weekly.TicketPriceDisplay != "5" {
		t.Errorf("Unexpected ticket price rendering: %+v", weekly)
	}
	if weekly.PoolDisplay != "12.4K" {
		t.Errorf("Expected pool display 12.4K, got %q", weekly.PoolDisplay)
	}

	// Finalized raffles sort after active ones.
	if err := store.FinalizeRaffle(resp[0].ID); err != nil {
		t.Fatalf("Failed to finalize: %v", err)
	}
	rec = httptest.NewRecorder()
	h.HandleRaffles(rec, httptest.NewRequest("GET", "/api/raffles", nil))
	resp = decode[[]RaffleResponse](t, rec)
	if resp[len(resp)-1].Status != "finalized" {
		t.Errorf("Expected finalized raffle last, got %+v", resp[len(resp)-1])
	}
}

func TestHandlePurchases(t *testing.T) {
	h, store, _ := setupHandlers(t)

	rec := httptest.NewRecorder()
	h.HandlePurchases(rec, authedRequest("POST", "/api/purchases", PurchaseRequest{RaffleID: "raffle-002", Quantity: 3}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[PurchaseResponse](t, rec)
	if resp.NewBalance != 4000 {
		t.Errorf("Expected new balance 4000, got %d", resp.NewBalance)
	}
	if resp.Entry.RaffleID != "raffle-002" || resp.Entry.TicketsBought != 3 {
		t.Errorf("Unexpected entry: %+v", resp.Entry)
	}

	wallet, err := store.Wallet()
	if err != nil {
		t.Fatalf("Failed to load wallet: %v", err)
	}
	if wallet.Balance != 4000 {
		t.Errorf("Expected persisted balance 4000, got %d", wallet.Balance)
	}
}

func TestHandlePurchasesErrors(t *testing.T) {
	h, store, _ := setupHandlers(t)

	// Unknown raffle.
	rec := httptest.NewRecorder()
	h.HandlePurchases(rec, authedRequest("POST", "/api/purchases", PurchaseRequest{RaffleID: "raffle-999", Quantity: 1}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown raffle, got %d", rec.Code)
	}

	// Missing raffle id.
	rec = httptest.NewRecorder()
	h.HandlePurchases(rec, authedRequest("POST", "/api/purchases", PurchaseRequest{Quantity: 1}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing raffle_id, got %d", rec.Code)
	}

	// Insufficient funds.
	if _, err := store.DeductBalance(storage.WelcomeBalance - 100); err != nil {
		t.Fatalf("Failed to drain balance: %v", err)
	}
	rec = httptest.NewRecorder()
	h.HandlePurchases(rec, authedRequest("POST", "/api/purchases", PurchaseRequest{RaffleID: "raffle-002", Quantity: 1}))
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("Expected 402 when unaffordable, got %d", rec.Code)
	}

	// Finalized raffle.
	if err := store.FinalizeRaffle("raffle-003"); err != nil {
		t.Fatalf("Failed to finalize: %v", err)
	}
	rec = httptest.NewRecorder()
	h.HandlePurchases(rec, authedRequest("POST", "/api/purchases", PurchaseRequest{RaffleID: "raffle-003", Quantity: 1}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for finalized raffle, got %d", rec.Code)
	}

	// No email in context.
	rec = httptest.NewRecorder()
	h.HandlePurchases(rec, httptest.NewRequest("POST", "/api/purchases", bytes.NewBufferString(`{"raffle_id":"raffle-001","quantity":1}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without context email, got %d", rec.Code)
	}
}

func TestHandleModal(t *testing.T) {
	h, _, modals := setupHandlers(t)

	// Empty slot initially.
	rec := httptest.NewRecorder()
	h.HandleModal(rec, authedRequest("GET", "/api/ui/modal", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if resp := decode[ModalResponse](t, rec); resp.Modal != nil {
		t.Errorf("Expected no modal, got %+v", resp.Modal)
	}

	// Open the buy dialog.
	rec = httptest.NewRecorder()
	h.HandleModal(rec, authedRequest("POST", "/api/ui/modal", ModalRequest{Action: "open_buy", RaffleID: "raffle-001"}))
	resp := decode[ModalResponse](t, rec)
	if resp.Modal == nil || resp.Modal.Kind != ui.ModalBuy || resp.Modal.RaffleID != "raffle-001" {
		t.Fatalf("Expected buy modal, got %+v", resp.Modal)
	}

	// A result modal replaces it.
	rec = httptest.NewRecorder()
	h.HandleModal(rec, authedRequest("POST", "/api/ui/modal", ModalRequest{Action: "open_result", RaffleID: "raffle-002", Outcome: "won"}))
	resp = decode[ModalResponse](t, rec)
	if resp.Modal == nil || resp.Modal.Kind != ui.ModalResult || resp.Modal.Outcome != "won" {
		t.Fatalf("Expected result modal, got %+v", resp.Modal)
	}

	// close_buy does not touch the result modal.
	rec = httptest.NewRecorder()
	h.HandleModal(rec, authedRequest("POST", "/api/ui/modal", ModalRequest{Action: "close_buy"}))
	if resp = decode[ModalResponse](t, rec); resp.Modal == nil {
		t.Error("close_buy should not close the result modal")
	}

	rec = httptest.NewRecorder()
	h.HandleModal(rec, authedRequest("POST", "/api/ui/modal", ModalRequest{Action: "close_result"}))
	if resp = decode[ModalResponse](t, rec); resp.Modal != nil {
		t.Errorf("Expected modal closed, got %+v", resp.Modal)
	}

	// Unknown actions are rejected and leave the slot alone.
	modals.OpenBuyModal("raffle-001")
	rec = httptest.NewRecorder()
	h.HandleModal(rec, authedRequest("POST", "/api/ui/modal", ModalRequest{Action: "toggle"}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown action, got %d", rec.Code)
	}
	if modals.Current() == nil {
		t.Error("Unknown action should not change the modal slot")
	}
}

func TestDebugRoutesDisabled(t *testing.T) {
	h, _, _ := setupHandlers(t)

	rec := httptest.NewRecorder()
	h.HandleDebugFinalize(rec, authedRequest("POST", "/api/debug/finalize", DebugFinalizeRequest{RaffleID: "raffle-001"}))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 with debug disabled, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.HandleDebugCredit(rec, authedRequest("POST", "/api/debug/credit", nil))
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 with debug disabled, got %d", rec.Code)
	}
}

func TestDebugFinalize(t *testing.T) {
	h, store, modals := setupHandlers(t)
	h.EnableDebug(service.NewAdminService(store, modals))

	rec := httptest.NewRecorder()
	h.HandleDebugFinalize(rec, authedRequest("POST", "/api/debug/finalize", DebugFinalizeRequest{RaffleID: "raffle-001"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[DebugFinalizeResponse](t, rec)
	if resp.Outcome != "won" && resp.Outcome != "lost" {
		t.Errorf("Expected a drawn outcome, got %q", resp.Outcome)
	}

	raffle, err := store.RaffleByID("raffle-001")
	if err != nil {
		t.Fatalf("Failed to load raffle: %v", err)
	}
	if raffle.Status != storage.RaffleStatusFinalized {
		t.Errorf("Expected raffle finalized, got %s", raffle.Status)
	}

	// The fabricated entry keeps its first outcome.
	entry, err := store.EntryByRaffle("raffle-001")
	if err != nil {
		t.Fatalf("Failed to load entry: %v", err)
	}
	if entry == nil || string(entry.Outcome) != resp.Outcome {
		t.Errorf("Expected entry outcome %q, got %+v", resp.Outcome, entry)
	}

	// Unknown raffles are a 404.
	rec = httptest.NewRecorder()
	h.HandleDebugFinalize(rec, authedRequest("POST", "/api/debug/finalize", DebugFinalizeRequest{RaffleID: "raffle-999"}))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown raffle, got %d", rec.Code)
	}
}

func TestDebugCredit(t *testing.T) {
	h, store, modals := setupHandlers(t)
	h.EnableDebug(service.NewAdminService(store, modals))

	rec := httptest.NewRecorder()
	h.HandleDebugCredit(rec, authedRequest("POST", "/api/debug/credit", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	resp := decode[DebugCreditResponse](t, rec)
	want := storage.WelcomeBalance + service.DebugCreditAmount
	if resp.NewBalance != want {
		t.Errorf("Expected balance %d, got %d", want, resp.NewBalance)
	}
	if resp.NewBalanceDisplay != "150" {
		t.Errorf("Expected display 150, got %q", resp.NewBalanceDisplay)
	}

	wallet, err := store.Wallet()
	if err != nil {
		t.Fatalf("Failed to load wallet: %v", err)
	}
	if wallet.Balance != want {
		t.Errorf("Expected persisted balance %d, got %d", want, wallet.Balance)
	}
}
