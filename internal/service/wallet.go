package service

import (
	"errors"
	"fmt"
	"strings"

	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
)

// ErrValidation is returned for rejected caller input, such as a
// malformed login email. Match with errors.Is.
var ErrValidation = errors.New("validation failed")

// WalletService is the authentication gate and the wallet's financial
// and participation ledger.
type WalletService struct {
	store *storage.Store
}

// NewWalletService creates a new wallet service backed by store.
func NewWalletService(store *storage.Store) *WalletService {
	return &WalletService{store: store}
}

// Login sets the session identity. Any syntactically plausible email is
// accepted: non-empty after trimming and containing '@'. There is no
// backend to check against.
func (s *WalletService) Login(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if err := s.store.SetEmail(email); err != nil {
		return "", err
	}
	logger.Debug(email, "login", "")
	return email, nil
}

// Logout clears the identity. Balance and entries stay persisted and
// greet the next login.
func (s *WalletService) Logout() error {
	w, err := s.store.Wallet()
	if err != nil {
		return err
	}
	if err := s.store.SetEmail(""); err != nil {
		return err
	}
	logger.Debug(w.Email, "logout", "")
	return nil
}

// Wallet returns the current wallet state.
func (s *WalletService) Wallet() (*storage.Wallet, error) {
	return s.store.Wallet()
}

// DeductBalance subtracts amount from the balance, clamped at zero.
// Callers pre-check affordability; this never reports insufficient funds.
func (s *WalletService) DeductBalance(amount int64) (int64, error) {
	return s.store.DeductBalance(amount)
}

// Credit adds amount to the balance with a ledger row.
func (s *WalletService) Credit(amount int64, sourceType, description string) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("%w: credit amount must be non-negative", ErrValidation)
	}
	return s.store.CreditBalance(amount, sourceType, description)
}

// RecordEntry books tickets against a raffle: the first call creates a
// pending entry, later calls accumulate the ticket count. Not an
// idempotent upsert, by purchase semantics.
func (s *WalletService) RecordEntry(raffleID string, tickets int64) (*storage.UserEntry, error) {
	if tickets <= 0 {
		return nil, fmt.Errorf("%w: ticket count must be positive", ErrValidation)
	}
	return s.store.UpsertEntry(raffleID, tickets)
}

// FinalizeEntry marks the entry for raffleID finalized with the given
// outcome. A missing entry is a no-op so that finalization never
// fabricates state.
func (s *WalletService) FinalizeEntry(raffleID string, outcome storage.EntryOutcome) error {
	if outcome != storage.OutcomeWon && outcome != storage.OutcomeLost {
		return fmt.Errorf("%w: outcome must be won or lost", ErrValidation)
	}
	return s.store.FinalizeEntry(raffleID, outcome)
}

// Entries returns all of the wallet's entries.
func (s *WalletService) Entries() ([]*storage.UserEntry, error) {
	return s.store.Entries()
}

// Transactions returns the most recent ledger rows.
func (s *WalletService) Transactions(limit int) ([]*storage.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.Transactions(limit)
}
