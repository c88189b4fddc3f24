package service

import (
	"fmt"

	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
	"luckyyield/internal/ui"
)

// DebugCreditAmount is the demo top-up granted by the debug panel
// (50.00 USDC in cents).
const DebugCreditAmount int64 = 5000

// AdminService backs the debug panel. It is wired up only when debug
// mode is enabled and is never part of the core services' contract.
type AdminService struct {
	store     *storage.Store
	modals    *ui.Coordinator
	announcer Announcer
}

// NewAdminService creates the debug-only administrative service.
func NewAdminService(store *storage.Store, modals *ui.Coordinator) *AdminService {
	return &AdminService{store: store, modals: modals}
}

// SetAnnouncer sets the optional finalization announcer.
func (s *AdminService) SetAnnouncer(a Announcer) {
	s.announcer = a
}

// ForceFinalize finalizes a raffle immediately with a coin-flip
// outcome. Unlike the normal flow, it fabricates a one-ticket pending
// entry first when the wallet holds none, so the result dialog always
// has something to show. Returns the drawn outcome.
func (s *AdminService) ForceFinalize(raffleID string) (storage.EntryOutcome, error) {
	raffle, err := s.store.RaffleByID(raffleID)
	if err != nil {
		return "", err
	}
	if raffle == nil {
		return "", storage.ErrNotFound
	}

	if err := s.store.FinalizeRaffle(raffleID); err != nil {
		return "", err
	}

	entry, err := s.store.EntryByRaffle(raffleID)
	if err != nil {
		return "", err
	}
	if entry == nil {
		if _, err := s.store.UpsertEntry(raffleID, 1); err != nil {
			return "", err
		}
	}

	outcome := drawOutcome()
	if err := s.store.FinalizeEntry(raffleID, outcome); err != nil {
		return "", err
	}
	s.modals.OpenResultModal(raffleID, string(outcome))

	logger.Debug("", "debug_force_finalize", fmt.Sprintf("raffle_id=%s outcome=%s", raffleID, outcome))

	if s.announcer != nil {
		s.announcer.AnnounceFinalized(raffle, outcome)
	}
	return outcome, nil
}

// CreditDemo adds the fixed demo top-up to the wallet and returns the
// new balance.
func (s *AdminService) CreditDemo() (int64, error) {
	balance, err := s.store.CreditBalance(DebugCreditAmount, storage.SourceDebugCredit, "Debug panel top-up")
	if err != nil {
		return 0, err
	}
	logger.Debug("", "debug_credit", fmt.Sprintf("amount=%d new_balance=%d", DebugCreditAmount, balance))
	return balance, nil
}
