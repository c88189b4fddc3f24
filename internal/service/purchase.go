package service

import (
	"context"
	"fmt"
	"time"

	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
)

// Ticket quantity bounds per purchase.
const (
	MinTicketsPerPurchase int64 = 1
	MaxTicketsPerPurchase int64 = 50
)

// DefaultSettlementDelay stands in for the on-chain transaction the demo
// does not make.
const DefaultSettlementDelay = 800 * time.Millisecond

// ClampQuantity clamps a requested ticket quantity into the allowed
// range regardless of the requested delta.
func ClampQuantity(quantity int64) int64 {
	if quantity < MinTicketsPerPurchase {
		return MinTicketsPerPurchase
	}
	if quantity > MaxTicketsPerPurchase {
		return MaxTicketsPerPurchase
	}
	return quantity
}

// PurchaseService orchestrates the ticket purchase flow across the
// wallet and the catalog.
type PurchaseService struct {
	store           *storage.Store
	settlementDelay time.Duration
}

// NewPurchaseService creates a purchase service. A negative delay
// selects the default; pass 0 to disable the simulated settlement
// latency (tests).
func NewPurchaseService(store *storage.Store, settlementDelay time.Duration) *PurchaseService {
	if settlementDelay < 0 {
		settlementDelay = DefaultSettlementDelay
	}
	return &PurchaseService{store: store, settlementDelay: settlementDelay}
}

// Purchase buys quantity tickets for raffleID. The quantity is clamped
// to [1, 50], the cost is checked against the balance before anything
// is touched, and balance deduction, pool credit and entry recording
// commit as one unit. A purchase in flight when the buy dialog closes
// still commits; only process shutdown cancels the settlement wait.
func (s *PurchaseService) Purchase(ctx context.Context, raffleID string, quantity int64) (*storage.PurchaseResult, error) {
	quantity = ClampQuantity(quantity)

	raffle, err := s.store.RaffleByID(raffleID)
	if err != nil {
		return nil, err
	}
	if raffle == nil {
		return nil, storage.ErrNotFound
	}
	if raffle.Status != storage.RaffleStatusActive {
		return nil, storage.ErrRaffleFinalized
	}

	cost := raffle.TicketPrice * quantity

	wallet, err := s.store.Wallet()
	if err != nil {
		return nil, err
	}
	if wallet.Balance < cost {
		logger.Debug(wallet.Email, "purchase_rejected", fmt.Sprintf("raffle_id=%s cost=%d balance=%d", raffleID, cost, wallet.Balance))
		return nil, storage.ErrInsufficientFunds
	}

	// Simulated settlement latency; cannot fail, so no retry exists.
	if s.settlementDelay > 0 {
		select {
		case <-time.After(s.settlementDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	result, err := s.store.ApplyPurchase(ctx, raffleID, quantity, cost)
	if err != nil {
		return nil, err
	}

	logger.Debug(wallet.Email, "purchase_completed", fmt.Sprintf("raffle_id=%s tickets=%d cost=%d new_balance=%d pool=%d",
		raffleID, quantity, cost, result.NewBalance, result.Pool))
	return result, nil
}
