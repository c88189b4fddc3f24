package storage

import (
	"time"
)

// Wallet is the single demo wallet stored per database file.
// Email is empty when nobody is logged in; balance and entries
// survive logout.
type Wallet struct {
	Email     string    `json:"email"`
	Balance   int64     `json:"balance"` // in cents (10000 = 100.00 USDC)
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction represents a balance change
type Transaction struct {
	ID          int64     `json:"id"`
	Amount      int64     `json:"amount"`      // can be negative
	SourceType  string    `json:"source_type"` // 'WELCOME_BONUS', 'TICKET_PURCHASE', 'DEBUG_CREDIT'
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Transaction source types.
const (
	SourceWelcomeBonus   = "WELCOME_BONUS"
	SourceTicketPurchase = "TICKET_PURCHASE"
	SourceDebugCredit    = "DEBUG_CREDIT"
)

// RaffleStatus represents the status of a raffle
type RaffleStatus string

const (
	RaffleStatusActive    RaffleStatus = "active"
	RaffleStatusFinalized RaffleStatus = "finalized"
)

// Raffle represents one no-loss yield raffle
type Raffle struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Status        RaffleStatus `json:"status"`
	EndsAt        time.Time    `json:"ends_at"`
	TicketPrice   int64        `json:"ticket_price"` // in cents
	Pool          int64        `json:"pool"`         // in cents
	PayoutInfo    string       `json:"payout_info"`
	Description   string       `json:"description"`
	YieldProtocol string       `json:"yield_protocol"` // display label, e.g. "Aave v3"
}

// EntryStatus represents the status of a user entry
type EntryStatus string

const (
	EntryStatusActive    EntryStatus = "active"
	EntryStatusFinalized EntryStatus = "finalized"
)

// EntryOutcome represents the result of a user entry
type EntryOutcome string

const (
	OutcomePending EntryOutcome = "pending"
	OutcomeWon     EntryOutcome = "won"
	OutcomeLost    EntryOutcome = "lost"
)

// UserEntry represents the wallet's accumulated ticket purchases
// into one raffle. At most one entry exists per raffle; repeat
// purchases increment TicketsBought.
type UserEntry struct {
	ID            int64        `json:"id"`
	RaffleID      string       `json:"raffle_id"`
	TicketsBought int64        `json:"tickets_bought"`
	Status        EntryStatus  `json:"status"`
	Outcome       EntryOutcome `json:"outcome"`
	PurchasedAt   time.Time    `json:"purchased_at"`
}

// WelcomeBalance is the demo balance granted when the wallet row is
// first created (100.00 USDC in cents).
const WelcomeBalance int64 = 10000

// BootstrapRaffles returns the fixed mock catalog used to seed an
// empty database. End timestamps are relative to now so the demo
// always starts with live countdowns.
func BootstrapRaffles(now time.Time) []*Raffle {
	return []*Raffle{
		{
			ID:            "raffle-001",
			Title:         "Weekly Yield Raffle",
			Status:        RaffleStatusActive,
			EndsAt:        now.Add(7*24*time.Hour + 3*time.Hour + 12*time.Minute),
			TicketPrice:   500,
			Pool:          1245000,
			PayoutInfo:    "Winner takes 80% of yield. Remaining 20% re-invested.",
			Description:   "Entry funds deposited into Aave v3 for yield. Chainlink VRF selects winner.",
			YieldProtocol: "Aave v3",
		},
		{
			ID:            "raffle-002",
			Title:         "Mega Monthly Draw",
			Status:        RaffleStatusActive,
			EndsAt:        now.Add(28 * 24 * time.Hour),
			TicketPrice:   2000,
			Pool:          8732000,
			PayoutInfo:    "Winner receives full yield. No-loss principal returned to all.",
			Description:   "Larger pool, higher stakes. Chainlink Automation triggers finalization.",
			YieldProtocol: "Compound v3",
		},
		{
			ID:            "raffle-003",
			Title:         "Flash Friday Raffle",
			Status:        RaffleStatusFinalized,
			EndsAt:        now.Add(-2 * 24 * time.Hour),
			TicketPrice:   200,
			Pool:          320000,
			PayoutInfo:    "Quick 48h raffle, winner gets yield.",
			Description:   "Short raffle finalized via Chainlink Automation.",
			YieldProtocol: "Aave v3",
		},
		{
			ID:            "raffle-004",
			Title:         "Crypto Winter Survivor",
			Status:        RaffleStatusFinalized,
			EndsAt:        now.Add(-10 * 24 * time.Hour),
			TicketPrice:   1000,
			Pool:          4500000,
			PayoutInfo:    "Top 3 winners split yield proportionally.",
			Description:   "Multi-winner raffle with Chainlink Price Feeds.",
			YieldProtocol: "Yearn Finance",
		},
	}
}
