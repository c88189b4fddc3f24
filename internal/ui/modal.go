// Package ui holds the transient overlay state of the demo front-end.
// At most one modal is open at a time, by construction of a single
// optional slot. Nothing here is persisted; a reload starts clean.
package ui

import "sync"

// ModalKind identifies which overlay is open.
type ModalKind string

const (
	ModalBuy    ModalKind = "buy"
	ModalResult ModalKind = "result"
)

// Modal describes the currently open overlay.
type Modal struct {
	Kind     ModalKind `json:"kind"`
	RaffleID string    `json:"raffle_id"`
	Outcome  string    `json:"outcome,omitempty"` // result modal only: "won" or "lost"
}

// Coordinator owns the single modal slot.
type Coordinator struct {
	mu      sync.Mutex
	current *Modal
}

// NewCoordinator creates a coordinator with no modal open.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// OpenBuyModal opens the buy dialog for a raffle, replacing whatever
// overlay was open.
func (c *Coordinator) OpenBuyModal(raffleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &Modal{Kind: ModalBuy, RaffleID: raffleID}
}

// CloseBuyModal closes the buy dialog if it is the open overlay.
func (c *Coordinator) CloseBuyModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Kind == ModalBuy {
		c.current = nil
	}
}

// OpenResultModal opens the result dialog showing a raffle outcome,
// replacing whatever overlay was open.
func (c *Coordinator) OpenResultModal(raffleID, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = &Modal{Kind: ModalResult, RaffleID: raffleID, Outcome: outcome}
}

// CloseResultModal closes the result dialog if it is the open overlay.
func (c *Coordinator) CloseResultModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Kind == ModalResult {
		c.current = nil
	}
}

// Current returns a copy of the open modal, or nil when none is open.
func (c *Coordinator) Current() *Modal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	m := *c.current
	return &m
}
