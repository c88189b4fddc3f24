package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
	"luckyyield/internal/ui"
)

// DefaultWorkerInterval is how often the worker scans for expired raffles.
const DefaultWorkerInterval = time.Minute

// Announcer publishes raffle finalizations to an external channel.
// Implemented by the notify package; optional.
type Announcer interface {
	AnnounceFinalized(raffle *storage.Raffle, outcome storage.EntryOutcome)
}

// RaffleWorker is the background stand-in for Chainlink Automation: it
// finalizes active raffles whose end time has passed and draws an
// outcome for any entry the wallet holds.
type RaffleWorker struct {
	ctx       context.Context
	cancel    context.CancelFunc
	ticker    *time.Ticker
	store     *storage.Store
	modals    *ui.Coordinator
	announcer Announcer
}

// NewRaffleWorker creates a raffle worker. A non-positive interval
// selects the default.
func NewRaffleWorker(store *storage.Store, modals *ui.Coordinator, interval time.Duration) *RaffleWorker {
	if interval <= 0 {
		interval = DefaultWorkerInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RaffleWorker{
		ctx:    ctx,
		cancel: cancel,
		ticker: time.NewTicker(interval),
		store:  store,
		modals: modals,
	}
}

// SetAnnouncer sets the optional finalization announcer.
func (w *RaffleWorker) SetAnnouncer(a Announcer) {
	w.announcer = a
}

// Start begins the background worker
func (w *RaffleWorker) Start() {
	logger.Debug("", "raffle_worker_started", "")

	// Run immediately on start
	w.FinalizeExpired()

	go func() {
		for {
			select {
			case <-w.ticker.C:
				w.FinalizeExpired()
			case <-w.ctx.Done():
				logger.Debug("", "raffle_worker_stopped", "")
				return
			}
		}
	}()
}

// Stop stops the background worker
func (w *RaffleWorker) Stop() {
	w.ticker.Stop()
	w.cancel()
}

// FinalizeExpired finalizes every active raffle past its end time. For
// each one the wallet holds a pending entry in, an outcome is drawn and
// the result modal is opened.
func (w *RaffleWorker) FinalizeExpired() {
	expired, err := w.store.ExpiredActiveRaffles(time.Now())
	if err != nil {
		logger.Debug("", "raffle_worker_query_failed", "error="+err.Error())
		return
	}
	if len(expired) == 0 {
		return
	}

	for _, raffle := range expired {
		if err := w.store.FinalizeRaffle(raffle.ID); err != nil {
			logger.Debug("", "raffle_worker_finalize_failed", fmt.Sprintf("raffle_id=%s error=%s", raffle.ID, err.Error()))
			continue
		}

		outcome := drawOutcome()
		entry, err := w.store.EntryByRaffle(raffle.ID)
		if err != nil {
			logger.Debug("", "raffle_worker_entry_failed", fmt.Sprintf("raffle_id=%s error=%s", raffle.ID, err.Error()))
			continue
		}
		if entry != nil && entry.Outcome == storage.OutcomePending {
			if err := w.store.FinalizeEntry(raffle.ID, outcome); err != nil {
				logger.Debug("", "raffle_worker_entry_failed", fmt.Sprintf("raffle_id=%s error=%s", raffle.ID, err.Error()))
				continue
			}
			w.modals.OpenResultModal(raffle.ID, string(outcome))
		}

		logger.Debug("", "raffle_worker_finalized", fmt.Sprintf("raffle_id=%s outcome=%s pool=%d", raffle.ID, outcome, raffle.Pool))

		if w.announcer != nil {
			w.announcer.AnnounceFinalized(raffle, outcome)
		}
	}
}

// drawOutcome picks won or lost with a coin flip. The real product uses
// Chainlink VRF; the demo does not pretend to.
func drawOutcome() storage.EntryOutcome {
	if rand.Intn(2) == 0 {
		return storage.OutcomeWon
	}
	return storage.OutcomeLost
}
