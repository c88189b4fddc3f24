package service

import (
	"fmt"

	"luckyyield/internal/logger"
	"luckyyield/internal/storage"
)

// CatalogService is the source of truth for raffle metadata and pool
// accounting.
type CatalogService struct {
	store *storage.Store
}

// NewCatalogService creates a new catalog service backed by store.
func NewCatalogService(store *storage.Store) *CatalogService {
	return &CatalogService{store: store}
}

// List returns all raffles. Order is insignificant; consumers re-sort.
func (s *CatalogService) List() ([]*storage.Raffle, error) {
	return s.store.Raffles()
}

// Get retrieves a raffle by id, or storage.ErrNotFound.
func (s *CatalogService) Get(id string) (*storage.Raffle, error) {
	r, err := s.store.RaffleByID(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

// Finalize transitions a raffle from active to finalized. Idempotent:
// finalizing an already-finalized raffle is a no-op.
func (s *CatalogService) Finalize(id string) error {
	if err := s.store.FinalizeRaffle(id); err != nil {
		return err
	}
	logger.Debug("", "raffle_finalized", "raffle_id="+id)
	return nil
}

// CreditPool adds amount to a raffle's pool total.
func (s *CatalogService) CreditPool(id string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: pool credit must be non-negative", ErrValidation)
	}
	return s.store.CreditPool(id, amount)
}
