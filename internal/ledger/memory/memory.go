// Package memory provides an in-memory ledger store. It is safe for
// concurrent use and is primarily intended for tests and local development.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/doa-network/staking-vault/internal/domain/stake"
	"github.com/doa-network/staking-vault/internal/ledger"
)

// Store is an in-memory implementation of ledger.Store.
type Store struct {
	mu        sync.RWMutex
	positions map[string]stake.Position
	order     []string // insertion order of position ids
}

var _ ledger.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		positions: make(map[string]stake.Position),
	}
}

func (s *Store) CreatePosition(_ context.Context, p stake.Position) (stake.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.positions[p.ID]; exists {
		return stake.Position{}, stake.ErrDuplicateID
	}

	s.positions[p.ID] = p
	s.order = append(s.order, p.ID)
	return p, nil
}

func (s *Store) GetPosition(_ context.Context, id string) (stake.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return stake.Position{}, stake.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListPositions(_ context.Context, owner string) ([]stake.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]stake.Position, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		p := s.positions[s.order[i]]
		if owner == "" || p.Owner == owner {
			result = append(result, p)
		}
	}
	return result, nil
}

func (s *Store) SettlePosition(_ context.Context, id, txRef string, settledAt time.Time) (stake.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[id]
	if !ok {
		return stake.Position{}, stake.ErrNotFound
	}
	if p.Settled() {
		return stake.Position{}, stake.ErrAlreadySettled
	}

	p.Status = stake.StatusSettled
	p.SettlementTxRef = txRef
	p.SettledAt = settledAt.UTC()
	s.positions[id] = p
	return p, nil
}
