package store

import (
	"context"
	"errors"
	"strings"
	"sync"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"
)

// ErrNilSnapshot is returned when saving a nil snapshot.
var ErrNilSnapshot = errors.New("snapshot is nil")

// MemoryPortfolioStore keeps snapshots in process memory.
type MemoryPortfolioStore struct {
	mu        sync.RWMutex
	snapshots map[string]*entity.PortfolioSnapshot
	loading   map[string]bool
}

var _ port.PortfolioStore = (*MemoryPortfolioStore)(nil)

// NewMemoryPortfolioStore creates an empty store.
func NewMemoryPortfolioStore() *MemoryPortfolioStore {
	return &MemoryPortfolioStore{
		snapshots: make(map[string]*entity.PortfolioSnapshot),
		loading:   make(map[string]bool),
	}
}

func walletKey(walletAddress string) string {
	return strings.ToLower(strings.TrimSpace(walletAddress))
}

// SetLoading implements port.PortfolioStore.
func (s *MemoryPortfolioStore) SetLoading(_ context.Context, walletAddress string, loading bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loading {
		s.loading[walletKey(walletAddress)] = true
	} else {
		delete(s.loading, walletKey(walletAddress))
	}
	return nil
}

// IsLoading implements port.PortfolioStore.
func (s *MemoryPortfolioStore) IsLoading(_ context.Context, walletAddress string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading[walletKey(walletAddress)], nil
}

// SavePortfolio implements port.PortfolioStore. The stored value is a copy.
func (s *MemoryPortfolioStore) SavePortfolio(_ context.Context, snapshot *entity.PortfolioSnapshot) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}
	cp := snapshot.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[walletKey(snapshot.WalletAddress)] = cp
	return nil
}

// GetPortfolio implements port.PortfolioStore.
func (s *MemoryPortfolioStore) GetPortfolio(_ context.Context, walletAddress string) (*entity.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[walletKey(walletAddress)].Clone(), nil
}
