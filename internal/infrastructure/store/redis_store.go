package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portfolio_tracker/internal/app/port"
	"portfolio_tracker/internal/domain/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultLoadingTTL = 5 * time.Minute
	loadingTTLMargin  = time.Minute
)

// RedisPortfolioStore keeps snapshots in Redis so that several instances can
// share them. Each snapshot is one JSON value written with SET, which replaces
// the previous one atomically.
type RedisPortfolioStore struct {
	client      redis.UniversalClient
	prefix      string
	snapshotTTL time.Duration
	loadingTTL  time.Duration
}

var _ port.PortfolioStore = (*RedisPortfolioStore)(nil)

// NewRedisPortfolioStore creates a store. A zero snapshotTTL keeps snapshots forever.
func NewRedisPortfolioStore(client redis.UniversalClient, prefix string, snapshotTTL time.Duration) *RedisPortfolioStore {
	if prefix == "" {
		prefix = "portfolio"
	}
	return &RedisPortfolioStore{
		client:      client,
		prefix:      prefix,
		snapshotTTL: snapshotTTL,
		loadingTTL:  defaultLoadingTTL,
	}
}

// WithCycleTimeout makes the loading flag outlive a cycle bounded by timeout.
func (s *RedisPortfolioStore) WithCycleTimeout(timeout time.Duration) *RedisPortfolioStore {
	s.loadingTTL = LoadingTTL(timeout)
	return s
}

// LoadingTTL returns the expiry of the loading flag for a given cycle timeout.
func LoadingTTL(cycleTimeout time.Duration) time.Duration {
	if ttl := cycleTimeout + loadingTTLMargin; ttl > defaultLoadingTTL {
		return ttl
	}
	return defaultLoadingTTL
}

func (s *RedisPortfolioStore) snapshotKey(walletAddress string) string {
	return fmt.Sprintf("%s:%s", s.prefix, walletKey(walletAddress))
}

func (s *RedisPortfolioStore) loadingKey(walletAddress string) string {
	return s.snapshotKey(walletAddress) + ":loading"
}

// SetLoading implements port.PortfolioStore. The flag expires on its own so a
// crashed cycle cannot leave a wallet loading forever.
func (s *RedisPortfolioStore) SetLoading(ctx context.Context, walletAddress string, loading bool) error {
	key := s.loadingKey(walletAddress)
	if !loading {
		if err := s.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to clear loading flag: %w", err)
		}
		return nil
	}
	if err := s.client.Set(ctx, key, "1", s.loadingTTL).Err(); err != nil {
		return fmt.Errorf("failed to set loading flag: %w", err)
	}
	return nil
}

// IsLoading implements port.PortfolioStore.
func (s *RedisPortfolioStore) IsLoading(ctx context.Context, walletAddress string) (bool, error) {
	n, err := s.client.Exists(ctx, s.loadingKey(walletAddress)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read loading flag: %w", err)
	}
	return n > 0, nil
}

// SavePortfolio implements port.PortfolioStore.
func (s *RedisPortfolioStore) SavePortfolio(ctx context.Context, snapshot *entity.PortfolioSnapshot) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.snapshotKey(snapshot.WalletAddress), data, s.snapshotTTL).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// GetPortfolio implements port.PortfolioStore.
func (s *RedisPortfolioStore) GetPortfolio(ctx context.Context, walletAddress string) (*entity.PortfolioSnapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(walletAddress)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot entity.PortfolioSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}
