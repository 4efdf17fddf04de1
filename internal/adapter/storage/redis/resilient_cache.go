package redis

import (
	"context"
	"errors"
	"time"

	"b2b-wallet/config"
	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// ErrCacheUnavailable is returned while the breaker is open.
var ErrCacheUnavailable = errors.New("wallet cache unavailable")

// opTimeout bounds a single cache round trip.
const opTimeout = 100 * time.Millisecond

// ResilientWalletCache wraps a WalletCache with a circuit breaker. After
// repeated failures it stops calling Redis until the breaker timeout passes.
type ResilientWalletCache struct {
	next ports.WalletCache
	cb   *gobreaker.CircuitBreaker
	log  zerolog.Logger
}

// NewResilientWalletCache creates the breaker from the cache config.
func NewResilientWalletCache(next ports.WalletCache, cfg config.CacheConfig, log zerolog.Logger) *ResilientWalletCache {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	settings := gobreaker.Settings{
		Name:        "wallet-cache",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &ResilientWalletCache{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
		log:  log,
	}
}

// Get returns nil, nil on a miss. Misses do not count as failures.
func (c *ResilientWalletCache) Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Get(ctx, id)
	})
	if err != nil {
		return nil, c.wrap(err)
	}
	w, _ := result.(*domain.Wallet)
	return w, nil
}

func (c *ResilientWalletCache) Fence(ctx context.Context, id uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Fence(ctx, id)
	})
	if err != nil {
		return 0, c.wrap(err)
	}
	return result.(int64), nil
}

// Set reports false without error when the fence moved; that is not a failure.
func (c *ResilientWalletCache) Set(ctx context.Context, w *domain.Wallet, fence int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Set(ctx, w, fence)
	})
	if err != nil {
		return false, c.wrap(err)
	}
	return result.(bool), nil
}

// Invalidate bypasses an open breaker. A failed invalidation leaves the
// snapshot stale for at most the cache TTL.
func (c *ResilientWalletCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.next.Invalidate(ctx, id)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = c.next.Invalidate(ctx, id)
	}
	return c.wrap(err)
}

// State reports the breaker state for diagnostics.
func (c *ResilientWalletCache) State() gobreaker.State {
	return c.cb.State()
}

func (c *ResilientWalletCache) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCacheUnavailable
	}
	return err
}
