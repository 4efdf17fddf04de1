package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"b2b-wallet/internal/core/domain"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// fenceTTL keeps a wallet's fence far longer than any single read-through
// load, so a fence cannot expire and be recreated at the same value while a
// reader holds it.
const fenceTTL = 24 * time.Hour

// setIfFence stores ARGV[2] under KEYS[1] for ARGV[3] ms only when the fence
// at KEYS[2] still reads ARGV[1]. A missing fence reads as 0.
var setIfFence = goredis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if not cur then cur = '0' end
if cur ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// WalletCache implements ports.WalletCache using Redis. A snapshot and its
// fence share a hash tag so the script stays on one cluster slot.
type WalletCache struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewWalletCache(client goredis.Cmdable, ttl time.Duration) *WalletCache {
	return &WalletCache{
		client: client,
		prefix: "wallet:",
		ttl:    ttl,
	}
}

// Get returns nil, nil if no snapshot is cached.
func (c *WalletCache) Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	val, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis wallet get: %w", err)
	}

	var w domain.Wallet
	if err := json.Unmarshal(val, &w); err != nil {
		return nil, fmt.Errorf("decode cached wallet: %w", err)
	}
	return &w, nil
}

// Fence returns the number of invalidations seen for the wallet.
func (c *WalletCache) Fence(ctx context.Context, id uuid.UUID) (int64, error) {
	n, err := c.client.Get(ctx, c.fenceKey(id)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis wallet fence: %w", err)
	}
	return n, nil
}

// Set stores the snapshot unless the wallet was invalidated after fence was read.
func (c *WalletCache) Set(ctx context.Context, w *domain.Wallet, fence int64) (bool, error) {
	val, err := json.Marshal(w)
	if err != nil {
		return false, fmt.Errorf("encode wallet: %w", err)
	}
	stored, err := setIfFence.Run(ctx, c.client,
		[]string{c.key(w.ID), c.fenceKey(w.ID)},
		fence, val, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis wallet set: %w", err)
	}
	return stored == 1, nil
}

// Invalidate advances the fence and drops the snapshot in one MULTI block.
func (c *WalletCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	fence := c.fenceKey(id)
	_, err := c.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, fence)
		pipe.Expire(ctx, fence, fenceTTL)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis wallet invalidate: %w", err)
	}
	return nil
}

func (c *WalletCache) key(id uuid.UUID) string {
	return c.prefix + "{" + id.String() + "}"
}

func (c *WalletCache) fenceKey(id uuid.UUID) string {
	return c.key(id) + ":fence"
}
