package redis

import (
	"context"
	"fmt"
	"time"

	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// Two keys per wallet: the period spend counter and the read-through
// settled balance. Availability is balance minus counter; the counter
// carries both confirmed-but-unsettled and in-flight reservations.
const (
	spendPrefix   = "hot_spend:"
	balancePrefix = "wallet_bal:"
)

// reserveScript is the atomic check-then-deduct for one wallet. It denies
// without writing when availability is short, and reports -1 when the
// balance key has not been seeded yet.
var reserveScript = goredis.NewScript(`
local bal = redis.call('GET', KEYS[2])
if not bal then
	return {-1, 0}
end
local spent = tonumber(redis.call('GET', KEYS[1]) or '0')
local avail = tonumber(bal) - spent
local amount = tonumber(ARGV[1])
if amount > avail then
	return {0, amount - avail}
end
redis.call('INCRBY', KEYS[1], amount)
if redis.call('TTL', KEYS[1]) < 0 then
	redis.call('EXPIRE', KEYS[1], ARGV[2])
end
return {1, avail - amount}
`)

// releaseScript returns a reservation to the counter without ever driving
// it negative; a missing counter means the reservation already expired.
var releaseScript = goredis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then
	return 0
end
local left = tonumber(cur) - tonumber(ARGV[1])
if left <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
redis.call('SET', KEYS[1], left)
redis.call('EXPIRE', KEYS[1], ARGV[2])
return left
`)

// settleScript releases a reservation and installs the new settled balance
// in one atomic step, so availability never dips or double-counts between
// the two writes.
var settleScript = goredis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local left = tonumber(cur) - tonumber(ARGV[1])
	if left <= 0 then
		redis.call('DEL', KEYS[1])
	else
		redis.call('SET', KEYS[1], left)
		redis.call('EXPIRE', KEYS[1], ARGV[3])
	end
end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('EXPIRE', KEYS[2], ARGV[3])
return 1
`)

// SpendCache implements ports.SpendCache using Redis.
type SpendCache struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSpendCache creates a Redis-backed hot spend cache. ttl bounds how
// long stale counters and balances linger; it should comfortably exceed
// the accounting period.
func NewSpendCache(client *goredis.Client, ttl time.Duration) *SpendCache {
	return &SpendCache{client: client, ttl: ttl}
}

func spendKey(ref domain.WalletRef, period string) string {
	return fmt.Sprintf("%s%s:%s", spendPrefix, ref.String(), period)
}

func balanceKey(ref domain.WalletRef) string {
	return balancePrefix + ref.String()
}

// Reserve atomically checks availability and adds amount to the period
// counter of one wallet.
func (c *SpendCache) Reserve(ctx context.Context, ref domain.WalletRef, period string, amount int64) (*ports.ReserveResult, error) {
	keys := []string{spendKey(ref, period), balanceKey(ref)}
	raw, err := reserveScript.Run(ctx, c.client, keys, amount, int64(c.ttl.Seconds())).Slice()
	if err != nil {
		return nil, fmt.Errorf("redis reserve: %w", err)
	}
	status, value, err := decodePair(raw)
	if err != nil {
		return nil, fmt.Errorf("redis reserve: %w", err)
	}

	switch status {
	case 1:
		return &ports.ReserveResult{Status: ports.ReserveOK, Remaining: value}, nil
	case 0:
		return &ports.ReserveResult{Status: ports.ReserveDenied, Shortfall: value}, nil
	default:
		return &ports.ReserveResult{Status: ports.ReserveUnseeded}, nil
	}
}

// Release returns a previously reserved amount to the counter.
func (c *SpendCache) Release(ctx context.Context, ref domain.WalletRef, period string, amount int64) error {
	keys := []string{spendKey(ref, period)}
	if err := releaseScript.Run(ctx, c.client, keys, amount, int64(c.ttl.Seconds())).Err(); err != nil {
		return fmt.Errorf("redis release: %w", err)
	}
	return nil
}

// SeedBalance installs the settled balance and, when the counter is
// absent, the reserved spend carried by unsettled WAL entries. An existing
// counter is left alone: it is ahead of any rebuild.
func (c *SpendCache) SeedBalance(ctx context.Context, ref domain.WalletRef, period string, balance, reservedSpend int64) error {
	pipe := c.client.Pipeline()
	pipe.Set(ctx, balanceKey(ref), balance, c.ttl)
	pipe.SetNX(ctx, spendKey(ref, period), reservedSpend, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis seed balance: %w", err)
	}
	return nil
}

// ApplySettlement releases the reservation and moves the cached balance to
// its new settled value atomically.
func (c *SpendCache) ApplySettlement(ctx context.Context, ref domain.WalletRef, period string, reserved, newBalance int64) error {
	keys := []string{spendKey(ref, period), balanceKey(ref)}
	if err := settleScript.Run(ctx, c.client, keys, reserved, newBalance, int64(c.ttl.Seconds())).Err(); err != nil {
		return fmt.Errorf("redis apply settlement: %w", err)
	}
	return nil
}

// PeriodSpend reads the current counter; zero when absent.
func (c *SpendCache) PeriodSpend(ctx context.Context, ref domain.WalletRef, period string) (int64, error) {
	val, err := c.client.Get(ctx, spendKey(ref, period)).Int64()
	if err != nil {
		if err == goredis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis period spend: %w", err)
	}
	return val, nil
}

// decodePair unpacks the {status, value} reply shared by the scripts.
func decodePair(raw []interface{}) (int64, int64, error) {
	if len(raw) != 2 {
		return 0, 0, fmt.Errorf("unexpected script reply of %d elements", len(raw))
	}
	status, ok := raw[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected script reply type %T", raw[0])
	}
	value, ok := raw[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected script reply type %T", raw[1])
	}
	return status, value, nil
}
