// Package member caches chat-admin exemption lookups in Redis.
// Verdicts are stored as simple key-value pairs with TTL-based expiry:
//
//	Key:   exempt:<chat_id>:<user_id>
//	Value: "1" (exempt) or "0" (not exempt)
//	TTL:   cache TTL
//
// The cache only trims platform round-trips; a Redis error falls open to a
// direct membership lookup, and a failed lookup is surfaced so the caller
// can fail closed toward moderation.
package member

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sentinel/modbot/internal/platform"
)

// ExemptPrefix is the Redis key prefix for cached exemption verdicts.
const ExemptPrefix = "exempt:"

// DefaultTTL bounds how long a stale verdict may be served. A demoted
// admin keeps their exemption for at most this long.
const DefaultTTL = 5 * time.Minute

// Cache answers "is this sender exempt from moderation?" using Redis in
// front of the platform membership call.
type Cache struct {
	rdb      *redis.Client
	platform platform.Client
	ttl      time.Duration
}

// NewCache creates an exemption cache. A non-positive ttl falls back to
// DefaultTTL.
func NewCache(rdb *redis.Client, client platform.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{rdb: rdb, platform: client, ttl: ttl}
}

// IsExempt reports whether the user is a chat administrator or creator.
// Cache hits answer directly; on a miss the platform is consulted and the
// verdict cached. The error from a failed platform lookup is returned
// as-is so the orchestrator can treat it as "not exempt".
func (c *Cache) IsExempt(ctx context.Context, chatID, userID int64) (bool, error) {
	key := fmt.Sprintf("%s%d:%d", ExemptPrefix, chatID, userID)

	val, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		return val == "1", nil
	}
	if !errors.Is(err, redis.Nil) {
		log.Printf("[member] cache read failed for %s: %v", key, err)
	}

	membership, err := c.platform.GetMembership(ctx, chatID, userID)
	if err != nil {
		return false, fmt.Errorf("member: membership lookup: %w", err)
	}

	cached := "0"
	if membership.IsAdmin {
		cached = "1"
	}
	if err := c.rdb.Set(ctx, key, cached, c.ttl).Err(); err != nil {
		log.Printf("[member] cache write failed for %s: %v", key, err)
	}

	return membership.IsAdmin, nil
}

// Invalidate drops the cached verdict for a user, forcing the next check
// to hit the platform. Used after promotions or demotions seen by the bot.
func (c *Cache) Invalidate(ctx context.Context, chatID, userID int64) error {
	key := fmt.Sprintf("%s%d:%d", ExemptPrefix, chatID, userID)
	return c.rdb.Del(ctx, key).Err()
}
