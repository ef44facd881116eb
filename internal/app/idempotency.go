package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// idempotencyClaimScript atomically claims an idempotency key for a new
// record id, or returns the record id that previously claimed it.
var idempotencyClaimScript = redis.NewScript(`
local ok = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[2])
if ok then
  return {1, ARGV[1]}
end
return {0, redis.call("GET", KEYS[1])}
`)

// idempotencyReleaseScript deletes a claim only while it still belongs to
// the record that made it, so a concurrent re-claim is never clobbered.
var idempotencyReleaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// IdempotencyGuard deduplicates resubmitted charges by Idempotency-Key.
type IdempotencyGuard interface {
	// Claim binds the key to recordID. When the key was already claimed,
	// claimed is false and existingID is the record that owns it.
	Claim(ctx context.Context, merchantID, key, recordID string, ttl time.Duration) (existingID string, claimed bool, err error)
	// Release frees a claim that never produced a record, but only while
	// recordID still owns it.
	Release(ctx context.Context, merchantID, key, recordID string) error
}

// RedisIdempotencyGuard implements distributed idempotency claims in Redis.
type RedisIdempotencyGuard struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyGuard(client redis.UniversalClient, prefix string) *RedisIdempotencyGuard {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "transactor:idempotency"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")

	return &RedisIdempotencyGuard{
		client: client,
		prefix: trimmedPrefix,
	}
}

func (g *RedisIdempotencyGuard) Claim(ctx context.Context, merchantID, key, recordID string, ttl time.Duration) (string, bool, error) {
	if g == nil || g.client == nil {
		return "", true, nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	redisKey := fmt.Sprintf("%s:%s:%s", g.prefix, strings.TrimSpace(merchantID), strings.TrimSpace(key))
	rawResult, err := idempotencyClaimScript.Run(ctx, g.client, []string{redisKey}, recordID, ttl.Milliseconds()).Result()
	if err != nil {
		return "", false, err
	}

	values, ok := rawResult.([]interface{})
	if !ok || len(values) != 2 {
		return "", false, fmt.Errorf("unexpected redis claim response shape: %T", rawResult)
	}

	claimedFlag, ok := values[0].(int64)
	if !ok {
		return "", false, fmt.Errorf("unexpected redis claim flag type: %T", values[0])
	}
	owner, ok := values[1].(string)
	if !ok {
		return "", false, fmt.Errorf("unexpected redis claim owner type: %T", values[1])
	}

	return owner, claimedFlag == 1, nil
}

func (g *RedisIdempotencyGuard) Release(ctx context.Context, merchantID, key, recordID string) error {
	if g == nil || g.client == nil {
		return nil
	}
	redisKey := fmt.Sprintf("%s:%s:%s", g.prefix, strings.TrimSpace(merchantID), strings.TrimSpace(key))
	return idempotencyReleaseScript.Run(ctx, g.client, []string{redisKey}, recordID).Err()
}
