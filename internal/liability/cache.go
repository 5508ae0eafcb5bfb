package liability

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "goalplan/internal/platform/redis"
	"goalplan/internal/residency"
	id "goalplan/pkg/domain"
)

// ResultCache keys a serialized TaxCalculationResult by request hash. A hit
// returns the original bytes, audit record ID included, so replays are
// byte-identical.
type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// requestHash fingerprints everything the calculation depends on: the
// request, the gathered ledger snapshots and the config versions in use.
// Any config republication changes the versions and therefore the key.
func requestHash(req TaxCalculationRequest, items []id.IncomeItem, facts residency.Facts, versions map[string]string) (string, error) {
	payload := struct {
		Request  TaxCalculationRequest `json:"request"`
		Items    []id.IncomeItem       `json:"items"`
		Facts    residency.Facts       `json:"facts"`
		Versions map[string]string     `json:"versions"`
	}{req, items, facts, versions}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hash calculation inputs: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// RedisCache stores results in Redis with a TTL. Cache misses and transport
// errors both read as misses; the calculation is cheap enough to redo.
type RedisCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedisCache(client *platformredis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(key string) string { return "goalplan:taxcalc:" + key }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return raw, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, cacheKey(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
