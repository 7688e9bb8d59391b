package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

// RecommendationCache stores computed results under keys that embed the
// snapshot version, so publishing a new snapshot orphans every old entry
// and TTL reclaims them.
type RecommendationCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRecommendationCache(rdb *goredis.Client, prefix string, ttl time.Duration, log *logger.Logger) *RecommendationCache {
	if rdb == nil {
		return nil
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "movierec"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RecommendationCache{
		log:    log.With("service", "RecommendationCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Key builds prefix:rec:v<version>:kind:part1:part2...
func (c *RecommendationCache) Key(version int64, kind string, parts ...string) string {
	prefix := "movierec"
	if c != nil {
		prefix = c.prefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(":rec:v")
	b.WriteString(strconv.FormatInt(version, 10))
	b.WriteByte(':')
	b.WriteString(kind)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// Get decodes the cached value into dst. A nil cache always misses.
func (c *RecommendationCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		observability.Current().IncCache("miss")
		return false, nil
	}
	if err != nil {
		observability.Current().IncCache("error")
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		observability.Current().IncCache("error")
		c.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = c.rdb.Del(ctx, key).Err()
		return false, nil
	}
	observability.Current().IncCache("hit")
	return true, nil
}

func (c *RecommendationCache) Set(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
