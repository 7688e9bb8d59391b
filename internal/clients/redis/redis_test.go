package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb, err := NewClient(context.Background(), Options{Addr: addr}, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestCacheKeyEmbedsVersion(t *testing.T) {
	var nilCache *RecommendationCache
	if got := nilCache.Key(7, "user", "42", "10"); got != "movierec:rec:v7:user:42:10" {
		t.Fatalf("unexpected key %q", got)
	}
	c := &RecommendationCache{prefix: "x"}
	if c.Key(1, "top") == c.Key(2, "top") {
		t.Fatalf("keys must differ across versions")
	}
}

func TestNilCacheMisses(t *testing.T) {
	var c *RecommendationCache
	var dst []int
	hit, err := c.Get(context.Background(), "k", &dst)
	if hit || err != nil {
		t.Fatalf("nil cache: hit=%v err=%v", hit, err)
	}
	if err := c.Set(context.Background(), "k", []int{1}); err != nil {
		t.Fatalf("nil cache set: %v", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	rdb := testClient(t)
	c := NewRecommendationCache(rdb, "movierec-test", time.Minute, logger.NewNop())
	ctx := context.Background()
	key := c.Key(time.Now().UnixNano(), "top", "5")
	t.Cleanup(func() { _ = rdb.Del(ctx, key).Err() })

	var got []string
	if hit, err := c.Get(ctx, key, &got); hit || err != nil {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}
	if err := c.Set(ctx, key, []string{"a", "b"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	hit, err := c.Get(ctx, key, &got)
	if err != nil || !hit || len(got) != 2 || got[1] != "b" {
		t.Fatalf("expected hit, got hit=%v err=%v value=%v", hit, err, got)
	}
}

func TestChangeBusDelivers(t *testing.T) {
	rdb := testClient(t)
	bus, err := NewChangeBus(rdb, "movierec-test:"+time.Now().Format(time.RFC3339Nano), logger.NewNop())
	if err != nil {
		t.Fatalf("NewChangeBus: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan ChangeEvent, 1)
	if err := bus.StartForwarder(ctx, func(ev ChangeEvent) { got <- ev }); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	if err := bus.Publish(ctx, ChangeEvent{Type: EventRatingsChanged, UserID: 3, Origin: "a"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-got:
		if ev.Type != EventRatingsChanged || ev.UserID != 3 || ev.Origin != "a" || ev.At.IsZero() {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("event not delivered")
	}
}
