package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

const (
	EventRatingsChanged = "ratings_changed"
	EventCatalogChanged = "catalog_changed"
	EventUsersChanged   = "users_changed"
)

// ChangeEvent announces a write that makes the current snapshot stale.
type ChangeEvent struct {
	Type    string    `json:"type"`
	UserID  int       `json:"userId,omitempty"`
	MovieID int       `json:"movieId,omitempty"`
	Origin  string    `json:"origin"`
	At      time.Time `json:"at"`
}

type ChangeBus interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev ChangeEvent)) error
	Close() error
}

type changeBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewChangeBus publishes on channel through rdb. The caller keeps ownership
// of rdb.
func NewChangeBus(rdb *goredis.Client, channel string, log *logger.Logger) (ChangeBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	ch := strings.TrimSpace(channel)
	if ch == "" {
		ch = "movierec:changes"
	}
	return &changeBus{
		log:     log.With("service", "RedisChangeBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *changeBus) Publish(ctx context.Context, ev ChangeEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis change bus not initialized")
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	observability.Current().IncChangeEvent("published")
	return nil
}

func (b *changeBus) StartForwarder(ctx context.Context, onEvent func(ev ChangeEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis change bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev ChangeEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad change event payload", "error", err)
					continue
				}
				observability.Current().IncChangeEvent("received")
				onEvent(ev)
			}
		}
	}()

	return nil
}

// Close is a no-op; the redis client belongs to the caller. Forwarders stop
// with their context.
func (b *changeBus) Close() error { return nil }
