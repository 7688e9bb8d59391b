package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/movierec-backend/internal/clients/redis"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

// ChangeNotifier is told about writes that make the published snapshot
// stale. Services treat a nil notifier as a no-op.
type ChangeNotifier interface {
	RatingsChanged(ctx context.Context, userID, movieID int)
	CatalogChanged(ctx context.Context, movieID int)
	// Listen applies change events published by other replicas until ctx
	// ends.
	Listen(ctx context.Context) error
}

type nopNotifier struct{}

func (nopNotifier) RatingsChanged(context.Context, int, int) {}
func (nopNotifier) CatalogChanged(context.Context, int)      {}
func (nopNotifier) Listen(context.Context) error             { return nil }

// NopChangeNotifier keeps the snapshot as built; writes are not reflected
// until an explicit reload.
func NopChangeNotifier() ChangeNotifier { return nopNotifier{} }

func orNop(n ChangeNotifier) ChangeNotifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

// Reloader is the part of the snapshot holder the notifier drives.
type Reloader interface {
	Reload(ctx context.Context) error
}

type ReloaderFunc func(ctx context.Context) error

func (f ReloaderFunc) Reload(ctx context.Context) error { return f(ctx) }

type changeNotifier struct {
	log      *logger.Logger
	bus      redis.ChangeBus
	reloader Reloader
	onWrite  bool
	origin   string
	timeout  time.Duration
	async    bool
}

type ChangeNotifierOptions struct {
	// RefreshOnWrite rebuilds the snapshot after every write, locally and,
	// through the bus, on every other replica.
	RefreshOnWrite bool
	// Synchronous makes local reloads finish before the write call returns.
	Synchronous bool
}

func NewChangeNotifier(log *logger.Logger, bus redis.ChangeBus, reloader Reloader, opts ChangeNotifierOptions) ChangeNotifier {
	return &changeNotifier{
		log:      log.With("service", "ChangeNotifier"),
		bus:      bus,
		reloader: reloader,
		onWrite:  opts.RefreshOnWrite,
		origin:   uuid.NewString(),
		timeout:  2 * time.Minute,
		async:    !opts.Synchronous,
	}
}

func (n *changeNotifier) RatingsChanged(ctx context.Context, userID, movieID int) {
	if n == nil {
		return
	}
	n.emit(ctx, redis.ChangeEvent{Type: redis.EventRatingsChanged, UserID: userID, MovieID: movieID})
}

func (n *changeNotifier) CatalogChanged(ctx context.Context, movieID int) {
	if n == nil {
		return
	}
	n.emit(ctx, redis.ChangeEvent{Type: redis.EventCatalogChanged, MovieID: movieID})
}

func (n *changeNotifier) emit(ctx context.Context, ev redis.ChangeEvent) {
	if !n.onWrite {
		return
	}
	ev.Origin = n.origin
	ev.At = time.Now().UTC()
	if n.bus != nil {
		if err := n.bus.Publish(ctx, ev); err != nil {
			n.log.Warn("change event publish failed", "type", ev.Type, "error", err)
		}
	}
	n.reload(ctx, ev.Type)
}

func (n *changeNotifier) Listen(ctx context.Context) error {
	if n == nil || n.bus == nil || !n.onWrite {
		return nil
	}
	return n.bus.StartForwarder(ctx, func(ev redis.ChangeEvent) {
		if ev.Origin == n.origin {
			return
		}
		n.log.Debug("remote change received", "type", ev.Type, "origin", ev.Origin)
		n.reload(ctx, ev.Type)
	})
}

func (n *changeNotifier) reload(ctx context.Context, reason string) {
	if n.reloader == nil {
		return
	}
	run := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()
		if err := n.reloader.Reload(ctx); err != nil {
			n.log.Warn("reload after change failed", "reason", reason, "error", err)
		}
	}
	if !n.async {
		run(ctx)
		return
	}
	go run(context.WithoutCancel(ctx))
}
