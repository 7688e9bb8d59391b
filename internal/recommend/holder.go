package recommend

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

// Source loads the tables a snapshot is built from.
type Source interface {
	Load(ctx context.Context) (BuildInput, error)
}

type SourceFunc func(ctx context.Context) (BuildInput, error)

func (f SourceFunc) Load(ctx context.Context) (BuildInput, error) { return f(ctx) }

// SnapshotHolder publishes the current snapshot. Readers take the pointer
// once per request and keep using it even if a reload lands meanwhile.
//
// When the source supplies no vocabulary, the encodings of the first
// snapshot are carried through every reload: an id keeps its index for the
// life of the holder and ids seen later are appended.
type SnapshotHolder struct {
	src  Source
	opts BuildOptions
	log  *logger.Logger

	cur       atomic.Pointer[Snapshot]
	vocab     atomic.Pointer[vocabulary]
	version   atomic.Int64
	requested atomic.Int64
	group     singleflight.Group
}

type vocabulary struct {
	users  []int
	movies []int
}

// extend returns the carried orders with ids first seen in ratings appended.
func (v *vocabulary) extend(ratings []*types.Rating) (users, movies []int) {
	users = append([]int(nil), v.users...)
	movies = append([]int(nil), v.movies...)
	seenUsers := make(map[int]struct{}, len(users))
	for _, id := range users {
		seenUsers[id] = struct{}{}
	}
	seenMovies := make(map[int]struct{}, len(movies))
	for _, id := range movies {
		seenMovies[id] = struct{}{}
	}
	for _, r := range ratings {
		if r == nil {
			continue
		}
		if _, ok := seenUsers[r.UserID]; !ok {
			seenUsers[r.UserID] = struct{}{}
			users = append(users, r.UserID)
		}
		if _, ok := seenMovies[r.MovieID]; !ok {
			seenMovies[r.MovieID] = struct{}{}
			movies = append(movies, r.MovieID)
		}
	}
	return users, movies
}

type buildResult struct {
	snapshot *Snapshot
	gen      int64
}

func NewSnapshotHolder(src Source, opts BuildOptions, baseLog *logger.Logger) *SnapshotHolder {
	return &SnapshotHolder{
		src:  src,
		opts: opts,
		log:  baseLog.With("component", "SnapshotHolder"),
	}
}

func (h *SnapshotHolder) Current() (*Snapshot, error) {
	s := h.cur.Load()
	if s == nil {
		return nil, ErrSnapshotNotReady
	}
	return s, nil
}

func (h *SnapshotHolder) Ready() bool { return h.cur.Load() != nil }

// Reload rebuilds from the source and publishes the result. Concurrent
// calls share one rebuild, but a call never returns a build that started
// reading before the call was made; it waits for one more build instead.
// On failure the previous snapshot stays live.
func (h *SnapshotHolder) Reload(ctx context.Context) (*Snapshot, error) {
	want := h.requested.Add(1)
	for {
		v, err, shared := h.group.Do("reload", func() (any, error) {
			gen := h.requested.Load()
			s, err := h.rebuild(context.WithoutCancel(ctx))
			if err != nil {
				return nil, err
			}
			return buildResult{snapshot: s, gen: gen}, nil
		})
		if err != nil {
			return nil, err
		}
		res := v.(buildResult)
		if res.gen >= want {
			if shared {
				h.log.Debug("snapshot reload coalesced")
			}
			return res.snapshot, nil
		}
		h.log.Debug("snapshot reload joined an earlier build, rebuilding")
	}
}

func (h *SnapshotHolder) rebuild(ctx context.Context) (*Snapshot, error) {
	ctx, span := observability.Tracer().Start(ctx, "recommend.snapshot.build")
	defer span.End()
	start := time.Now()

	in, err := h.src.Load(ctx)
	if err != nil {
		h.fail(span, start, err)
		return nil, fmt.Errorf("load snapshot source: %w", err)
	}
	if prev := h.vocab.Load(); prev != nil {
		users, movies := prev.extend(in.Ratings)
		if len(in.UserIDs) == 0 {
			in.UserIDs = users
		}
		if len(in.MovieIDs) == 0 {
			in.MovieIDs = movies
		}
	}
	s, err := Build(ctx, h.nextVersion(), in, h.opts)
	if err != nil {
		h.fail(span, start, err)
		return nil, err
	}
	h.vocab.Store(&vocabulary{users: s.users.IDs(), movies: s.items.IDs()})
	h.cur.Store(s)

	dur := time.Since(start)
	span.SetAttributes(
		attribute.Int64("snapshot.version", s.Version),
		attribute.Int("snapshot.movies", s.MovieCount()),
		attribute.Int("snapshot.ratings", s.RatingCount()),
	)
	m := observability.Current()
	m.ObserveSnapshotBuild("ok", dur)
	m.SetSnapshot(s.Version, s.MovieCount(), s.users.Len(), s.RatingCount(), s.features.Genres.Len())
	h.log.Info("snapshot published",
		"version", s.Version,
		"movies", s.MovieCount(),
		"users", s.users.Len(),
		"ratings", s.RatingCount(),
		"genres", s.features.Genres.Len(),
		"duration_ms", dur.Milliseconds(),
	)
	return s, nil
}

func (h *SnapshotHolder) fail(span trace.Span, start time.Time, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	observability.Current().ObserveSnapshotBuild("error", time.Since(start))
	h.log.Error("snapshot build failed", "error", err)
}

// nextVersion is wall-clock based so versions stay unique across restarts,
// and strictly increasing within the process.
func (h *SnapshotHolder) nextVersion() int64 {
	for {
		prev := h.version.Load()
		next := time.Now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if h.version.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// RunRefresh reloads every interval until ctx is done. interval <= 0 is a
// no-op.
func (h *SnapshotHolder) RunRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := h.Reload(ctx); err != nil {
				h.log.Warn("periodic snapshot refresh failed", "error", err)
			}
		}
	}
}
