package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/semaphore"
	"gorm.io/datatypes"

	"github.com/yungbote/movierec-backend/internal/clients/redis"
	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/observability"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/recommend"
)

type SimilarMovie struct {
	recommend.Recommendation
	Similarity float64 `json:"similarity"`
}

type SnapshotInfo struct {
	Ready    bool      `json:"ready"`
	Version  int64     `json:"version"`
	BuiltAt  time.Time `json:"builtAt"`
	Movies   int       `json:"movies"`
	Users    int       `json:"users"`
	Ratings  int       `json:"ratings"`
	Genres   int       `json:"genres"`
	HasModel bool      `json:"hasModel"`
}

type RecommendationService interface {
	ForNewUser(ctx context.Context, genres string, topN int) ([]recommend.Recommendation, error)
	ForUser(ctx context.Context, userID, topN int) ([]recommend.Recommendation, error)
	TopRated(ctx context.Context, n int) ([]recommend.Recommendation, error)
	TopRatedByGenre(ctx context.Context, genre string, n int) ([]recommend.Recommendation, error)
	Similar(ctx context.Context, movieID, n int) ([]SimilarMovie, error)
	History(ctx context.Context, userID, limit int) ([]*types.RecommendationLog, error)
	Reload(ctx context.Context) (SnapshotInfo, error)
	Status() SnapshotInfo
}

type RecommendationOptions struct {
	MaxTopN                int
	MaxConcurrentInference int64
	HistoryEnabled         bool
}

type recommendationService struct {
	log         *logger.Logger
	holder      *recommend.SnapshotHolder
	rec         *recommend.Recommender
	cache       *redis.RecommendationCache
	userRepo    repos.UserRepo
	historyRepo repos.RecommendationLogRepo
	sem         *semaphore.Weighted
	opts        RecommendationOptions

	pending sync.WaitGroup
}

func NewRecommendationService(
	log *logger.Logger,
	holder *recommend.SnapshotHolder,
	rec *recommend.Recommender,
	cache *redis.RecommendationCache,
	userRepo repos.UserRepo,
	historyRepo repos.RecommendationLogRepo,
	opts RecommendationOptions,
) RecommendationService {
	if opts.MaxConcurrentInference <= 0 {
		opts.MaxConcurrentInference = 4
	}
	if opts.MaxTopN <= 0 {
		opts.MaxTopN = 100
	}
	return &recommendationService{
		log:         log.With("service", "RecommendationService"),
		holder:      holder,
		rec:         rec,
		cache:       cache,
		userRepo:    userRepo,
		historyRepo: historyRepo,
		sem:         semaphore.NewWeighted(opts.MaxConcurrentInference),
		opts:        opts,
	}
}

func (rs *recommendationService) topN(n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("top_n must not be negative: %w", pkgerrors.ErrInvalidArgument)
	}
	if n > rs.opts.MaxTopN {
		n = rs.opts.MaxTopN
	}
	return n, nil
}

func (rs *recommendationService) ForNewUser(ctx context.Context, genres string, topN int) ([]recommend.Recommendation, error) {
	if strings.TrimSpace(genres) == "" {
		return nil, fmt.Errorf("genres required: %w", pkgerrors.ErrInvalidArgument)
	}
	n, err := rs.topN(topN)
	if err != nil {
		return nil, err
	}
	s, err := rs.holder.Current()
	if err != nil {
		return nil, err
	}
	tags := recommend.SplitGenres(strings.ToLower(genres))
	key := rs.cache.Key(s.Version, "genres", strings.Join(tags, "|"), strconv.Itoa(n))

	out, err := rs.cached(ctx, key, func() ([]recommend.Recommendation, error) {
		return rs.rec.RecommendForGenres(s, genres, n), nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().IncRecommendation(types.RecommendationKindNewUser, outcome(out))
	rs.record(nil, types.RecommendationKindNewUser, genres, s.Version, out)
	return out, nil
}

func (rs *recommendationService) ForUser(ctx context.Context, userID, topN int) ([]recommend.Recommendation, error) {
	n, err := rs.topN(topN)
	if err != nil {
		return nil, err
	}
	s, err := rs.holder.Current()
	if err != nil {
		return nil, err
	}
	metrics := observability.Current()

	if _, ok := s.UserEncoder().Encode(userID); !ok || !s.HasRatings(userID) {
		u, err := rs.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			metrics.IncRecommendation(types.RecommendationKindKnownUser, "not_found")
			return nil, fmt.Errorf("user %d: %w", userID, pkgerrors.ErrNotFound)
		}
		metrics.IncRecommendation(types.RecommendationKindKnownUser, "not_encoded")
		return nil, fmt.Errorf("user %d: %w", userID, recommend.ErrUserNotEncoded)
	}
	if !rs.rec.HasModel() {
		metrics.IncRecommendation(types.RecommendationKindKnownUser, "no_model")
		return nil, recommend.ErrModelUnavailable
	}

	key := rs.cache.Key(s.Version, "user", strconv.Itoa(userID), strconv.Itoa(n))
	out, err := rs.cached(ctx, key, func() ([]recommend.Recommendation, error) {
		metrics.InferenceWaitingAdd(1)
		err := rs.sem.Acquire(ctx, 1)
		metrics.InferenceWaitingAdd(-1)
		if err != nil {
			return nil, err
		}
		defer rs.sem.Release(1)
		return rs.rec.RecommendForUser(ctx, s, userID, n)
	})
	if err != nil {
		metrics.IncRecommendation(types.RecommendationKindKnownUser, "error")
		return nil, err
	}
	metrics.IncRecommendation(types.RecommendationKindKnownUser, outcome(out))
	uid := userID
	rs.record(&uid, types.RecommendationKindKnownUser, "", s.Version, out)
	return out, nil
}

func (rs *recommendationService) TopRated(ctx context.Context, n int) ([]recommend.Recommendation, error) {
	return rs.listing(ctx, "", n)
}

func (rs *recommendationService) TopRatedByGenre(ctx context.Context, genre string, n int) ([]recommend.Recommendation, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return nil, fmt.Errorf("genre required: %w", pkgerrors.ErrInvalidArgument)
	}
	return rs.listing(ctx, genre, n)
}

func (rs *recommendationService) listing(ctx context.Context, genre string, n int) ([]recommend.Recommendation, error) {
	n, err := rs.topN(n)
	if err != nil {
		return nil, err
	}
	s, err := rs.holder.Current()
	if err != nil {
		return nil, err
	}
	key := rs.cache.Key(s.Version, "top", strings.ToLower(genre), strconv.Itoa(n))
	return rs.cached(ctx, key, func() ([]recommend.Recommendation, error) {
		if genre == "" {
			return rs.rec.TopRated(s, n), nil
		}
		return rs.rec.TopRatedByGenre(s, genre, n), nil
	})
}

func (rs *recommendationService) Similar(ctx context.Context, movieID, n int) ([]SimilarMovie, error) {
	n, err := rs.topN(n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		n = rs.rec.Options().DefaultTopN
	}
	s, err := rs.holder.Current()
	if err != nil {
		return nil, err
	}
	neighbors, ok := s.SimilarMovies(movieID, n)
	if !ok {
		return nil, fmt.Errorf("movie %d: %w", movieID, pkgerrors.ErrNotFound)
	}
	out := make([]SimilarMovie, 0, len(neighbors))
	for _, nb := range neighbors {
		r, ok := s.Record(nb.MovieID)
		if !ok {
			continue
		}
		out = append(out, SimilarMovie{Recommendation: r, Similarity: nb.Score})
	}
	return out, nil
}

func (rs *recommendationService) History(ctx context.Context, userID, limit int) ([]*types.RecommendationLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return rs.historyRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit)
}

func (rs *recommendationService) Reload(ctx context.Context) (SnapshotInfo, error) {
	if _, err := rs.holder.Reload(ctx); err != nil {
		return rs.Status(), err
	}
	return rs.Status(), nil
}

func (rs *recommendationService) Status() SnapshotInfo {
	s, err := rs.holder.Current()
	if err != nil {
		return SnapshotInfo{HasModel: rs.rec.HasModel()}
	}
	return SnapshotInfo{
		Ready:    true,
		Version:  s.Version,
		BuiltAt:  s.BuiltAt,
		Movies:   s.MovieCount(),
		Users:    s.UserEncoder().Len(),
		Ratings:  s.RatingCount(),
		Genres:   s.Features().Genres.Len(),
		HasModel: rs.rec.HasModel(),
	}
}

// cached is cache-aside around compute. Cache failures degrade to compute.
func (rs *recommendationService) cached(ctx context.Context, key string, compute func() ([]recommend.Recommendation, error)) ([]recommend.Recommendation, error) {
	var out []recommend.Recommendation
	hit, err := rs.cache.Get(ctx, key, &out)
	if err != nil {
		rs.log.Warn("recommendation cache read failed", "key", key, "error", err)
	}
	if hit {
		return out, nil
	}
	out, err = compute()
	if err != nil {
		return nil, err
	}
	if err := rs.cache.Set(ctx, key, out); err != nil {
		rs.log.Warn("recommendation cache write failed", "key", key, "error", err)
	}
	return out, nil
}

func (rs *recommendationService) record(userID *int, kind, query string, version int64, items []recommend.Recommendation) {
	if !rs.opts.HistoryEnabled || rs.historyRepo == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		rs.log.Warn("encode recommendation history failed", "error", err)
		return
	}
	entry := &types.RecommendationLog{
		UserID:          userID,
		Kind:            kind,
		Query:           query,
		SnapshotVersion: version,
		Items:           datatypes.JSON(raw),
	}
	rs.pending.Add(1)
	go func() {
		defer rs.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := rs.historyRepo.Create(dbctx.Context{Ctx: ctx}, []*types.RecommendationLog{entry}); err != nil {
			rs.log.Warn("record recommendation history failed", "kind", kind, "error", err)
		}
	}()
}

// Wait blocks until pending history writes finish.
func (rs *recommendationService) Wait() { rs.pending.Wait() }

func outcome(out []recommend.Recommendation) string {
	if len(out) == 0 {
		return "empty"
	}
	return "ok"
}
