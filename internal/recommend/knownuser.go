package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/movierec-backend/internal/model"
	"github.com/yungbote/movierec-backend/internal/observability"
)

type scoredMovie struct {
	movieIndex int
	movieID    int
	score      float32
}

// Candidates lists, in movie id order, the catalog movies the user has not
// rated that the model can score.
func (s *Snapshot) Candidates(userID int) []int {
	out := make([]int, 0)
	for _, movieID := range s.movieIDs {
		if s.HasRated(userID, movieID) {
			continue
		}
		if _, ok := s.items.Encode(movieID); !ok {
			continue
		}
		if _, ok := s.features.Stats[movieID]; !ok {
			continue
		}
		out = append(out, movieID)
	}
	return out
}

// RecommendForUser scores every unwatched, encodable movie for userID in one
// batched model call and returns the best topN in score order. A user
// without an encoding or without ratings is rejected before any model work.
func (r *Recommender) RecommendForUser(ctx context.Context, s *Snapshot, userID, topN int) ([]Recommendation, error) {
	topN = limit(topN, r.opts.DefaultTopN)

	userIndex, ok := s.users.Encode(userID)
	if !ok || !s.HasRatings(userID) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrUserNotEncoded)
	}
	if r.scorer == nil {
		return nil, ErrModelUnavailable
	}

	candidates := s.Candidates(userID)
	if len(candidates) == 0 {
		return []Recommendation{}, nil
	}

	pairs := make([]model.Pair, len(candidates))
	for i, movieID := range candidates {
		movieIndex, _ := s.items.Encode(movieID)
		pairs[i] = model.Pair{UserIndex: userIndex, MovieIndex: movieIndex}
	}

	scores, err := r.score(ctx, pairs)
	if err != nil {
		return nil, err
	}

	ranked := make([]scoredMovie, len(candidates))
	for i, movieID := range candidates {
		sc := float64(scores[i])
		if math.IsNaN(sc) || math.IsInf(sc, 0) {
			return nil, fmt.Errorf("%w: non-finite score for movie %d", ErrModelOutput, movieID)
		}
		ranked[i] = scoredMovie{movieIndex: pairs[i].MovieIndex, movieID: movieID, score: scores[i]}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].movieID < ranked[j].movieID
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}

	out := make([]Recommendation, 0, len(ranked))
	for _, sm := range ranked {
		movieID, ok := s.items.Decode(sm.movieIndex)
		if !ok {
			return nil, fmt.Errorf("%w: movie index %d has no decoding", ErrModelOutput, sm.movieIndex)
		}
		out = append(out, s.record(movieID))
	}
	return out, nil
}

func (r *Recommender) score(ctx context.Context, pairs []model.Pair) ([]float32, error) {
	ctx, span := observability.Tracer().Start(ctx, "recommend.score",
		trace.WithAttributes(
			attribute.String("scorer", r.scorer.Name()),
			attribute.Int("pairs", len(pairs)),
		),
	)
	defer span.End()
	metrics := observability.Current()
	start := time.Now()

	scores, err := r.scorer.Score(ctx, pairs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObserveInference(r.scorer.Name(), "error", len(pairs), time.Since(start))
		metrics.IncInferenceError(r.scorer.Name(), "call")
		return nil, fmt.Errorf("score %d pairs with %s: %w", len(pairs), r.scorer.Name(), err)
	}
	metrics.ObserveInference(r.scorer.Name(), "ok", len(pairs), time.Since(start))
	if len(scores) != len(pairs) {
		metrics.IncInferenceError(r.scorer.Name(), "length")
		return nil, fmt.Errorf("%w: %d scores for %d pairs", ErrModelOutput, len(scores), len(pairs))
	}
	return scores, nil
}
