package model

import (
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-json"
)

// Weights are the trained RecommenderNet tables.
type Weights struct {
	UserEmbedding  [][]float32 `json:"user_embedding"`
	UserBias       []float32   `json:"user_bias"`
	MovieEmbedding [][]float32 `json:"movie_embedding"`
	MovieBias      []float32   `json:"movie_bias"`
}

func (w *Weights) validate(dim int) error {
	if len(w.UserEmbedding) == 0 || len(w.MovieEmbedding) == 0 {
		return fmt.Errorf("weights: empty embedding table")
	}
	if len(w.UserBias) != len(w.UserEmbedding) {
		return fmt.Errorf("weights: %d user biases for %d users", len(w.UserBias), len(w.UserEmbedding))
	}
	if len(w.MovieBias) != len(w.MovieEmbedding) {
		return fmt.Errorf("weights: %d movie biases for %d movies", len(w.MovieBias), len(w.MovieEmbedding))
	}
	for i, row := range w.UserEmbedding {
		if len(row) != dim {
			return fmt.Errorf("weights: user row %d has dim %d, want %d", i, len(row), dim)
		}
	}
	for i, row := range w.MovieEmbedding {
		if len(row) != dim {
			return fmt.Errorf("weights: movie row %d has dim %d, want %d", i, len(row), dim)
		}
	}
	return nil
}

// EmbeddingScorer evaluates RecommenderNet in process:
// sigmoid(dot(user, movie) + userBias + movieBias).
type EmbeddingScorer struct {
	name     string
	w        *Weights
	userIDs  []int
	movieIDs []int
}

func NewEmbeddingScorer(m *Manifest, w *Weights) (*EmbeddingScorer, error) {
	if err := w.validate(m.EmbeddingDim); err != nil {
		return nil, err
	}
	if len(m.UserIDs) > 0 && len(m.UserIDs) != len(w.UserEmbedding) {
		return nil, fmt.Errorf("manifest lists %d users, weights have %d rows", len(m.UserIDs), len(w.UserEmbedding))
	}
	if len(m.MovieIDs) > 0 && len(m.MovieIDs) != len(w.MovieEmbedding) {
		return nil, fmt.Errorf("manifest lists %d movies, weights have %d rows", len(m.MovieIDs), len(w.MovieEmbedding))
	}
	return &EmbeddingScorer{name: m.Name, w: w, userIDs: m.UserIDs, movieIDs: m.MovieIDs}, nil
}

// LoadEmbeddingScorer reads the manifest at uri and the weights it points to.
func LoadEmbeddingScorer(ctx context.Context, store *ArtifactStore, uri string) (*EmbeddingScorer, error) {
	m, err := LoadManifest(ctx, store, uri)
	if err != nil {
		return nil, err
	}
	raw, err := store.ReadAll(ctx, m.Weights)
	if err != nil {
		return nil, err
	}
	var w Weights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode weights %s: %w", m.Weights, err)
	}
	return NewEmbeddingScorer(m, &w)
}

func (e *EmbeddingScorer) Name() string { return e.name }

func (e *EmbeddingScorer) UserIDs() []int  { return e.userIDs }
func (e *EmbeddingScorer) MovieIDs() []int { return e.movieIDs }

// HasVocabulary reports whether the manifest carried id lists.
func (e *EmbeddingScorer) HasVocabulary() bool {
	return len(e.userIDs) > 0 && len(e.movieIDs) > 0
}

func (e *EmbeddingScorer) Score(ctx context.Context, pairs []Pair) ([]float32, error) {
	out := make([]float32, len(pairs))
	for i, p := range pairs {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if p.UserIndex < 0 || p.UserIndex >= len(e.w.UserEmbedding) {
			return nil, fmt.Errorf("%w: user index %d outside embedding table of %d", ErrUnavailable, p.UserIndex, len(e.w.UserEmbedding))
		}
		if p.MovieIndex < 0 || p.MovieIndex >= len(e.w.MovieEmbedding) {
			return nil, fmt.Errorf("%w: movie index %d outside embedding table of %d", ErrUnavailable, p.MovieIndex, len(e.w.MovieEmbedding))
		}
		u := e.w.UserEmbedding[p.UserIndex]
		m := e.w.MovieEmbedding[p.MovieIndex]
		var dot float64
		for k := range u {
			dot += float64(u[k]) * float64(m[k])
		}
		x := dot + float64(e.w.UserBias[p.UserIndex]) + float64(e.w.MovieBias[p.MovieIndex])
		out[i] = float32(1 / (1 + math.Exp(-x)))
	}
	return out, nil
}
