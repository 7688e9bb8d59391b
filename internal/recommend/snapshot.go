package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	types "github.com/yungbote/movierec-backend/internal/domain"
)

// BuildInput is everything a snapshot is derived from.
type BuildInput struct {
	Movies  []*types.Movie
	Ratings []*types.Rating
	// UserIDs and MovieIDs, when set, are the model's training-time
	// vocabularies and replace the encodings derived from Ratings.
	UserIDs  []int
	MovieIDs []int
}

type BuildOptions struct {
	EagerSimilarity     bool
	SimilarityNeighbors int
	SimilarityWorkers   int
}

// Snapshot is an immutable view of the catalog, rating aggregates, encodings
// and similarity table. Nothing mutates it after Build returns.
type Snapshot struct {
	Version int64
	BuiltAt time.Time

	features *Features
	movies   map[int]types.Movie
	movieIDs []int
	users    *Encoder
	items    *Encoder
	rated    map[int]map[int]struct{}
	similar  map[int][]Neighbor
	ranked   []int
	ratings  int
}

// Build derives a snapshot. Encodings follow first appearance in Ratings,
// which callers supply ordered by (user_id, movie_id).
func Build(ctx context.Context, version int64, in BuildInput, opts BuildOptions) (*Snapshot, error) {
	features := BuildFeatures(in.Movies, in.Ratings)

	movies := make(map[int]types.Movie, len(in.Movies))
	movieIDs := make([]int, 0, len(in.Movies))
	for _, m := range in.Movies {
		if m == nil {
			continue
		}
		if _, dup := movies[m.MovieID]; !dup {
			movieIDs = append(movieIDs, m.MovieID)
		}
		movies[m.MovieID] = *m
	}
	sort.Ints(movieIDs)

	rated := map[int]map[int]struct{}{}
	userOrder := make([]int, 0)
	movieOrder := make([]int, 0)
	for _, r := range in.Ratings {
		if r == nil {
			continue
		}
		set, ok := rated[r.UserID]
		if !ok {
			set = map[int]struct{}{}
			rated[r.UserID] = set
		}
		set[r.MovieID] = struct{}{}
		userOrder = append(userOrder, r.UserID)
		movieOrder = append(movieOrder, r.MovieID)
	}
	if len(in.UserIDs) > 0 {
		userOrder = in.UserIDs
	}
	if len(in.MovieIDs) > 0 {
		movieOrder = in.MovieIDs
	}

	s := &Snapshot{
		Version:  version,
		BuiltAt:  time.Now().UTC(),
		features: features,
		movies:   movies,
		movieIDs: movieIDs,
		users:    NewEncoder(userOrder),
		items:    NewEncoder(movieOrder),
		rated:    rated,
		ranked:   rankByMean(features.Stats, movies),
		ratings:  len(features.Rows),
	}

	if opts.EagerSimilarity {
		sim, err := ComputeSimilarities(ctx, features.Matrix, opts.SimilarityNeighbors, opts.SimilarityWorkers)
		if err != nil {
			return nil, fmt.Errorf("compute similarities: %w", err)
		}
		s.similar = sim
	}
	return s, nil
}

// rankByMean orders rated catalog movies by numeric mean desc, id asc.
func rankByMean(stats map[int]MovieStats, movies map[int]types.Movie) []int {
	out := make([]int, 0, len(stats))
	for id := range stats {
		if _, ok := movies[id]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		mi, mj := stats[out[i]].Mean, stats[out[j]].Mean
		if mi != mj {
			return mi > mj
		}
		return out[i] < out[j]
	})
	return out
}

func (s *Snapshot) Features() *Features { return s.features }
func (s *Snapshot) UserEncoder() *Encoder { return s.users }
func (s *Snapshot) MovieEncoder() *Encoder { return s.items }

func (s *Snapshot) MovieCount() int { return len(s.movieIDs) }
func (s *Snapshot) RatingCount() int { return s.ratings }

func (s *Snapshot) Movie(movieID int) (types.Movie, bool) {
	m, ok := s.movies[movieID]
	return m, ok
}

func (s *Snapshot) Stats(movieID int) (MovieStats, bool) {
	st, ok := s.features.Stats[movieID]
	return st, ok
}

// HasRatings reports whether the user had any rating at build time. An
// encoding can outlive a user's ratings, so this is checked separately.
func (s *Snapshot) HasRatings(userID int) bool {
	return len(s.rated[userID]) > 0
}

// HasRated reports whether the user had rated the movie at build time.
func (s *Snapshot) HasRated(userID, movieID int) bool {
	_, ok := s.rated[userID][movieID]
	return ok
}

// Record renders a catalog movie with its mean rating.
func (s *Snapshot) Record(movieID int) (Recommendation, bool) {
	if _, ok := s.movies[movieID]; !ok {
		return Recommendation{}, false
	}
	return s.record(movieID), true
}

func (s *Snapshot) record(movieID int) Recommendation {
	m := s.movies[movieID]
	return Recommendation{
		MovieID:    m.MovieID,
		MovieTitle: m.MovieTitle,
		MovieGenre: m.MovieGenre,
		MeanRating: MeanRating(s.features.Stats[movieID].Mean),
		MovieImage: m.MovieImage,
	}
}

// SimilarMovies returns up to n movies most similar to movieID by rating
// pattern. The precomputed table is used when present.
func (s *Snapshot) SimilarMovies(movieID, n int) ([]Neighbor, bool) {
	if _, ok := s.movies[movieID]; !ok {
		return nil, false
	}
	var ns []Neighbor
	if s.similar != nil {
		ns = s.similar[movieID]
	} else {
		ns = s.features.Matrix.Neighbors(movieID, n)
	}
	if n > 0 && len(ns) > n {
		ns = ns[:n]
	}
	out := make([]Neighbor, len(ns))
	copy(out, ns)
	return out, true
}
