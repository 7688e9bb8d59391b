package recommend

import (
	"strings"

	types "github.com/yungbote/movierec-backend/internal/domain"
)

// SplitGenres tokenizes a raw genre string. Both '|' and ',' delimit tags;
// tags are trimmed, empties dropped and repeats (case-insensitive) removed.
func SplitGenres(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == '|' || r == ',' })
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// GenreIndex is the fixed column set of the indicator matrix. Columns keep
// first-seen order and the spelling of their first occurrence; lookups are
// case-insensitive.
type GenreIndex struct {
	names []string
	cols  map[string]int
}

func newGenreIndex() *GenreIndex {
	return &GenreIndex{cols: map[string]int{}}
}

func (g *GenreIndex) add(name string) int {
	key := strings.ToLower(name)
	if c, ok := g.cols[key]; ok {
		return c
	}
	c := len(g.names)
	g.cols[key] = c
	g.names = append(g.names, name)
	return c
}

func (g *GenreIndex) Column(name string) (int, bool) {
	c, ok := g.cols[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

func (g *GenreIndex) Len() int { return len(g.names) }

func (g *GenreIndex) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

type MovieStats struct {
	Count int
	Mean  float64
}

// FeatureRow is one rating joined with its movie's genre indicator row and
// the movie's rating count.
type FeatureRow struct {
	UserID       int
	MovieID      int
	Rating       float64
	RatingsCount int
	// Genres aliases the movie's indicator row; treat as read-only.
	Genres []float64
}

type Features struct {
	Genres     *GenreIndex
	Indicators map[int][]float64
	Rows       []FeatureRow
	Stats      map[int]MovieStats
	Matrix     *UserItemMatrix
}

// BuildFeatures derives every table the recommenders read. Ratings whose
// movie is missing from the catalog are dropped, as an inner join would.
func BuildFeatures(movies []*types.Movie, ratings []*types.Rating) *Features {
	genres := newGenreIndex()
	tokens := make(map[int][]int, len(movies))
	for _, m := range movies {
		if m == nil {
			continue
		}
		tags := SplitGenres(m.MovieGenre)
		cols := make([]int, 0, len(tags))
		for _, tag := range tags {
			cols = append(cols, genres.add(tag))
		}
		tokens[m.MovieID] = cols
	}

	width := genres.Len()
	indicators := make(map[int][]float64, len(tokens))
	for movieID, cols := range tokens {
		row := make([]float64, width)
		for _, c := range cols {
			row[c] = 1
		}
		indicators[movieID] = row
	}

	joined := make([]*types.Rating, 0, len(ratings))
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range ratings {
		if r == nil {
			continue
		}
		if _, ok := indicators[r.MovieID]; !ok {
			continue
		}
		joined = append(joined, r)
		sums[r.MovieID] += r.Rating
		counts[r.MovieID]++
	}

	stats := make(map[int]MovieStats, len(counts))
	for movieID, n := range counts {
		stats[movieID] = MovieStats{Count: n, Mean: sums[movieID] / float64(n)}
	}

	rows := make([]FeatureRow, 0, len(joined))
	for _, r := range joined {
		rows = append(rows, FeatureRow{
			UserID:       r.UserID,
			MovieID:      r.MovieID,
			Rating:       r.Rating,
			RatingsCount: counts[r.MovieID],
			Genres:       indicators[r.MovieID],
		})
	}

	return &Features{
		Genres:     genres,
		Indicators: indicators,
		Rows:       rows,
		Stats:      stats,
		Matrix:     newUserItemMatrix(rows),
	}
}

// WeightedRating damps a mean toward zero for movies with few ratings:
// count*mean/(count+damping).
func WeightedRating(count int, mean, damping float64) float64 {
	n := float64(count)
	if n+damping == 0 {
		return 0
	}
	return n * mean / (n + damping)
}
