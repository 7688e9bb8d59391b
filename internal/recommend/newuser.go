package recommend

import (
	"sort"
)

type genreCandidate struct {
	movieID    int
	similarity float64
	weighted   float64
	mean       float64
}

// RecommendForGenres ranks rated movies carrying any of the requested genre
// tags for a user with no history. The query vector is the centroid of the
// indicator rows of every catalog movie matching a requested tag. Unknown
// tags are ignored; no match yields an empty result.
func (r *Recommender) RecommendForGenres(s *Snapshot, genres string, topN int) []Recommendation {
	topN = limit(topN, r.opts.DefaultTopN)
	f := s.features

	cols := make([]int, 0)
	for _, tag := range SplitGenres(genres) {
		if c, ok := f.Genres.Column(tag); ok {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		return []Recommendation{}
	}

	selected := make([]int, 0)
	for _, movieID := range s.movieIDs {
		row := f.Indicators[movieID]
		for _, c := range cols {
			if row[c] == 1 {
				selected = append(selected, movieID)
				break
			}
		}
	}
	if len(selected) == 0 {
		return []Recommendation{}
	}

	centroid := make([]float64, f.Genres.Len())
	for _, movieID := range selected {
		for i, v := range f.Indicators[movieID] {
			centroid[i] += v
		}
	}
	for i := range centroid {
		centroid[i] /= float64(len(selected))
	}

	candidates := make([]genreCandidate, 0, len(selected))
	for _, movieID := range selected {
		st, ok := f.Stats[movieID]
		if !ok {
			continue
		}
		candidates = append(candidates, genreCandidate{
			movieID:    movieID,
			similarity: cosine(centroid, f.Indicators[movieID]),
			weighted:   WeightedRating(st.Count, st.Mean, r.opts.Damping),
			mean:       st.Mean,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.similarity != b.similarity {
			return a.similarity > b.similarity
		}
		if a.weighted != b.weighted {
			return a.weighted > b.weighted
		}
		return a.movieID < b.movieID
	})

	out := make([]Recommendation, 0, topN)
	for _, c := range candidates {
		if len(out) == topN {
			break
		}
		if !(c.mean > r.opts.QualityFloor) {
			continue
		}
		out = append(out, s.record(c.movieID))
	}
	return out
}
