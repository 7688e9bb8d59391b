package recommend

import "strings"

// TopRated lists rated movies by mean rating, highest first.
func (r *Recommender) TopRated(s *Snapshot, n int) []Recommendation {
	return r.listing(s, "", n)
}

// TopRatedByGenre is TopRated restricted to movies whose raw genre string
// contains genre, ignoring case.
func (r *Recommender) TopRatedByGenre(s *Snapshot, genre string, n int) []Recommendation {
	return r.listing(s, genre, n)
}

func (r *Recommender) listing(s *Snapshot, genre string, n int) []Recommendation {
	n = limit(n, r.opts.ListingTopN)
	needle := strings.ToLower(genre)
	out := make([]Recommendation, 0, n)
	for _, movieID := range s.ranked {
		if len(out) == n {
			break
		}
		if needle != "" && !strings.Contains(strings.ToLower(s.movies[movieID].MovieGenre), needle) {
			continue
		}
		out = append(out, s.record(movieID))
	}
	return out
}
