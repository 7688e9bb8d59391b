package recommend

import (
	"github.com/yungbote/movierec-backend/internal/model"
)

type Options struct {
	DefaultTopN int
	ListingTopN int
	// QualityFloor is the strict lower bound on mean rating for genre
	// recommendations.
	QualityFloor float64
	// Damping is the pseudo-count in the weighted rating.
	Damping float64
}

func DefaultOptions() Options {
	return Options{
		DefaultTopN:  10,
		ListingTopN:  20,
		QualityFloor: 4.0,
		Damping:      1000,
	}
}

// Recommender runs the recommendation algorithms against a snapshot handed
// in by the caller. It holds no per-request state and is safe for
// concurrent use.
type Recommender struct {
	opts   Options
	scorer model.Scorer
}

// New returns a recommender. scorer may be nil, in which case the
// personalized path reports ErrModelUnavailable.
func New(scorer model.Scorer, opts Options) *Recommender {
	def := DefaultOptions()
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = def.DefaultTopN
	}
	if opts.ListingTopN <= 0 {
		opts.ListingTopN = def.ListingTopN
	}
	return &Recommender{opts: opts, scorer: scorer}
}

func (r *Recommender) Options() Options { return r.opts }

func (r *Recommender) HasModel() bool { return r.scorer != nil }

func limit(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
