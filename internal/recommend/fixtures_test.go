package recommend

import (
	"context"
	"sync"
	"testing"

	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/model"
)

func movie(id int, title, genre string) *types.Movie {
	return &types.Movie{MovieID: id, MovieTitle: title, MovieGenre: genre, MovieImage: title + ".jpg"}
}

func rating(userID, movieID int, r float64) *types.Rating {
	return &types.Rating{UserID: userID, MovieID: movieID, Rating: r, IsWatched: true}
}

func mustBuild(t *testing.T, in BuildInput, opts BuildOptions) *Snapshot {
	t.Helper()
	s, err := Build(context.Background(), 1, in, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

// scenarioInput: movie 1 mean 4.5, movie 2 mean 3.0, movie 3 mean 4.2.
func scenarioInput() BuildInput {
	return BuildInput{
		Movies: []*types.Movie{
			movie(1, "One", "Action"),
			movie(2, "Two", "Comedy"),
			movie(3, "Three", "Action,Comedy"),
		},
		Ratings: []*types.Rating{
			rating(10, 1, 4), rating(10, 2, 3), rating(10, 3, 4),
			rating(11, 1, 5), rating(11, 2, 3), rating(11, 3, 4.4),
		},
	}
}

type fakeScorer struct {
	mu     sync.Mutex
	calls  int
	pairs  [][]model.Pair
	scoreF func(p model.Pair) float32
	err    error
	trim   int
}

func (f *fakeScorer) Name() string { return "fake" }

func (f *fakeScorer) Score(_ context.Context, pairs []model.Pair) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.pairs = append(f.pairs, append([]model.Pair(nil), pairs...))
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float32, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, f.scoreF(p))
	}
	if f.trim > 0 && len(out) >= f.trim {
		out = out[:len(out)-f.trim]
	}
	return out, nil
}
