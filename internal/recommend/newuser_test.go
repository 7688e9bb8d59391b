package recommend

import (
	"math/rand"
	"testing"

	types "github.com/yungbote/movierec-backend/internal/domain"
)

func TestRecommendForGenresScenario(t *testing.T) {
	s := mustBuild(t, scenarioInput(), BuildOptions{})
	r := New(nil, DefaultOptions())

	got := r.RecommendForGenres(s, "Action", 10)
	if len(got) != 2 {
		t.Fatalf("expected movies 1 and 3, got %+v", got)
	}
	// Centroid over {1,3} is (1, 0.5): movie 3 is closer than movie 1.
	if got[0].MovieID != 3 || got[1].MovieID != 1 {
		t.Fatalf("unexpected order %+v", got)
	}
	for _, rec := range got {
		if rec.MovieID == 2 {
			t.Fatalf("movie 2 is below the floor and must never appear")
		}
	}
	if got[1].MeanRating.String() != "4.5" || got[0].MeanRating.String() != "4.2" {
		t.Fatalf("unexpected mean ratings %+v", got)
	}
	if got[1].MovieTitle != "One" || got[1].MovieGenre != "Action" || got[1].MovieImage != "One.jpg" {
		t.Fatalf("record fields not joined from catalog: %+v", got[1])
	}
}

func TestRecommendForGenresUnknownTagIsEmpty(t *testing.T) {
	s := mustBuild(t, scenarioInput(), BuildOptions{})
	r := New(nil, DefaultOptions())
	for _, q := range []string{"Western", "", " , ", "Horror,Musical"} {
		got := r.RecommendForGenres(s, q, 10)
		if got == nil || len(got) != 0 {
			t.Fatalf("query %q: expected empty non-nil slice, got %#v", q, got)
		}
	}
}

func TestRecommendForGenresMultipleTagsAndCase(t *testing.T) {
	s := mustBuild(t, scenarioInput(), BuildOptions{})
	r := New(nil, DefaultOptions())
	got := r.RecommendForGenres(s, " comedy , ACTION", 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 results above floor, got %+v", got)
	}
	// Centroid over {1,2,3} is (2/3, 2/3): movie 3 matches exactly.
	if got[0].MovieID != 3 {
		t.Fatalf("expected movie 3 first, got %+v", got)
	}
}

func TestRecommendForGenresFloorIsStrict(t *testing.T) {
	in := BuildInput{
		Movies:  []*types.Movie{movie(1, "Exactly", "Drama"), movie(2, "Above", "Drama")},
		Ratings: []*types.Rating{rating(1, 1, 4), rating(1, 2, 4.5)},
	}
	s := mustBuild(t, in, BuildOptions{})
	got := New(nil, DefaultOptions()).RecommendForGenres(s, "Drama", 10)
	if len(got) != 1 || got[0].MovieID != 2 {
		t.Fatalf("a mean of exactly 4.0 must be excluded, got %+v", got)
	}
}

func TestRecommendForGenresTieBreaksOnWeightedRating(t *testing.T) {
	// Same genres, so identical similarity; more ratings wins.
	in := BuildInput{
		Movies: []*types.Movie{movie(1, "Few", "Drama"), movie(2, "Many", "Drama")},
		Ratings: []*types.Rating{
			rating(1, 1, 5),
			rating(1, 2, 5), rating(2, 2, 5), rating(3, 2, 5),
		},
	}
	s := mustBuild(t, in, BuildOptions{})
	got := New(nil, DefaultOptions()).RecommendForGenres(s, "Drama", 10)
	if len(got) != 2 || got[0].MovieID != 2 {
		t.Fatalf("expected the higher weighted rating first, got %+v", got)
	}
}

func TestRecommendForGenresTopNAndNoPadding(t *testing.T) {
	s := mustBuild(t, scenarioInput(), BuildOptions{})
	r := New(nil, DefaultOptions())
	if got := r.RecommendForGenres(s, "Action", 1); len(got) != 1 {
		t.Fatalf("expected 1 result, got %d", len(got))
	}
	if got := r.RecommendForGenres(s, "Comedy", 10); len(got) != 1 || got[0].MovieID != 3 {
		t.Fatalf("expected only movie 3 to pass the floor, got %+v", got)
	}
}

func TestRecommendForGenresNeverBelowFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	genres := []string{"Action", "Comedy", "Drama", "Horror", "Romance"}
	for round := 0; round < 20; round++ {
		var in BuildInput
		for id := 1; id <= 40; id++ {
			g := genres[rng.Intn(len(genres))]
			if rng.Intn(2) == 0 {
				g += "|" + genres[rng.Intn(len(genres))]
			}
			in.Movies = append(in.Movies, movie(id, "m", g))
			for u := 1; u <= 1+rng.Intn(6); u++ {
				in.Ratings = append(in.Ratings, rating(u, id, float64(1+rng.Intn(10))/2))
			}
		}
		s := mustBuild(t, in, BuildOptions{})
		r := New(nil, DefaultOptions())
		for _, q := range genres {
			for _, rec := range r.RecommendForGenres(s, q, 40) {
				if float64(rec.MeanRating) <= 4.0 {
					t.Fatalf("round %d query %s returned movie %d with mean %v", round, q, rec.MovieID, rec.MeanRating)
				}
			}
		}
	}
}
