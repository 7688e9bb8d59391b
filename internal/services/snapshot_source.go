package services

import (
	"context"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/model"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/recommend"
)

// NewSnapshotSource reads the catalog and every rating. When the scorer
// carries its training vocabulary, that vocabulary defines the encodings.
func NewSnapshotSource(movieRepo repos.MovieRepo, ratingRepo repos.RatingRepo, scorer model.Scorer) recommend.Source {
	return recommend.SourceFunc(func(ctx context.Context) (recommend.BuildInput, error) {
		dbc := dbctx.Context{Ctx: ctx}
		movies, err := movieRepo.List(dbc)
		if err != nil {
			return recommend.BuildInput{}, err
		}
		ratings, err := ratingRepo.ListAll(dbc)
		if err != nil {
			return recommend.BuildInput{}, err
		}
		in := recommend.BuildInput{Movies: movies, Ratings: ratings}
		if v, ok := scorer.(model.Vocabulary); ok && len(v.UserIDs()) > 0 && len(v.MovieIDs()) > 0 {
			in.UserIDs = v.UserIDs()
			in.MovieIDs = v.MovieIDs()
		}
		return in, nil
	})
}
