package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/pkg/validation"
)

type CreateMovieInput struct {
	MovieID    int    `json:"movieId" validate:"min=0"`
	MovieTitle string `json:"movieTitle" validate:"required,max=300"`
	MovieGenre string `json:"movieGenre" validate:"max=300"`
	MovieImage string `json:"movieImage" validate:"max=300"`
}

type MovieService interface {
	Get(ctx context.Context, movieID int) (*types.Movie, error)
	Create(ctx context.Context, in CreateMovieInput) (*types.Movie, error)
}

type movieService struct {
	log       *logger.Logger
	movieRepo repos.MovieRepo
	changes   ChangeNotifier
}

func NewMovieService(log *logger.Logger, movieRepo repos.MovieRepo, changes ChangeNotifier) MovieService {
	return &movieService{
		log:       log.With("service", "MovieService"),
		movieRepo: movieRepo,
		changes:   orNop(changes),
	}
}

func (ms *movieService) Get(ctx context.Context, movieID int) (*types.Movie, error) {
	m, err := ms.movieRepo.GetByID(dbctx.Context{Ctx: ctx}, movieID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("movie %d: %w", movieID, pkgerrors.ErrNotFound)
	}
	return m, nil
}

// Create adds a catalog entry. MovieID 0 lets the database assign one; an
// explicit id that already exists is a conflict.
func (ms *movieService) Create(ctx context.Context, in CreateMovieInput) (*types.Movie, error) {
	in.MovieTitle = strings.TrimSpace(in.MovieTitle)
	in.MovieGenre = strings.TrimSpace(in.MovieGenre)
	in.MovieImage = strings.TrimSpace(in.MovieImage)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	out, err := ms.movieRepo.Create(dbctx.Context{Ctx: ctx}, []*types.Movie{{
		MovieID:    in.MovieID,
		MovieTitle: in.MovieTitle,
		MovieGenre: in.MovieGenre,
		MovieImage: in.MovieImage,
	}})
	if err != nil {
		return nil, err
	}
	m := out[0]
	ms.log.Info("movie created", "movie_id", m.MovieID)
	ms.changes.CatalogChanged(ctx, m.MovieID)
	return m, nil
}
