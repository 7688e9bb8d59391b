package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	types "github.com/yungbote/movierec-backend/internal/domain"
	pkgerrors "github.com/yungbote/movierec-backend/internal/pkg/errors"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/pkg/validation"
)

type CreateRatingInput struct {
	UserID      *int     `json:"userId" validate:"required"`
	MovieID     *int     `json:"movieId" validate:"required"`
	Rating      *float64 `json:"rating" validate:"required,gte=0,lte=5"`
	IsFavorited *bool    `json:"isFavorited"`
	IsWatched   *bool    `json:"isWatched"`
}

// UpdateRatingInput targets the (path user, MovieID) pair. Nil fields are
// left unchanged; an explicit false is written.
type UpdateRatingInput struct {
	MovieID     *int     `json:"movieId" validate:"required"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	IsFavorited *bool    `json:"isFavorited"`
	IsWatched   *bool    `json:"isWatched"`
}

type RatingService interface {
	List(ctx context.Context) ([]*types.Rating, error)
	ListByUser(ctx context.Context, userID int) ([]*types.Rating, error)
	Create(ctx context.Context, in CreateRatingInput) (*types.Rating, error)
	Update(ctx context.Context, userID int, in UpdateRatingInput) (*types.Rating, error)
	DeleteByUser(ctx context.Context, userID int) (int64, error)
}

type ratingService struct {
	db         *gorm.DB
	log        *logger.Logger
	ratingRepo repos.RatingRepo
	userRepo   repos.UserRepo
	movieRepo  repos.MovieRepo
	changes    ChangeNotifier
}

func NewRatingService(db *gorm.DB, log *logger.Logger, ratingRepo repos.RatingRepo, userRepo repos.UserRepo, movieRepo repos.MovieRepo, changes ChangeNotifier) RatingService {
	return &ratingService{
		db:         db,
		log:        log.With("service", "RatingService"),
		ratingRepo: ratingRepo,
		userRepo:   userRepo,
		movieRepo:  movieRepo,
		changes:    orNop(changes),
	}
}

func (rs *ratingService) List(ctx context.Context) ([]*types.Rating, error) {
	return rs.ratingRepo.ListAll(dbctx.Context{Ctx: ctx})
}

// ListByUser reports ErrNotFound when the user has no ratings.
func (rs *ratingService) ListByUser(ctx context.Context, userID int) ([]*types.Rating, error) {
	out, err := rs.ratingRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("ratings for user %d: %w", userID, pkgerrors.ErrNotFound)
	}
	return out, nil
}

func (rs *ratingService) Create(ctx context.Context, in CreateRatingInput) (*types.Rating, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	r := &types.Rating{
		UserID:    *in.UserID,
		MovieID:   *in.MovieID,
		Rating:    *in.Rating,
		IsWatched: true,
	}
	if in.IsFavorited != nil {
		r.IsFavorited = *in.IsFavorited
	}
	if in.IsWatched != nil {
		r.IsWatched = *in.IsWatched
	}

	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := rs.userRepo.GetByID(dbc, r.UserID)
		if err != nil {
			return err
		}
		if u == nil {
			return fmt.Errorf("user %d: %w", r.UserID, pkgerrors.ErrNotFound)
		}
		m, err := rs.movieRepo.GetByID(dbc, r.MovieID)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("movie %d: %w", r.MovieID, pkgerrors.ErrNotFound)
		}
		_, err = rs.ratingRepo.Create(dbc, []*types.Rating{r})
		return err
	})
	if err != nil {
		return nil, err
	}
	rs.log.Debug("rating created", "user_id", r.UserID, "movie_id", r.MovieID)
	rs.changes.RatingsChanged(ctx, r.UserID, r.MovieID)
	return r, nil
}

func (rs *ratingService) Update(ctx context.Context, userID int, in UpdateRatingInput) (*types.Rating, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	movieID := *in.MovieID
	updates := map[string]any{}
	if in.Rating != nil {
		updates["rating"] = *in.Rating
	}
	if in.IsFavorited != nil {
		updates["is_favorited"] = *in.IsFavorited
	}
	if in.IsWatched != nil {
		updates["is_watched"] = *in.IsWatched
	}

	var out *types.Rating
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		cur, err := rs.ratingRepo.Get(dbc, userID, movieID)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("rating (%d, %d): %w", userID, movieID, pkgerrors.ErrNotFound)
		}
		if len(updates) > 0 {
			if err := rs.ratingRepo.Update(dbc, userID, movieID, updates); err != nil {
				return err
			}
		}
		out, err = rs.ratingRepo.Get(dbc, userID, movieID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		rs.changes.RatingsChanged(ctx, userID, movieID)
	}
	return out, nil
}

// DeleteByUser removes every rating of the user; ErrNotFound when there
// were none.
func (rs *ratingService) DeleteByUser(ctx context.Context, userID int) (int64, error) {
	n, err := rs.ratingRepo.DeleteByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("ratings for user %d: %w", userID, pkgerrors.ErrNotFound)
	}
	rs.log.Info("ratings deleted", "user_id", userID, "count", n)
	rs.changes.RatingsChanged(ctx, userID, 0)
	return n, nil
}
