package catalog

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/dberr"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type MovieRepo interface {
	Create(dbc dbctx.Context, movies []*types.Movie) ([]*types.Movie, error)
	GetByID(dbc dbctx.Context, movieID int) (*types.Movie, error)
	GetByIDs(dbc dbctx.Context, movieIDs []int) ([]*types.Movie, error)
	List(dbc dbctx.Context) ([]*types.Movie, error)
}

type movieRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMovieRepo(db *gorm.DB, baseLog *logger.Logger) MovieRepo {
	return &movieRepo{db: db, log: baseLog.With("repo", "MovieRepo")}
}

func (r *movieRepo) Create(dbc dbctx.Context, movies []*types.Movie) ([]*types.Movie, error) {
	if len(movies) == 0 {
		return []*types.Movie{}, nil
	}
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).Create(&movies).Error; err != nil {
		return nil, dberr.Map("create movies", err)
	}
	return movies, nil
}

// GetByID returns nil, nil when the movie does not exist.
func (r *movieRepo) GetByID(dbc dbctx.Context, movieID int) (*types.Movie, error) {
	var out types.Movie
	err := dbc.DB(r.db).WithContext(dbc.Ctx).Where("movie_id = ?", movieID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Map("get movie", err)
	}
	return &out, nil
}

func (r *movieRepo) GetByIDs(dbc dbctx.Context, movieIDs []int) ([]*types.Movie, error) {
	var results []*types.Movie
	if len(movieIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("movie_id IN ?", movieIDs).
		Order("movie_id ASC").
		Find(&results).Error; err != nil {
		return nil, dberr.Map("get movies", err)
	}
	return results, nil
}

// List returns the full catalog ordered by movie id.
func (r *movieRepo) List(dbc dbctx.Context) ([]*types.Movie, error) {
	var results []*types.Movie
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).Order("movie_id ASC").Find(&results).Error; err != nil {
		return nil, dberr.Map("list movies", err)
	}
	return results, nil
}
