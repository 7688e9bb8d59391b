package rating

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/dberr"
	types "github.com/yungbote/movierec-backend/internal/domain"
	"github.com/yungbote/movierec-backend/internal/pkg/dbctx"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type RatingRepo interface {
	Create(dbc dbctx.Context, ratings []*types.Rating) ([]*types.Rating, error)
	Get(dbc dbctx.Context, userID, movieID int) (*types.Rating, error)
	ListAll(dbc dbctx.Context) ([]*types.Rating, error)
	ListByUser(dbc dbctx.Context, userID int) ([]*types.Rating, error)
	Update(dbc dbctx.Context, userID, movieID int, updates map[string]any) error
	DeleteByUser(dbc dbctx.Context, userID int) (int64, error)
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return &ratingRepo{db: db, log: baseLog.With("repo", "RatingRepo")}
}

// Create inserts new (user, movie) pairs. An existing pair surfaces as
// errors.ErrConflict.
func (r *ratingRepo) Create(dbc dbctx.Context, ratings []*types.Rating) ([]*types.Rating, error) {
	if len(ratings) == 0 {
		return []*types.Rating{}, nil
	}
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).Create(&ratings).Error; err != nil {
		return nil, dberr.Map("create ratings", err)
	}
	return ratings, nil
}

// Get returns nil, nil when the pair has no rating.
func (r *ratingRepo) Get(dbc dbctx.Context, userID, movieID int) (*types.Rating, error) {
	var out types.Rating
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Map("get rating", err)
	}
	return &out, nil
}

// ListAll returns every rating ordered by (user_id, movie_id). New ids get
// their encodings in this order, so it must stay stable.
func (r *ratingRepo) ListAll(dbc dbctx.Context) ([]*types.Rating, error) {
	var results []*types.Rating
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Order("user_id ASC").
		Order("movie_id ASC").
		Find(&results).Error; err != nil {
		return nil, dberr.Map("list ratings", err)
	}
	return results, nil
}

func (r *ratingRepo) ListByUser(dbc dbctx.Context, userID int) ([]*types.Rating, error) {
	var results []*types.Rating
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("movie_id ASC").
		Find(&results).Error; err != nil {
		return nil, dberr.Map("list user ratings", err)
	}
	return results, nil
}

func (r *ratingRepo) Update(dbc dbctx.Context, userID, movieID int, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Rating{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Updates(updates).Error
	return dberr.Map("update rating", err)
}

func (r *ratingRepo) DeleteByUser(dbc dbctx.Context, userID int) (int64, error) {
	res := dbc.DB(r.db).WithContext(dbc.Ctx).Where("user_id = ?", userID).Delete(&types.Rating{})
	if res.Error != nil {
		return 0, dberr.Map("delete user ratings", res.Error)
	}
	return res.RowsAffected, nil
}
