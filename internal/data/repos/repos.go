package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/repos/catalog"
	"github.com/yungbote/movierec-backend/internal/data/repos/history"
	"github.com/yungbote/movierec-backend/internal/data/repos/rating"
	"github.com/yungbote/movierec-backend/internal/data/repos/user"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type MovieRepo = catalog.MovieRepo
type UserRepo = user.UserRepo
type RatingRepo = rating.RatingRepo
type RecommendationLogRepo = history.RecommendationLogRepo

func NewMovieRepo(db *gorm.DB, baseLog *logger.Logger) MovieRepo {
	return catalog.NewMovieRepo(db, baseLog)
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return user.NewUserRepo(db, baseLog)
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return rating.NewRatingRepo(db, baseLog)
}

func NewRecommendationLogRepo(db *gorm.DB, baseLog *logger.Logger) RecommendationLogRepo {
	return history.NewRecommendationLogRepo(db, baseLog)
}
