package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/data/repos"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type Repos struct {
	Movie             repos.MovieRepo
	User              repos.UserRepo
	Rating            repos.RatingRepo
	RecommendationLog repos.RecommendationLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Movie:             repos.NewMovieRepo(db, log),
		User:              repos.NewUserRepo(db, log),
		Rating:            repos.NewRatingRepo(db, log),
		RecommendationLog: repos.NewRecommendationLogRepo(db, log),
	}
}
