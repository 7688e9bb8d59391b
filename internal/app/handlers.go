package app

import (
	httpH "github.com/yungbote/movierec-backend/internal/http/handlers"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/recommend"
)

type Handlers struct {
	Health         *httpH.HealthHandler
	Auth           *httpH.AuthHandler
	User           *httpH.UserHandler
	Rating         *httpH.RatingHandler
	Movie          *httpH.MovieHandler
	Recommendation *httpH.RecommendationHandler
}

func wireHandlers(log *logger.Logger, s Services, holder *recommend.SnapshotHolder, m *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(holder, m.Handler()),
		Auth:           httpH.NewAuthHandler(s.Auth),
		User:           httpH.NewUserHandler(s.User, s.Recommendation),
		Rating:         httpH.NewRatingHandler(s.Rating),
		Movie:          httpH.NewMovieHandler(s.Movie, s.Recommendation),
		Recommendation: httpH.NewRecommendationHandler(log, s.Recommendation),
	}
}
