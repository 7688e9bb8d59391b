package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/config"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/recommend"
	"github.com/yungbote/movierec-backend/internal/services"
)

type Services struct {
	Notifier       services.ChangeNotifier
	Auth           services.AuthService
	User           services.UserService
	Rating         services.RatingService
	Movie          services.MovieService
	Recommendation services.RecommendationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg *config.Config, r Repos, c Clients) (Services, *recommend.SnapshotHolder) {
	log.Info("Wiring services...")
	rc := cfg.Recommend

	holder := recommend.NewSnapshotHolder(
		services.NewSnapshotSource(r.Movie, r.Rating, c.Scorer),
		recommend.BuildOptions{
			EagerSimilarity:     rc.EagerSimilarity,
			SimilarityNeighbors: rc.SimilarityNeighbors,
			SimilarityWorkers:   rc.SimilarityWorkers,
		},
		log,
	)
	rec := recommend.New(c.Scorer, recommend.Options{
		DefaultTopN:  rc.DefaultTopN,
		ListingTopN:  rc.ListingTopN,
		QualityFloor: rc.QualityFloor,
		Damping:      rc.Damping,
	})

	notifier := services.NewChangeNotifier(log, c.Bus, services.ReloaderFunc(func(ctx context.Context) error {
		_, err := holder.Reload(ctx)
		return err
	}), services.ChangeNotifierOptions{RefreshOnWrite: rc.RefreshOnWrite})

	return Services{
		Notifier: notifier,
		Auth:     services.NewAuthService(log, r.User, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		User:     services.NewUserService(db, log, r.User, r.Rating, notifier),
		Rating:   services.NewRatingService(db, log, r.Rating, r.User, r.Movie, notifier),
		Movie:    services.NewMovieService(log, r.Movie, notifier),
		Recommendation: services.NewRecommendationService(log, holder, rec, c.Cache, r.User, r.RecommendationLog, services.RecommendationOptions{
			MaxTopN:                rc.MaxTopN,
			MaxConcurrentInference: rc.MaxConcurrentInference,
			HistoryEnabled:         rc.HistoryEnabled,
		}),
	}, holder
}
