package app

import (
	"github.com/yungbote/movierec-backend/internal/config"
	httpserver "github.com/yungbote/movierec-backend/internal/http"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, cfg *config.Config, m *observability.Metrics, h Handlers, mw Middleware) httpserver.RouterConfig {
	return httpserver.RouterConfig{
		Log:                   log,
		ServiceName:           cfg.Telemetry.ServiceName,
		CORSOrigins:           cfg.Server.CORSOrigins,
		Metrics:               m,
		AuthMiddleware:        mw.Auth,
		RateLimiter:           mw.RateLimit,
		HealthHandler:         h.Health,
		AuthHandler:           h.Auth,
		UserHandler:           h.User,
		RatingHandler:         h.Rating,
		MovieHandler:          h.Movie,
		RecommendationHandler: h.Recommendation,
	}
}
