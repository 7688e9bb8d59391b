package app

import (
	"github.com/yungbote/movierec-backend/internal/config"
	httpMW "github.com/yungbote/movierec-backend/internal/http/middleware"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.RateLimiter
}

// wireMiddleware leaves a field nil when its feature is switched off; the
// router skips nil middleware.
func wireMiddleware(log *logger.Logger, cfg *config.Config, s Services) Middleware {
	log.Info("Wiring middleware...")
	var mw Middleware
	if cfg.Auth.Required {
		mw.Auth = httpMW.NewAuthMiddleware(log, s.Auth)
	}
	if cfg.RateLimit.Enabled {
		mw.RateLimit = httpMW.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return mw
}
