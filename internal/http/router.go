package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/movierec-backend/internal/http/handlers"
	httpMW "github.com/yungbote/movierec-backend/internal/http/middleware"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	// AuthMiddleware guards write routes when set.
	AuthMiddleware *httpMW.AuthMiddleware
	// RateLimiter throttles the recommendation routes when set.
	RateLimiter *httpMW.RateLimiter

	HealthHandler         *httpH.HealthHandler
	AuthHandler           *httpH.AuthHandler
	UserHandler           *httpH.UserHandler
	RatingHandler         *httpH.RatingHandler
	MovieHandler          *httpH.MovieHandler
	RecommendationHandler *httpH.RecommendationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	write := []gin.HandlerFunc{}
	if cfg.AuthMiddleware != nil {
		write = append(write, cfg.AuthMiddleware.RequireAuth())
	}
	limited := []gin.HandlerFunc{}
	if cfg.RateLimiter != nil {
		limited = append(limited, cfg.RateLimiter.Limit())
	}
	admin := make([]gin.HandlerFunc, 0, len(write)+len(limited))
	admin = append(append(admin, write...), limited...)
	with := func(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
		out := make([]gin.HandlerFunc, 0, len(mw)+1)
		return append(append(out, mw...), h)
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/", cfg.HealthHandler.Index)
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
		r.GET("/metrics", cfg.HealthHandler.Metrics)
	}

	api := r.Group("/api")

	// Auth
	if cfg.AuthHandler != nil {
		api.POST("/login", cfg.AuthHandler.Login)
	}

	// Users
	if cfg.UserHandler != nil {
		api.GET("/users", cfg.UserHandler.List)
		api.POST("/users", cfg.UserHandler.Create)
		api.GET("/users/:id", cfg.UserHandler.Get)
		api.PUT("/users/:id", with(write, cfg.UserHandler.Update)...)
		api.DELETE("/users/:id", with(write, cfg.UserHandler.Delete)...)
		api.GET("/users/:id/recommendations/history", cfg.UserHandler.RecommendationHistory)
	}

	// Ratings
	if cfg.RatingHandler != nil {
		api.GET("/user_movies", cfg.RatingHandler.List)
		api.GET("/user_movies/:userId", cfg.RatingHandler.ListByUser)
		api.POST("/user_movies", with(write, cfg.RatingHandler.Create)...)
		api.PUT("/user_movies/:userId", with(write, cfg.RatingHandler.Update)...)
		api.DELETE("/user_movies/:userId", with(write, cfg.RatingHandler.DeleteByUser)...)
	}

	// Movies
	if cfg.MovieHandler != nil {
		api.GET("/movies", cfg.MovieHandler.TopRated)
		api.GET("/movies/genre/:genre", cfg.MovieHandler.TopRatedByGenre)
		api.GET("/movies/:id", cfg.MovieHandler.Get)
		api.GET("/movies/:id/similar", with(limited, cfg.MovieHandler.Similar)...)
		api.POST("/movies", with(write, cfg.MovieHandler.Create)...)

		r.GET("/movies", cfg.MovieHandler.TopRated)
		r.GET("/movies/:genre", cfg.MovieHandler.TopRatedByGenre)
	}

	// Recommendations
	if cfg.RecommendationHandler != nil {
		api.POST("/recommendations/new-user", with(limited, cfg.RecommendationHandler.NewUser)...)
		api.POST("/recommendations/user", with(limited, cfg.RecommendationHandler.KnownUser)...)
		api.POST("/admin/reload", with(admin, cfg.RecommendationHandler.Reload)...)
		api.GET("/admin/snapshot", cfg.RecommendationHandler.Status)

		r.POST("/predict_new_user", with(limited, cfg.RecommendationHandler.NewUser)...)
		r.POST("/predict", with(limited, cfg.RecommendationHandler.KnownUser)...)
	}

	return r
}
