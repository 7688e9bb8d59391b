package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/movierec-backend/internal/clients/redis"
	"github.com/yungbote/movierec-backend/internal/config"
	"github.com/yungbote/movierec-backend/internal/model"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

type Clients struct {
	Redis  *goredis.Client
	Bus    redis.ChangeBus
	Cache  *redis.RecommendationCache
	Scorer model.Scorer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Redis
	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		bus, err := redis.NewChangeBus(rdb, cfg.Redis.Channel, log)
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init change bus: %w", err)
		}
		out.Redis = rdb
		out.Bus = bus
		out.Cache = redis.NewRecommendationCache(rdb, cfg.Redis.KeyPrefix, cfg.Redis.CacheTTL, log)
	} else {
		log.Info("redis disabled; recommendation cache and change bus off")
	}

	// Model
	remote := cfg.Model.Remote
	scorer, err := model.New(ctx, model.Options{
		Kind:         cfg.Model.Kind,
		ManifestPath: cfg.Model.ManifestPath,
		Storage: model.StorageOptions{
			CredentialsFile: cfg.Storage.CredentialsFile,
			EmulatorHost:    cfg.Storage.EmulatorHost,
		},
		Remote: model.RemoteOptions{
			BaseURL:    remote.BaseURL,
			Name:       remote.Name,
			APIKey:     remote.APIKey,
			Timeout:    remote.Timeout,
			MaxRetries: remote.MaxRetries,
			BatchSize:  remote.BatchSize,
			Breaker: model.BreakerOptions{
				MaxRequests:      remote.Breaker.MaxRequests,
				Interval:         remote.Breaker.Interval,
				Timeout:          remote.Breaker.Timeout,
				FailureThreshold: remote.Breaker.FailureThreshold,
			},
		},
	}, log)
	if err != nil {
		if out.Redis != nil {
			_ = out.Redis.Close()
		}
		return Clients{}, fmt.Errorf("init scoring model: %w", err)
	}
	out.Scorer = scorer
	return out, nil
}
