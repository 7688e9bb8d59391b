package app

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/movierec-backend/internal/config"
	"github.com/yungbote/movierec-backend/internal/data/db"
	httpserver "github.com/yungbote/movierec-backend/internal/http"
	"github.com/yungbote/movierec-backend/internal/observability"
	"github.com/yungbote/movierec-backend/internal/pkg/logger"
	"github.com/yungbote/movierec-backend/internal/recommend"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	DB       *gorm.DB
	Redis    *goredis.Client
	Metrics  *observability.Metrics
	Holder   *recommend.SnapshotHolder
	Clients  Clients
	Repos    Repos
	Services Services
	Server   *httpserver.Server

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

// New builds the whole process from cfg. Nothing is served and no snapshot
// is loaded until Run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log, err := logger.NewWithOptions(logger.Options{
		Mode:     cfg.Log.Mode,
		Level:    cfg.Log.Level,
		Redact:   cfg.Log.Redact,
		HashSalt: cfg.Log.HashSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg}

	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:      cfg.Telemetry.Enabled,
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Env,
		Endpoint:     cfg.Telemetry.OTLPEndpoint,
		Headers:      cfg.Telemetry.OTLPHeaders,
		Insecure:     cfg.Telemetry.OTLPInsecure,
		SamplerRatio: cfg.Telemetry.SamplerRatio,
		Stdout:       cfg.Telemetry.Stdout,
	})
	a.Metrics = observability.Init(log)

	dbService, err := db.NewService(db.Options{
		Driver:        cfg.Database.Driver,
		DSN:           cfg.Database.DSN,
		MaxOpenConns:  cfg.Database.MaxOpenConns,
		SlowThreshold: cfg.Database.SlowThreshold,
	}, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init database: %w", err)
	}
	a.dbService = dbService
	a.DB = dbService.DB()
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrateAll(a.DB); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.Metrics.RegisterDBStats(log, a.DB, cfg.Database.Driver)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Clients = clients
	a.Redis = clients.Redis

	a.Repos = wireRepos(a.DB, log)
	a.Services, a.Holder = wireServices(a.DB, log, cfg, a.Repos, clients)

	handlers := wireHandlers(log, a.Services, a.Holder, a.Metrics)
	mw := wireMiddleware(log, cfg, a.Services)
	a.Server = httpserver.NewServer(log, wireRouter(log, cfg, a.Metrics, handlers, mw), httpserver.ServerOptions{
		Addr:              cfg.Server.Addr(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	})
	return a, nil
}

// Run serves HTTP and keeps the recommendation snapshot fresh until ctx is
// cancelled. The first snapshot loads in the background; /readyz reports
// when it is published.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Server.Run(ctx) })
	g.Go(func() error {
		if _, err := a.Holder.Reload(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Log.Error("initial snapshot load failed", "error", err)
		}
		a.Holder.RunRefresh(ctx, a.Cfg.Recommend.RefreshInterval)
		return nil
	})
	g.Go(func() error {
		err := a.Services.Notifier.Listen(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.Log.Warn("change listener stopped", "error", err)
		}
		return nil
	})
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Redis, 0)

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Clients.Bus != nil {
		_ = a.Clients.Bus.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.Server.ShutdownTimeout)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
