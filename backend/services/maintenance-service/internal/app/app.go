package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libdb "elevmaint/backend/libs/db"
	libredis "elevmaint/backend/libs/redis"
	"elevmaint/backend/services/maintenance-service/internal/config"
	httpserver "elevmaint/backend/services/maintenance-service/internal/http"
	"elevmaint/backend/services/maintenance-service/internal/http/handlers"
	"elevmaint/backend/services/maintenance-service/internal/http/middleware"
	"elevmaint/backend/services/maintenance-service/internal/kvstore"
	"elevmaint/backend/services/maintenance-service/internal/metrics"
	"elevmaint/backend/services/maintenance-service/internal/repository"
	"elevmaint/backend/services/maintenance-service/internal/sampler"
	"elevmaint/backend/services/maintenance-service/internal/service"
	"elevmaint/backend/services/maintenance-service/internal/ws"
)

const (
	bootstrapTimeout = 5 * time.Second
	drainTimeout     = 5 * time.Second
)

// App wires maintenance-service dependencies.
type App struct {
	server     *httpserver.Server
	handler    http.Handler
	service    *service.MaintenanceService
	replicator *service.Replicator
	liveFeed   *ws.Server
	db         *sql.DB
	redis      *redis.Client
	logger     *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := a.openStore(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	sessionRepo := repository.NewSessionRepository(store)
	elevatorRepo := repository.NewElevatorRepository(store)
	a.replicator = service.NewReplicator(sessionRepo, elevatorRepo, service.ReplicatorConfig{
		Timeout:      cfg.Replication.Timeout,
		RetryBackoff: cfg.Replication.RetryBackoff,
		QueueSize:    cfg.Replication.QueueSize,
	}, logger.Named("replicator"), m)

	elevators := service.NewElevatorService(elevatorRepo, a.replicator, logger)
	bootCtx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	elevators.Bootstrap(bootCtx)
	cancel()

	hub := ws.NewManager(logger.Named("live"))
	a.liveFeed = ws.NewServer(hub, cfg.LiveFeed.WriteTimeout, cfg.LiveFeed.PingInterval, logger.Named("live"))

	movementSampler := sampler.New()
	var svc *service.MaintenanceService
	registry := service.NewRegistry(func() *service.SessionMachine {
		return service.NewSessionMachine(
			service.WithSampler(movementSampler),
			service.WithMovementListener(svc.MovementListener()),
		)
	})
	svc = service.NewMaintenanceService(service.Deps{
		Registry:   registry,
		Sessions:   sessionRepo,
		Elevators:  elevators,
		Replicator: a.replicator,
		Events:     hub,
		Metrics:    m,
		Logger:     logger,
		Location:   cfg.ReportLocation(),
	})
	a.service = svc

	a.handler = httpserver.NewRouter(httpserver.RouterDeps{
		Sessions:       handlers.NewSessionsHandlers(svc, logger),
		Elevators:      handlers.NewElevatorsHandlers(elevators, svc, logger),
		Health:         handlers.NewHealthHandler(),
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		LiveFeed:       a.liveFeed.HandleWS,
		AuthMiddleware: middleware.AuthMiddleware(cfg.Auth.JWTSecret),
		LogMiddleware:  middleware.RequestLogger(logger.Named("http")),
	})
	a.server = httpserver.NewServer(cfg.HTTPAddress(), a.handler, cfg.HTTP.ShutdownTimeout, logger)

	logger.Info("maintenance service initialized",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("report_timezone", cfg.ReportLocation().String()),
	)
	return a, nil
}

func (a *App) openStore(cfg *config.Config) (kvstore.Store, error) {
	switch cfg.Store.Driver {
	case kvstore.DriverMemory:
		a.logger.Warn("using in-memory store, sessions are not persisted")
		return kvstore.NewMemoryStore(), nil
	case kvstore.DriverRedis:
		client, err := libredis.NewRedisClient(libredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.redis = client
		return kvstore.NewRedisStore(client, cfg.Redis.TTL), nil
	case kvstore.DriverPostgres:
		sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN, libdb.PoolOptions{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := kvstore.NewPostgresStore(sqlDB)
		ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.db = sqlDB
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Handler exposes the router.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close tears down running sessions, drains replication and releases resources.
func (a *App) Close() {
	if a.service != nil {
		a.service.Close()
	}
	if a.liveFeed != nil {
		a.liveFeed.Close()
	}
	if a.replicator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := a.replicator.Close(ctx); err != nil {
			a.logger.Warn("replication not drained", zap.Error(err))
		}
		cancel()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
