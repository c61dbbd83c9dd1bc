package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stevenleohash/fortune-flow-end/config"
	"github.com/stevenleohash/fortune-flow-end/internal/data"
	"github.com/stevenleohash/fortune-flow-end/internal/hub"
	"github.com/stevenleohash/fortune-flow-end/internal/observability/statsd"
	"github.com/stevenleohash/fortune-flow-end/internal/service"
)

// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
const shutdownWaitTimeout = 15 * time.Second

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Hub           *hub.Hub
	ShopCache     *service.ShopCacheService
	Publisher     *service.HubStatusPublisher
	Executor      *service.ExecutorService
	Scheduler     *service.SchedulerService
	Coordinator   *service.Coordinator
	Reaper        *service.ReaperService
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB         *sql.DB
	Redis      redis.UniversalClient
	JobStore   *data.JobStoreRepo
	ShopRepo   *data.ShopRepo
	CacheRepo  *data.RedisCacheRepo
	ReaperRepo *data.ReaperRepo
}

// buildObservability configures the metrics sink.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient) *serviceRepositories {
	return &serviceRepositories{
		DB:         db,
		Redis:      redisClient,
		JobStore:   data.NewJobStoreRepo(db),
		ShopRepo:   data.NewShopRepo(db),
		CacheRepo:  data.NewRedisCacheRepo(redisClient),
		ReaperRepo: data.NewReaperRepo(db),
	}
}

// NewServices wires the coordinator's service graph. The hub is always built
// because the executor dispatches through it; whether its listener runs is a
// service-mode decision made at startup.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil {
		return ServiceContainer{}, errors.New("service deps are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := deps.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	observability := buildObservability(logger, appCfg.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient)

	planner, err := service.NewCronPlanner(appCfg.Scheduler)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build cron planner: %w", err)
	}

	workerHub := hub.New(hub.Options{
		Config:  appCfg.Hub,
		Logger:  logger,
		Metrics: observability.MetricsSink,
	})

	shopCache := service.NewShopCacheService(service.ShopCacheServiceOptions{
		Shops:  repos.ShopRepo,
		Cache:  repos.CacheRepo,
		TTL:    appCfg.Cache.ShopDataTTL,
		Logger: logger,
	})

	publisher := service.NewHubStatusPublisher(service.HubStatusPublisherOptions{
		Channel: workerHub,
		Logger:  logger,
	})

	executor := service.NewExecutorService(service.ExecutorServiceOptions{
		Config:    appCfg.Executor,
		Store:     repos.JobStore,
		Shops:     shopCache,
		Channel:   workerHub,
		Publisher: publisher,
		Planner:   planner,
		Logger:    logger,
		Metrics:   observability.MetricsSink,
	})
	workerHub.SetResultHandler(executor.HandleResult)

	scheduler := service.NewSchedulerService(service.SchedulerServiceOptions{
		Config:   appCfg.Scheduler,
		Store:    repos.JobStore,
		Executor: executor,
		Planner:  planner,
		Logger:   logger,
	})

	coordinator := service.NewCoordinator(service.CoordinatorOptions{
		Scheduler: scheduler,
		Executor:  executor,
		Logger:    logger,
	})

	reaper := service.NewReaperService(service.ReaperServiceOptions{
		Config:   appCfg.Reaper,
		Executor: appCfg.Executor,
		Repo:     repos.ReaperRepo,
		Logger:   logger,
		Metrics:  observability.MetricsSink,
	})

	return ServiceContainer{
		Hub:           workerHub,
		ShopCache:     shopCache,
		Publisher:     publisher,
		Executor:      executor,
		Scheduler:     scheduler,
		Coordinator:   coordinator,
		Reaper:        reaper,
		Observability: observability,
	}, nil
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	name string
	done <-chan struct{}
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. Blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 4)
	var handles []backgroundServiceHandle
	var hubServer *http.Server

	if cfg.Config.IsHubEnabled() {
		hubServer = startHubServer(cfg, logger, errCh)
	}

	if cfg.Config.IsSchedulerEnabled() {
		if err := cfg.Services.Scheduler.Start(serviceCtx); err != nil {
			cancel()
			return fmt.Errorf("start scheduler: %w", err)
		}
		logger.Info("background service started", "service", "scheduler")
	}

	if cfg.Config.IsReaperEnabled() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := cfg.Services.Reaper.Run(serviceCtx); err != nil {
				select {
				case errCh <- fmt.Errorf("reaper failed: %w", err):
				default:
					logger.Warn("dropping background service error", "service", "reaper", "error", err)
				}
			}
		}()
		handles = append(handles, backgroundServiceHandle{name: "reaper", done: done})
		logger.Info("background service started", "service", "reaper")
	}

	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		hubServer:   hubServer,
		services:    cfg.Services,
		config:      cfg.Config,
		logger:      logger,
		backgrounds: handles,
	})
}

// startHubServer serves the worker websocket endpoint.
func startHubServer(cfg *ServiceOrchestrationConfig, logger *slog.Logger, errCh chan<- error) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Config.Hub.Path, cfg.Services.Hub)

	server := &http.Server{
		Addr:              cfg.Config.Hub.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("worker hub listening",
			"addr", cfg.Config.Hub.ListenAddr,
			"path", cfg.Config.Hub.Path,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errCh <- fmt.Errorf("hub server failed: %w", err):
			default:
				logger.Error("hub server failed", "error", err)
			}
		}
	}()

	return server
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	hubServer   *http.Server
	services    ServiceContainer
	config      *config.AppConfig
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.config.IsSchedulerEnabled() {
		cfg.services.Scheduler.Stop()
	}

	if cfg.hubServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		cfg.services.Hub.Close()
		if err := cfg.hubServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown hub server: %w", err)
		}
		cfg.logger.Info("hub server stopped")
	}

	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	if sink := cfg.services.Observability.MetricsSink; sink != nil {
		if err := sink.Close(); err != nil {
			cfg.logger.Warn("close metrics sink failed", "error", err)
		}
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
