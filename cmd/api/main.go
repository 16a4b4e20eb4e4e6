package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/exam-access-service/internal/api/http"
	"github.com/spec-kit/exam-access-service/internal/api/http/handlers"
	"github.com/spec-kit/exam-access-service/internal/auth"
	"github.com/spec-kit/exam-access-service/internal/config"
	"github.com/spec-kit/exam-access-service/internal/events"
	"github.com/spec-kit/exam-access-service/internal/observability"
	"github.com/spec-kit/exam-access-service/internal/persistence"
	"github.com/spec-kit/exam-access-service/internal/provider"
	"github.com/spec-kit/exam-access-service/internal/repository"
	"github.com/spec-kit/exam-access-service/internal/secrets"
	"github.com/spec-kit/exam-access-service/internal/service"
	"github.com/spec-kit/exam-access-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store       repository.TokenStore
		storePinger handlers.StorePinger
		purger      *worker.PurgeWorker
	)

	switch cfg.Token.StoreDriver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}

		pgStore := repository.NewPostgresTokenStore(pg.PoolHandle(), cfg.Token.TableName)
		purger = worker.StartPurgeWorker(pgStore, cfg.Token.PurgeInterval(), logger)
		defer purger.Stop()

		store = pgStore
		storePinger = pg
	default:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()

		store = repository.NewRedisTokenStore(redis.Client, cfg.Token.TableName)
		storePinger = redis
	}

	secretStore := secrets.NewCached(secrets.NewEnvProvider(), cfg.Secrets.CacheTTL())
	providerClient := provider.NewClient(cfg.Provider, logger)

	dispatcher := events.NewInMemoryDispatcher()
	audit := service.NewAuditService(dispatcher, logger)
	audit.RegisterHandlers()

	metrics := observability.NewMetrics()

	tokenService := service.NewTokenService(store, cfg.Token.TTL(), dispatcher, logger)
	exchangeService := service.NewExchangeService(service.ExchangeDependencies{
		Tokens:           tokenService,
		Secrets:          secretStore,
		Provider:         providerClient,
		CredentialSecret: cfg.Provider.CredentialSecret,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger,
	})

	adminSessions := auth.NewAdminTokenManager(cfg.Admin.SessionSigningKey, cfg.Admin.SessionTTL())
	adminGate := auth.NewAdminGate(secretStore, cfg.Admin.PasswordSecret, adminSessions)
	adminService := service.NewAdminService(service.AdminDependencies{
		Gate:             adminGate,
		Sessions:         adminSessions,
		Secrets:          secretStore,
		Provider:         providerClient,
		CredentialSecret: cfg.Provider.CredentialSecret,
		Logger:           logger,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.Token.StoreDriver, storePinger)
	tokensHandler := handlers.NewTokensHandler(tokenService, exchangeService)
	adminHandler := handlers.NewAdminHandler(adminService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    healthHandler,
		Tokens:    tokensHandler,
		Admin:     adminHandler,
		AdminGate: adminGate,
		WebOrigin: cfg.App.WebOrigin,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
