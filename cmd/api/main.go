package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/thejerf/abtime"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/recipe-archive/internal/api/http"
	"github.com/spec-kit/recipe-archive/internal/api/http/handlers"
	"github.com/spec-kit/recipe-archive/internal/auth"
	"github.com/spec-kit/recipe-archive/internal/config"
	"github.com/spec-kit/recipe-archive/internal/events"
	"github.com/spec-kit/recipe-archive/internal/observability"
	"github.com/spec-kit/recipe-archive/internal/persistence"
	"github.com/spec-kit/recipe-archive/internal/repository"
	"github.com/spec-kit/recipe-archive/internal/service"
	"github.com/spec-kit/recipe-archive/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		userRepo   repository.UserRepository
		recipeRepo repository.RecipeRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		userRepo = repository.NewUserRepository(pool)
		recipeRepo = repository.NewRecipeRepository(pool)
	} else {
		store := repository.NewMemoryStore()
		userRepo = store.Users()
		recipeRepo = store.Recipes()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var throttle auth.LoginThrottle
	if client := redis.ClientHandle(); client != nil {
		throttle = auth.NewRedisThrottle(client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
	} else {
		memThrottle := auth.NewMemoryThrottle(cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow())
		defer memThrottle.Stop()
		throttle = memThrottle
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), abtime.NewRealTime())
	verifier, err := auth.NewCredentialVerifier(userRepo, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to init credential verifier", zap.Error(err))
	}

	authService := service.NewAuthService(service.AuthDependencies{
		Verifier:   verifier,
		Tokens:     tokens,
		Throttle:   throttle,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   userRepo,
		BcryptCost: cfg.Auth.BcryptCost,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	recipeService := service.NewRecipeService(service.RecipeDependencies{
		RecipeRepo: recipeRepo,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := fiber.New(fiber.Config{
		AppName:       cfg.App.Name,
		CaseSensitive: true,
		ErrorHandler:  httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:        handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:          handlers.NewAuthHandler(authService),
		Users:         handlers.NewUsersHandler(userService),
		Recipes:       handlers.NewRecipesHandler(recipeService),
		Metrics:       observability.Handler(registry),
		Authenticator: auth.NewAuthenticator(tokens, userRepo, logger, metrics),
		Policy:        auth.NewPolicy(auth.DefaultRules()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
