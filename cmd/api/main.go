package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/classroom-service/internal/api/http"
	"github.com/spec-kit/classroom-service/internal/api/http/handlers"
	"github.com/spec-kit/classroom-service/internal/auth"
	"github.com/spec-kit/classroom-service/internal/config"
	"github.com/spec-kit/classroom-service/internal/events"
	"github.com/spec-kit/classroom-service/internal/observability"
	"github.com/spec-kit/classroom-service/internal/persistence"
	"github.com/spec-kit/classroom-service/internal/policy"
	"github.com/spec-kit/classroom-service/internal/repository"
	"github.com/spec-kit/classroom-service/internal/service"
	"github.com/spec-kit/classroom-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := persistence.ConnectPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	gateway := repository.NewGateway(conn, cfg.Postgres.LockTimeout(), logger).
		WithReconnect(func(ctx context.Context) (repository.Session, error) {
			return persistence.ConnectPostgres(ctx, cfg.Postgres, logger)
		})

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, gateway, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	verifier := auth.NewVerifier(cfg.Auth)
	if !verifier.KeyConfigured() {
		logger.Warn("AUTH_RSA_PUBLIC_KEY missing or invalid; every authenticated request will fail")
	}
	authMiddleware := auth.NewAuthMiddleware(verifier, auth.NewResolver(gateway))

	dispatcher := events.NewInMemoryDispatcher()
	var publisher service.Publisher
	var redisPinger handlers.Pinger
	if redis.Enabled() {
		publisher = redis.Client
		redisPinger = redis
	}
	notifications := worker.NewNotificationWorker(
		service.NewNotificationService(publisher, cfg.Redis.EventsChannel, logger),
		256,
		logger,
	)
	notifications.Register(dispatcher)
	notifications.Start(ctx)

	classroomService := service.NewClassroomService(service.ClassroomDependencies{
		ClassroomRepo:  gateway,
		MembershipRepo: gateway,
		UserRepo:       gateway,
		Policy:         policy.NewEngine(),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, gateway, redisPinger),
		Classrooms:     handlers.NewClassroomHandler(classroomService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	cancel()
	notifications.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := gateway.Close(closeCtx); err != nil {
		logger.Warn("close store session", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
