package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/user-console/internal/api/http"
	"github.com/spec-kit/user-console/internal/api/http/handlers"
	"github.com/spec-kit/user-console/internal/config"
	"github.com/spec-kit/user-console/internal/events"
	"github.com/spec-kit/user-console/internal/observability"
	"github.com/spec-kit/user-console/internal/service"
	"github.com/spec-kit/user-console/internal/session"
	"github.com/spec-kit/user-console/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	auditWorker := worker.StartAuditWorker(dispatcher, logger)
	defer auditWorker.Stop()

	registry := session.NewRegistry(session.RegistryOptions{
		Session:    cfg.Session,
		API:        cfg.API,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	authService := service.NewAuthService(dispatcher, logger)
	userService := service.NewUserService(dispatcher, logger)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics),
		Pages:   handlers.NewPagesHandler(userService),
		Auth:    handlers.NewAuthHandler(authService),
		Users:   handlers.NewUsersHandler(userService),
		Session: httptransport.SessionMiddleware(registry, cfg.Session.CookieName, cfg.Session.TTL(), authService),
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
