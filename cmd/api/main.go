package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nitish-kumar777/storage-app/docs"
	"github.com/Nitish-kumar777/storage-app/internal/config"
	"github.com/Nitish-kumar777/storage-app/internal/database"
	"github.com/Nitish-kumar777/storage-app/internal/database/migration"
	handlers "github.com/Nitish-kumar777/storage-app/internal/http/handler"
	"github.com/Nitish-kumar777/storage-app/internal/http/middleware"
	"github.com/Nitish-kumar777/storage-app/internal/logger"
	"github.com/Nitish-kumar777/storage-app/internal/otel"
	"github.com/Nitish-kumar777/storage-app/internal/repository/postgres"
	"github.com/Nitish-kumar777/storage-app/internal/service"
	"github.com/Nitish-kumar777/storage-app/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// @title Storage API
// @version 1.0
// @description Per-owner file storage: uploads, listings, downloads and deletes with a shared quota.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	log, flush := logger.New(cfg.Log, cfg.IsDevelopment())
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		flush()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, log *slog.Logger) error {
	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Record Store: PostgreSQL with pooling via database/sql
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		return err
	}

	// Object host: S3-compatible storage (MinIO)
	host, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		return err
	}

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	repo := postgres.NewFilePostgres(db)
	fileSvc := service.NewFileService(repo, repo, host, metrics, log, service.OptionsFromConfig(cfg))

	if cfg.Reconcile.Enabled {
		rec := service.NewReconciler(repo, repo, host, metrics, log,
			cfg.Reconcile.Grace, cfg.Reconcile.Batch, cfg.MinIO.Timeout)
		go rec.Run(ctx, cfg.Reconcile.Interval)
	}

	var auth fiber.Handler
	if cfg.Auth.Enabled {
		keys, err := middleware.NewJWKS(ctx, cfg.Auth.JWKSURL, log)
		if err != nil {
			return err
		}
		auth = middleware.Auth(middleware.AuthOptions{
			Keys:     keys,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		})
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(log, cfg.IsDevelopment()),
		BodyLimit:    cfg.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, fileSvc, auth)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	listenErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "env", cfg.Env)
		listenErr <- app.Listen(addr)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", shutdownTimeout)
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
