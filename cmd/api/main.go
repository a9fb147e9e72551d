package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"digilocker/docs"
	"digilocker/internal/app"
	"digilocker/internal/config"
	handlers "digilocker/internal/http/handler"
	"digilocker/internal/http/middleware"
	"digilocker/internal/logging"
	"digilocker/internal/otel"
	"digilocker/internal/service"
)

// @title Health DigiLocker API
// @version 1.0
// @description Per-identifier medical document locker.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.Log.Level, logging.Location(cfg.Log.TimeZone))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Error("tracing_init_failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Object storage, metadata, identity slots and accounts
	backend, err := app.NewBackend(ctx, cfg, reg, log)
	if err != nil {
		log.Error("backend_init_failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	docSvc := service.NewDocumentService(
		backend.Gateway,
		cfg.Locker.MaxBatchSize,
		cfg.Locker.SignedURLTTL(),
		log.With("component", "documents"),
	)

	promMw, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Error("metrics_init_failed", "error", err)
		os.Exit(1)
	}

	srv := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// A full batch plus multipart overhead.
		BodyLimit: cfg.Locker.MaxBatchSize*cfg.Locker.MaxFileBytes + 1<<20,
	})

	// Register global middleware
	srv.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	srv.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	srv.Use(middleware.Logger(log))
	srv.Use(promMw.Handler())

	srv.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	deps := handlers.Dependencies{
		Documents: docSvc,
		Slots:     backend.Slots,
		Auth:      backend.Auth,
		URLs:      backend.URLs,
	}
	if backend.DB != nil {
		deps.DB = backend.DB
	}
	handlers.RegisterRoutes(srv, deps)

	// Swagger UI with dynamic host and scheme
	srv.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.ShutdownWithContext(sctx); err != nil {
			log.Error("server_shutdown_failed", "error", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", "addr", addr)
	if err := srv.Listen(addr); err != nil {
		log.Error("server_failed", "error", err)
		return
	}
	log.Info("server_stopped")
}
