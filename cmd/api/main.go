package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docflow/internal/classifier"
	"docflow/internal/config"
	"docflow/internal/database"
	"docflow/internal/database/migration"
	handlers "docflow/internal/http/handler"
	"docflow/internal/http/middleware"
	"docflow/internal/notify"
	"docflow/internal/otel"
	"docflow/internal/repository"
	"docflow/internal/repository/postgres"
	"docflow/internal/service"
	"docflow/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	// Tracing is optional: without an OTLP endpoint Init returns a no-op shutdown.
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	// PostgreSQL connection (with pooling via database/sql) and schema setup
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Repositories. The department catalog changes rarely and is read on every
	// routing decision, so it sits behind a short-lived cache.
	docRepo := postgres.NewDocumentPostgres(db)
	userRepo := postgres.NewUserPostgres(db)
	var deptRepo repository.DepartmentRepository = repository.NewCachedDepartmentRepository(
		postgres.NewDepartmentPostgres(db), 5*time.Minute)

	migrator := storage.NewMigrator(objStore, cfg.MigrateTimeout)
	dispatcher := classifier.NewWebhookDispatcher(cfg.Classifier)

	// Notification plumbing: routed events go through NATS so the mail fan-out
	// never sits on the request path. A missing broker degrades to no
	// notifications instead of refusing to start.
	hub := notify.NewHub()
	var publisher notify.Publisher
	queue, err := notify.NewQueue(cfg.NATS)
	if err != nil {
		log.Printf("notifications disabled, queue unavailable: %v", err)
	} else {
		publisher = queue
		defer queue.Close()

		mailer, err := notify.NewSMTPMailer(cfg.SMTP)
		if err != nil {
			log.Fatalf("failed to initialize mailer: %v", err)
		}
		fanout, err := notify.NewFanout(userRepo, mailer, hub, prometheus.DefaultRegisterer)
		if err != nil {
			log.Fatalf("failed to initialize notification fan-out: %v", err)
		}
		go func() {
			if err := queue.SubscribeDocumentRouted(ctx, fanout.Handle); err != nil {
				log.Printf("notification subscriber stopped: %v", err)
			}
		}()
	}

	docSvc := service.NewDocumentService(docRepo, deptRepo, objStore, migrator, dispatcher, publisher, service.Config{
		UploadURLTTL:      cfg.UploadURLTTL,
		ViewURLTTL:        cfg.ViewURLTTL,
		ClassifierReadTTL: cfg.Classifier.ReadURLTTL,
	})

	// Repair registry rows orphaned by a crash mid-migration before serving.
	if cfg.ReconcileOnStart {
		if err := docSvc.ReconcileStorage(ctx); err != nil {
			log.Printf("storage reconciliation failed: %v", err)
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Global middleware: request IDs, JSON request logs, traces, metrics.
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, docSvc, deptRepo, userRepo, hub)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
