package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"ticketpoint/api/routes"
	"ticketpoint/internal/bookings"
	"ticketpoint/internal/checkin"
	"ticketpoint/internal/events"
	"ticketpoint/internal/jobs"
	"ticketpoint/internal/migrations"
	"ticketpoint/internal/notifications"
	"ticketpoint/internal/shared/config"
	"ticketpoint/internal/shared/database"
	"ticketpoint/internal/shared/middleware"
	"ticketpoint/internal/tickets"
	"ticketpoint/internal/tiers"
	"ticketpoint/pkg/cache"
	"ticketpoint/pkg/logger"
	"ticketpoint/pkg/metrics"
	"ticketpoint/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		appLogger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("Failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := migrations.Migrate(db.PostgreSQL); err != nil {
		appLogger.Error("Failed to migrate schema", slog.Any("error", err))
		os.Exit(1)
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	app, err := buildApplication(rootCtx, cfg, db, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize services", slog.Any("error", err))
		os.Exit(1)
	}

	if err := app.jobs.Start(rootCtx); err != nil {
		appLogger.Error("Failed to start background jobs", slog.Any("error", err))
		os.Exit(1)
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled && db.Redis != nil {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, cfg.RateLimit)
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
			slog.Int("booking_requests", cfg.RateLimit.BookingRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled", slog.Bool("redis_available", db.Redis != nil))
	}

	router := setupRouter(cfg, db, app.services, rateLimiter, appLogger)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", Version),
			slog.String("commit", GitCommit),
			slog.String("built", BuildTime),
			slog.String("delivery", cfg.Delivery.Backend),
			slog.String("ticket_storage", cfg.Storage.Backend),
			slog.Bool("redis_cache", db.Redis != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	// Stop accepting new work before draining deliveries
	if err := app.jobs.Stop(); err != nil {
		appLogger.Error("Error stopping background jobs", slog.Any("error", err))
	}
	app.shutdown(ctx)
	rootCancel()

	appLogger.Info("Server exited gracefully")
}

type application struct {
	services routes.Services
	jobs     *jobs.JobProcessor
	closers  []func(ctx context.Context) error
	log      *logger.Logger
}

func (a *application) shutdown(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Error("Error stopping delivery", slog.Any("error", err))
		}
	}
}

// buildApplication wires the ledger, the booking workflow, delivery and check-in.
// Delivery only reads bookings, so it is built before the workflow that dispatches to it.
func buildApplication(ctx context.Context, cfg *config.Config, db *database.DB, log *logger.Logger) (*application, error) {
	pg := db.PostgreSQL
	app := &application{log: log}

	loc, err := time.LoadLocation(cfg.Issuance.DefaultTimezone)
	if err != nil {
		return nil, err
	}

	var cacheService cache.Service
	if db.Redis != nil {
		cacheService = cache.NewService(db.Redis)
	}

	eventRepo := events.NewRepository(pg)
	tierRepo := tiers.NewRepository(pg)
	bookingRepo := bookings.NewRepository(pg)

	tierService := tiers.NewService(tierRepo, eventRepo, cacheService, log.WithComponent("ledger"))

	issuer := tickets.NewIssuer(tickets.Config{
		DefaultLocation: loc,
		FooterText:      cfg.Issuance.FooterText,
	})

	mailer, err := newMailer(cfg.Email, log)
	if err != nil {
		return nil, err
	}
	blobs, err := notifications.NewBlobStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ticket storage: %w", err)
	}

	delivery := notifications.NewDeliveryService(notifications.DeliveryDeps{
		Bookings:        bookingRepo,
		Tiers:           tierRepo,
		Events:          eventRepo,
		Renderer:        issuer,
		Blobs:           blobs,
		Mailer:          mailer,
		DefaultTimezone: cfg.Issuance.DefaultTimezone,
		Logger:          log,
	})

	dispatcher, err := app.startDelivery(ctx, cfg, delivery)
	if err != nil {
		return nil, err
	}

	bookingService := bookings.NewService(
		bookingRepo,
		tierService,
		database.NewTransactor(pg),
		issuer,
		dispatcher,
		log.WithComponent("bookings"),
	)

	app.services = routes.Services{
		Tiers:    tierService,
		Bookings: bookingService,
		Checkin:  checkin.NewService(checkin.NewRepository(pg), eventRepo, log.WithComponent("checkin")),
	}
	app.jobs = jobs.NewJobProcessor(bookingService, jobs.JobConfigFrom(cfg.Issuance), log)

	return app, nil
}

// startDelivery starts the configured delivery backend and returns what the
// workflow dispatches issued tickets to
func (a *application) startDelivery(ctx context.Context, cfg *config.Config, delivery *notifications.DeliveryService) (bookings.DeliveryDispatcher, error) {
	retry := notifications.RetryPolicy{
		MaxRetries: cfg.Delivery.MaxRetries,
		Backoff:    cfg.Delivery.RetryBackoff,
	}

	switch cfg.Delivery.Backend {
	case "kafka":
		producer, err := notifications.NewKafkaDeliveryProducer(notifications.DefaultKafkaProducerConfig(cfg.Kafka), a.log)
		if err != nil {
			return nil, fmt.Errorf("failed to create delivery producer: %w", err)
		}
		consumer, err := notifications.NewKafkaDeliveryConsumer(
			notifications.DefaultConsumerConfig(cfg.Kafka, cfg.Delivery), delivery, a.log)
		if err != nil {
			_ = producer.Close()
			return nil, fmt.Errorf("failed to create delivery consumer: %w", err)
		}
		consumer.Start(ctx)

		a.closers = append(a.closers,
			func(context.Context) error { return producer.Close() },
			func(context.Context) error { return consumer.Stop() },
		)
		a.log.Info("Kafka ticket delivery started",
			slog.Any("brokers", cfg.Kafka.Brokers),
			slog.String("topic", cfg.Kafka.DeliveryTopic),
		)
		return producer, nil

	default:
		pool := notifications.NewWorkerPool(delivery, notifications.WorkerPoolConfig{
			Workers:   cfg.Delivery.Workers,
			QueueSize: cfg.Delivery.QueueSize,
			Retry:     retry,
		}, a.log)
		pool.Start(ctx)

		a.closers = append(a.closers, pool.Stop)
		a.log.Info("In-process ticket delivery started", slog.Int("workers", cfg.Delivery.Workers))
		return pool, nil
	}
}

func newMailer(cfg config.EmailConfig, log *logger.Logger) (notifications.Mailer, error) {
	if cfg.Mailer != "smtp" {
		return notifications.NewMockMailer(log), nil
	}
	mailer, err := notifications.NewSMTPMailer(notifications.NewSMTPConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP mailer: %w", err)
	}
	return mailer, nil
}

func setupRouter(cfg *config.Config, db *database.DB, services routes.Services, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	// Logs requests + recovers from panics
	engine.Use(middleware.RequestLogger(appLogger), gin.Recovery())
	engine.Use(metrics.Middleware())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
	}

	routes.NewRouter(cfg, db, services).SetupRoutes(engine)

	return engine
}
