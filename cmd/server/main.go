package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/farmassist-bd/farmassist/internal/adapter/ai/gemini"
	"github.com/farmassist-bd/farmassist/internal/adapter/ai/googletts"
	"github.com/farmassist-bd/farmassist/internal/adapter/artifacts"
	"github.com/farmassist-bd/farmassist/internal/adapter/cache"
	"github.com/farmassist-bd/farmassist/internal/adapter/external/openmeteo"
	"github.com/farmassist-bd/farmassist/internal/adapter/http/fiber/handlers"
	"github.com/farmassist-bd/farmassist/internal/adapter/http/fiber/middleware"
	"github.com/farmassist-bd/farmassist/internal/adapter/queue"
	"github.com/farmassist-bd/farmassist/internal/adapter/storage/postgres"
	"github.com/farmassist-bd/farmassist/internal/adapter/vault"
	"github.com/farmassist-bd/farmassist/internal/adapter/vision"
	"github.com/farmassist-bd/farmassist/internal/observability/telemetry"
	"github.com/farmassist-bd/farmassist/internal/ports"
	"github.com/farmassist-bd/farmassist/internal/service/advisory"
	"github.com/farmassist-bd/farmassist/pkg/config"
)

const (
	serviceName    = "farmassist"
	serviceVersion = "v1.0.0"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting FarmAssist",
		zap.String("service", serviceName),
		zap.String("version", serviceVersion),
	)

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// 3. Resolve secrets from Vault when configured
	if cfg.Vault.Enabled {
		sm, err := vault.NewSecretManager(cfg.Vault.Address, cfg.Vault.Token)
		if err != nil {
			logger.Fatal("Failed to initialize Vault client", zap.Error(err))
		}
		if key, err := sm.GetGeminiAPIKey(); err == nil && key != "" {
			cfg.Gemini.APIKey = key
		} else if err != nil {
			logger.Warn("Gemini API key not found in Vault", zap.Error(err))
		}
		if dsn, err := sm.GetDatabaseCredentials(); err == nil && dsn != "" {
			cfg.Database.URL = dsn
		} else if err != nil {
			logger.Warn("Database credentials not found in Vault", zap.Error(err))
		}
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(serviceName, cfg.OpenTelemetry.Jaeger.Endpoint)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := postgres.RunMigrations(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// 6. Initialize Cache (Redis, falling back to in-memory)
	var appCache ports.Cache
	appCache, err = cache.NewRedisCache(cfg.Redis.URL, logger)
	if err != nil {
		logger.Warn("Redis unavailable, using local in-memory cache", zap.Error(err))
		appCache = cache.NewLocalCache(time.Minute, logger)
	}
	defer appCache.Close()

	// 7. Initialize Message Queue. The queue only carries completion events,
	// so a broker outage degrades to no events rather than a dead server.
	var messageQueue queue.MessageQueue
	switch cfg.Queue.Driver {
	case "rabbitmq":
		messageQueue, err = queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, logger)
	default:
		messageQueue, err = queue.NewNATSQueue(cfg.NATS.URL, logger)
	}
	if err != nil {
		logger.Warn("Message queue unavailable, advisory events disabled", zap.Error(err))
		messageQueue = nil
	} else {
		defer messageQueue.Close()
	}

	// 8. Initialize Artifact Store
	artifactStore, err := artifacts.NewStore(cfg.Artifacts.Root, logger)
	if err != nil {
		logger.Fatal("Failed to initialize artifact store", zap.Error(err))
	}

	// 9. Initialize Repositories
	conversationRepo := postgres.NewConversationRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// 10. Initialize Capability Adapters
	geminiClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
	ttsClient := googletts.NewClient(artifactStore, logger)
	visionClassifier := vision.NewClassifier(cfg.Vision.ServerURL, logger)
	weatherClient := openmeteo.NewClient(appCache, logger)

	// 11. Initialize Advisory Pipeline Service
	advisoryService := advisory.NewService(
		geminiClient,
		visionClassifier,
		weatherClient,
		geminiClient,
		ttsClient,
		conversationRepo,
		userRepo,
		messageQueue,
		advisory.Config{
			TranscribeTimeout: cfg.Pipeline.TranscribeTimeout,
			ClassifyTimeout:   cfg.Pipeline.ClassifyTimeout,
			WeatherTimeout:    cfg.Pipeline.WeatherTimeout,
			GenerateTimeout:   cfg.Pipeline.GenerateTimeout,
			SynthesizeTimeout: cfg.Pipeline.SynthesizeTimeout,
		},
		logger,
	)

	// 12. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		ServerHeader:          serviceName,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit(cfg.Limits.MaxUploadBytes),
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))
	app.Use(middleware.CircuitBreaker())

	// Health Check Endpoints
	app.Get("/health/live", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/health/ready", func(c *fiber.Ctx) error {
		if err := sqlDB.Ping(); err != nil {
			return c.Status(503).SendString("Database not ready")
		}
		if err := appCache.Ping(); err != nil {
			return c.Status(503).SendString("Cache not ready")
		}
		return c.SendString("Ready")
	})

	// Metrics endpoint for Prometheus
	app.Get("/metrics", func(c *fiber.Ctx) error {
		handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		handler(c.Context())
		return nil
	})

	// API v1 Routes
	v1 := app.Group("/api/v1")

	advisoryHandler := handlers.NewAdvisoryHandler(advisoryService, artifactStore, logger)
	v1.Post("/advisory/audio", advisoryHandler.UploadAudio)
	v1.Post("/advisory/image", advisoryHandler.UploadImage)
	v1.Post("/advisory/chat", advisoryHandler.Chat)
	v1.Get("/speech", advisoryHandler.GetSpeech)

	conversationHandler := handlers.NewConversationHandler(conversationRepo, appCache, logger)
	v1.Get("/conversations", conversationHandler.List)

	// 13. Start Background Workers
	if messageQueue != nil {
		go startBackgroundWorkers(messageQueue, logger)
	}

	// 14. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 15. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func bodyLimit(configured int) int {
	if configured > 0 {
		return configured
	}
	return 25 * 1024 * 1024
}

// startBackgroundWorkers consumes advisory events emitted by the pipeline.
func startBackgroundWorkers(mq queue.MessageQueue, logger *zap.Logger) {
	logger.Info("Starting background workers")

	mq.Subscribe("advisory.completed", func(msg []byte) error {
		logger.Info("Advisory completed", zap.ByteString("event", msg))
		return nil
	})
}
