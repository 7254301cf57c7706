package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/roadwatch/pothole-service/internal/config"
	"github.com/roadwatch/pothole-service/internal/detector"
	"github.com/roadwatch/pothole-service/internal/handler"
	"github.com/roadwatch/pothole-service/internal/handler/middleware"
	"github.com/roadwatch/pothole-service/internal/repository/sqlite"
	"github.com/roadwatch/pothole-service/internal/service"
	"github.com/roadwatch/pothole-service/pkg/cache"
	"github.com/roadwatch/pothole-service/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}()
	log.Printf("✓ Database ready at %s", cfg.Database.Path)

	// Initialize optional Redis-backed aggregate cache
	aggCache, redisClient, err := initCache(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("Error closing Redis connection: %v", err)
			}
		}()
		log.Println("✓ Redis cache established")
	} else {
		log.Println("ℹ Redis cache disabled (set REDIS_ENABLED=true to enable)")
	}

	// Initialize detector
	det, err := detector.New(cfg.Detector)
	if err != nil {
		log.Fatalf("Failed to initialize detector: %v", err)
	}
	stats := det.Stats()
	if stats.ModelLoaded {
		log.Printf("✓ Detector ready (%s)", stats.DetectorType)
	} else {
		log.Println("⚠ No detection model loaded, detect calls will return empty results")
	}

	// Initialize validator
	validate := validator.NewValidator()

	// Initialize repositories
	userRepo := sqlite.NewUserRepository(db)
	sessionRepo := sqlite.NewSessionRepository(db)
	potholeRepo := sqlite.NewPotholeRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.Auth.SessionTTL)
	detectionService := service.NewDetectionService(det, potholeRepo, aggCache, cfg.Upload)
	mapService := service.NewMapService(potholeRepo, aggCache)
	reportService := service.NewReportService()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, validate)
	detectHandler := handler.NewDetectHandler(detectionService, validate)
	mapHandler := handler.NewMapHandler(mapService)
	reportHandler := handler.NewReportHandler(reportService)
	healthHandler := handler.NewHealthHandler(detectionService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Pothole Detection Service v1.0",
		BodyLimit:    cfg.Upload.MaxBytes,
		ErrorHandler: customErrorHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	})

	// Setup global middlewares
	app.Use(middleware.Recovery())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS())

	// Setup routes
	identity := middleware.Identity(authService, cfg.Auth.AnonymousCookieTTL)
	handler.SetupRoutes(
		app,
		authHandler,
		detectHandler,
		mapHandler,
		reportHandler,
		healthHandler,
		identity,
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Periodic purge of expired session rows
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := authService.CleanupExpiredSessions(context.Background()); err != nil {
					log.Printf("[AUTH] session cleanup failed: %v", err)
				} else if n > 0 {
					log.Printf("[AUTH] purged %d expired sessions", n)
				}
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		log.Printf("🚀 Server starting on http://localhost%s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		if err := app.Listen(addr); err != nil {
			log.Printf("❌ Server failed to start: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("⏳ Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✓ Server stopped")
}

// initCache connects to Redis when enabled. A nil cache is valid and simply
// never hits.
func initCache(cfg *config.Config) (*cache.Cache, *redis.Client, error) {
	if !cfg.Redis.Enabled {
		return nil, nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis at %s: %w", cfg.Redis.Addr(), err)
	}

	return cache.New(client, cfg.Redis.CacheTTL), client, nil
}

// customErrorHandler shapes Fiber-level errors (404s, body size limits) into
// the API's error envelope.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"code":    "http_error",
		"message": message,
	})
}
