package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/scriptsure-ai/grading-api/internal/assessment"
	"github.com/scriptsure-ai/grading-api/internal/config"
	"github.com/scriptsure-ai/grading-api/internal/database"
	"github.com/scriptsure-ai/grading-api/internal/handler"
	"github.com/scriptsure-ai/grading-api/internal/middleware"
	"github.com/scriptsure-ai/grading-api/internal/models"
	"github.com/scriptsure-ai/grading-api/internal/repository"
	"github.com/scriptsure-ai/grading-api/internal/router"
	"github.com/scriptsure-ai/grading-api/internal/service"
	cloud "github.com/scriptsure-ai/grading-api/pkg/cloudinary"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Assignment{},
		&models.GradingResult{},
		&models.ModelPerformance{},
		&models.SystemMetrics{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		log.Fatalf("failed to create cloudinary client: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	resultRepo := repository.NewGradingResultRepository(db)
	telemetryRepo := repository.NewTelemetryRepository(db)

	runner := assessment.NewRunner(cfg.AssessmentStageDelay, logger)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.JWTTokenTTL, logger)
	gradingService := service.NewGradingService(assignmentRepo, resultRepo, runner, uploader, redisClient, cfg.HistoryCacheTTL, cfg.AssessmentRunTimeout, validate, logger)
	insightsService := service.NewInsightsService(telemetryRepo, assignmentRepo, resultRepo, userRepo, redisClient, cfg.InsightsCacheTTL, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, validate, logger)
	insightsHandler := handler.NewInsightsHandler(insightsService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:     authHandler,
		GradingHandler:  gradingHandler,
		InsightsHandler: insightsHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
