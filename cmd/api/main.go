package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sql-dojo/backend/internal/data"
	"github.com/sql-dojo/backend/internal/handler"
	"github.com/sql-dojo/backend/internal/infrastructure"
	"github.com/sql-dojo/backend/internal/middleware"
	"github.com/sql-dojo/backend/internal/repository"
	"github.com/sql-dojo/backend/internal/sandbox"
	"github.com/sql-dojo/backend/internal/scoring"
	"github.com/sql-dojo/backend/internal/service"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional TOML config file")
	flag.Parse()

	// Load configuration
	config, err := infrastructure.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := infrastructure.NewLogger(config.Server.Environment)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.SyncLogger(logger)

	logger.Info("Starting SQL Dojo API",
		zap.String("environment", config.Server.Environment),
		zap.Int("port", config.Server.Port),
	)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize telemetry
	telemetry, err := infrastructure.NewTelemetry(ctx, &config.Telemetry, logger)
	if err != nil {
		logger.Error("Failed to initialize telemetry", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		telemetry.Shutdown(shutdownCtx)
	}()

	// Create metrics
	metrics, err := telemetry.CreateMetrics()
	if err != nil {
		logger.Error("Failed to create metrics", zap.Error(err))
		os.Exit(1)
	}

	// Initialize database
	database, err := infrastructure.NewDatabase(&config.Database, logger)
	if err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	competitionRepo := repository.NewCompetitionRepository(database.DB)
	problemRepo := repository.NewProblemRepository(database.DB)
	eventRepo := repository.NewEventRepository(database.DB)

	// Seed demo competition
	if config.Seed.DemoData {
		seeder := data.NewSeeder(competitionRepo, logger)
		if err := seeder.SeedDemo(ctx); err != nil {
			logger.Error("Failed to seed demo competition", zap.Error(err))
			os.Exit(1)
		}
	}

	// Connect to the solutions store and prepare the sandbox
	solutions, err := sandbox.NewSolutionStore(ctx, &config.Solutions, logger)
	if err != nil {
		logger.Error("Failed to connect to solutions database", zap.Error(err))
		os.Exit(1)
	}
	defer solutions.Close()

	executor := sandbox.NewExecutor(&config.Sandbox, metrics, logger)
	aggregator := scoring.NewAggregator(scoring.Options{
		MaxSolveTime:     config.Leaderboard.MaxSolveTime,
		IncorrectPenalty: config.Leaderboard.IncorrectPenalty,
		FeedLimit:        config.Leaderboard.FeedLimit,
	}, logger)

	// Initialize services
	identityService := service.NewIdentityService(userRepo, &config.JWT, telemetry.Tracer, logger)
	competitionService := service.NewCompetitionService(competitionRepo, telemetry.Tracer, logger)
	problemService := service.NewProblemService(problemRepo, eventRepo, telemetry.Tracer, logger)
	queryService := service.NewQueryService(problemRepo, eventRepo, executor, solutions, &config.Sandbox, telemetry.Tracer, logger)
	verificationService := service.NewVerificationService(problemRepo, eventRepo, executor, solutions, metrics, telemetry.Tracer, logger)
	leaderboardService := service.NewLeaderboardService(competitionRepo, userRepo, eventRepo, aggregator, telemetry.Tracer, logger)

	// Initialize handlers
	userHandler := handler.NewUserHandler()
	competitionHandler := handler.NewCompetitionHandler(competitionService)
	problemHandler := handler.NewProblemHandler(problemService, queryService, verificationService)
	leaderboardHandler, err := handler.NewLeaderboardHandler(leaderboardService, &config.Leaderboard, config.Server.AllowedOrigins, metrics, logger)
	if err != nil {
		logger.Error("Failed to create leaderboard handler", zap.Error(err))
		os.Exit(1)
	}

	// Setup Gin router
	if config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add global middleware
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.CORSMiddleware(middleware.NewCORSConfig(config.Server.AllowedOrigins)))
	router.Use(middleware.TracingMiddleware(telemetry.Tracer))
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.BodyLimitMiddleware(config.Server.MaxBodyBytes))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}
		if err := solutions.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "solutions database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": config.Telemetry.ServiceVersion,
		})
	})

	// Metrics endpoint for Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes, all authenticated
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(identityService))
	{
		users := api.Group("/users")
		{
			users.GET("/me", userHandler.GetCurrentUser)
		}

		competitions := api.Group("/competitions")
		{
			competitions.GET("", competitionHandler.ListCompetitions)
			competitions.GET("/:id", competitionHandler.GetCompetition)
			competitions.GET("/:id/leaderboard", leaderboardHandler.GetLeaderboard)
			competitions.GET("/:id/feed/stream", middleware.RequireAdmin(), leaderboardHandler.StreamFeed)
		}

		problems := api.Group("/problems")
		{
			problems.GET("/:id", problemHandler.GetProblem)
			problems.POST("/:id/open", problemHandler.OpenProblem)
			problems.POST("/:id/query", problemHandler.ExecuteQuery)
			problems.POST("/:id/verify", problemHandler.VerifyAnswer)
			problems.POST("/:id/feedback", problemHandler.SubmitFeedback)
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port),
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server starting",
			zap.String("address", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// Let background query logging finish before the database closes
	queryService.Wait()

	logger.Info("Server exited")
}
