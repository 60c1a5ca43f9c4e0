package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/config"
	"github.com/urbanfix/service-dispatch/internal/domain/tracking"
	dispatchEvents "github.com/urbanfix/service-dispatch/internal/events"
	"github.com/urbanfix/service-dispatch/internal/handler"
	"github.com/urbanfix/service-dispatch/internal/platform/auth"
	"github.com/urbanfix/service-dispatch/internal/platform/database"
	"github.com/urbanfix/service-dispatch/internal/platform/health"
	"github.com/urbanfix/service-dispatch/internal/platform/kafka"
	"github.com/urbanfix/service-dispatch/internal/platform/logger"
	"github.com/urbanfix/service-dispatch/internal/platform/metrics"
	"github.com/urbanfix/service-dispatch/internal/platform/middleware"
	"github.com/urbanfix/service-dispatch/internal/repository"
	"github.com/urbanfix/service-dispatch/internal/scheduler"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-dispatch")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-dispatch",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		DBName:   cfg.DB.DBName,
		SSLMode:  cfg.DB.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.BookingModel{}, &repository.ProviderModel{}, &repository.TrackLogModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := dbConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWT.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize Kafka producer and outbound publisher
	kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()
	publisher := dispatchEvents.NewKafkaEventPublisher(kafkaProducer, log)

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	providerRepo := repository.NewGormProviderRepository(db)
	trackLogRepo := repository.NewGormTrackLogRepository(db)

	// Initialize metrics
	recorder := metrics.NewDefault()

	// Initialize the dispatch coordinator
	speedModel := tracking.NewFixedSpeedModel(cfg.Tracking.AssumedProviderSpeedMps)
	coordinator := application.NewDispatchCoordinator(
		bookingRepo,
		providerRepo,
		trackLogRepo,
		speedModel,
		publisher,
		recorder,
		log,
		cfg.Tracking,
	)

	providerService := application.NewProviderService(providerRepo, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and start the location report consumer in a goroutine
	groupID := cfg.Kafka.GroupPrefix + "dispatch-service"
	locationConsumer := dispatchEvents.NewLocationReportConsumer(
		cfg.Kafka.Brokers,
		groupID,
		coordinator,
		log,
	)
	defer func() { _ = locationConsumer.Close() }()

	go func() {
		log.Info("starting location report consumer")
		if err := locationConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("location report consumer error", zap.Error(err))
		}
	}()

	// Start the pending timeout sweeper
	timeoutScheduler := scheduler.NewPendingTimeoutScheduler(
		bookingRepo,
		coordinator,
		cfg.Tracking.PendingTimeout,
		time.Minute,
		log,
	)
	go timeoutScheduler.Run(ctx)

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(coordinator)
	trackingHandler := handler.NewTrackingHandler(coordinator)
	providerHandler := handler.NewProviderHandler(providerService)
	adminHandler := handler.NewAdminHandler(coordinator, providerService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-dispatch")
	healthHandler.RegisterRoutes(router)

	// Expose Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	trackingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	providerHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server. No WriteTimeout: the tracking stream endpoint
	// holds connections open.
	srv := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-dispatch...")

	// Stop the consumer and the sweeper
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-dispatch stopped")
}
