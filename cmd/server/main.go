package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/localpro-market/service-booking/internal/application"
	"github.com/localpro-market/service-booking/internal/config"
	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
	bookingEvents "github.com/localpro-market/service-booking/internal/events"
	"github.com/localpro-market/service-booking/internal/handler"
	"github.com/localpro-market/service-booking/internal/metrics"
	"github.com/localpro-market/service-booking/internal/platform/auth"
	"github.com/localpro-market/service-booking/internal/platform/database"
	"github.com/localpro-market/service-booking/internal/platform/health"
	"github.com/localpro-market/service-booking/internal/platform/kafka"
	"github.com/localpro-market/service-booking/internal/platform/logger"
	"github.com/localpro-market/service-booking/internal/platform/middleware"
	"github.com/localpro-market/service-booking/internal/repository"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if err := database.RunMigrations(cfg.DBConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.Issuer, cfg.JWTConfig.TokenTTL)

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize Redis fee cache
	redisClient := repository.NewRedisClient(cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
	defer func() { _ = redisClient.Close() }()
	feeCache := repository.NewRedisFeeCache(redisClient, cfg.RedisConfig.FeeTTL)

	// Initialize repositories
	repos := repository.NewGormUnitOfWork(db)
	listings := repository.NewGormListingReader(db)
	feeRepo := repository.NewGormFeeSettingRepository(db)

	// Initialize application services
	feeService := application.NewFeeService(feeRepo, feeCache, log)
	requestService := application.NewRequestService(repos, kafkaProducer, log)
	offerService := application.NewOfferService(repos, cfg.PaymentConfig.Currency, kafkaProducer, log)
	bookingService := application.NewBookingService(repos, listings, kafkaProducer, log)
	paymentService := application.NewPaymentService(repos, cfg.PaymentConfig.OTPCode, kafkaProducer, log)
	disputeService := application.NewDisputeService(repos, kafkaProducer, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Seed the fee store on first boot
	defaults := feeDomain.Snapshot{
		CommissionRate: cfg.PaymentConfig.DefaultCommissionRate,
		FixedFeeCents:  cfg.PaymentConfig.DefaultFixedFeeCents,
	}
	if err := feeService.EnsureActive(ctx, defaults); err != nil {
		log.Fatal("failed to seed fee setting", zap.Error(err))
	}

	// Initialize and start gateway event consumer in a goroutine
	gatewayConsumer := bookingEvents.NewGatewayEventConsumer(
		cfg.KafkaConfig.Brokers,
		cfg.KafkaConfig.GroupID,
		paymentService,
		log,
	)
	defer func() { _ = gatewayConsumer.Close() }()

	go func() {
		log.Info("starting gateway event consumer")
		if err := gatewayConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("gateway event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	requestHandler := handler.NewRequestHandler(requestService)
	offerHandler := handler.NewOfferHandler(offerService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	paymentHandler := handler.NewPaymentHandler(paymentService, feeService)
	disputeHandler := handler.NewDisputeHandler(disputeService)
	adminHandler := handler.NewAdminHandler(bookingService, feeService)

	// Setup Gin router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	metrics.Register()
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins...))
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.MetricsMiddleware(metrics.IncHTTP))

	// Register health check and metrics routes
	healthHandler := health.NewHandler(db, serviceName)
	healthHandler.AddChecker("redis", feeCache.Ping)
	healthHandler.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register routes
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	limit := limiter.Middleware()
	requestHandler.RegisterRoutes(&router.RouterGroup, jwtManager, limit)
	offerHandler.RegisterRoutes(&router.RouterGroup, jwtManager, limit)
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager, limit)
	paymentHandler.RegisterRoutes(&router.RouterGroup, jwtManager, limit)
	disputeHandler.RegisterRoutes(&router.RouterGroup, jwtManager, limit)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-booking stopped")
}
