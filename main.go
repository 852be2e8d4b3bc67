package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yadev07/cs-eventsphere-backend/internal/di"
	"github.com/yadev07/cs-eventsphere-backend/internal/metrics"
	"github.com/yadev07/cs-eventsphere-backend/internal/service"
	"github.com/yadev07/cs-eventsphere-backend/internal/worker"
	"github.com/yadev07/cs-eventsphere-backend/pkg/config"
	"github.com/yadev07/cs-eventsphere-backend/pkg/database"
	"github.com/yadev07/cs-eventsphere-backend/pkg/logger"
	"github.com/yadev07/cs-eventsphere-backend/pkg/middleware"
	pkgredis "github.com/yadev07/cs-eventsphere-backend/pkg/redis"
	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: "registration-service",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Registration Service...")

	ctx := context.Background()

	// Initialize telemetry
	telCfg := &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}
	if _, err := telemetry.Init(ctx, telCfg); err != nil {
		appLog.Warn(fmt.Sprintf("Telemetry init failed, continuing without tracing: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Initialize Redis connection. The event cache is optional; the service
	// degrades to uncached reads if Redis is unavailable.
	var redisClient *pkgredis.Client
	redisCfg := &pkgredis.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
	redisClient, err = pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Redis connection failed, event cache disabled: %v", err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		appLog.Info("Redis connected")
	}

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher
	eventPubCfg := &service.EventPublisherConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		ServiceName: "registration-service",
		ClientID:    cfg.Kafka.ClientID,
	}
	eventPublisher, err = service.NewKafkaEventPublisher(ctx, eventPubCfg)
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		eventPublisher = service.NewNoOpEventPublisher()
	} else {
		appLog.Info("Kafka event publisher connected")
	}
	defer eventPublisher.Close()

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		EventPublisher: eventPublisher,
		ReconcilerConfig: &worker.StatusReconcilerConfig{
			ScanInterval: cfg.Worker.ReconcileInterval,
			BatchSize:    cfg.Worker.ReconcileBatchSize,
		},
	})

	// Start the in-process status reconciler. Deployments that run the
	// standalone cmd/status-reconciler binary can disable it with a zero
	// interval.
	if cfg.Worker.ReconcileInterval > 0 {
		if err := container.StatusReconciler.Start(ctx); err != nil {
			appLog.Fatal(fmt.Sprintf("Failed to start status reconciler: %v", err))
		}
		defer container.StatusReconciler.Stop()
	}

	// Setup Gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DisableConsoleColor()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))
	router.Use(requestDurationMiddleware())

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Worker stats for monitoring
	router.GET("/stats/reconciler", func(c *gin.Context) {
		c.JSON(http.StatusOK, container.StatusReconciler.GetStats())
	})

	authMw := middleware.AuthMiddleware(&middleware.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
	})

	// Idempotency needs Redis; without it write requests pass through
	idem := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if redisClient != nil {
		idem = middleware.IdempotencyMiddleware(middleware.DefaultIdempotencyConfig(redisClient.Client()))
	}
	organizerOnly := middleware.RequireRole("organizer", "admin")

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(authMw)
	{
		events := v1.Group("/events")
		{
			events.POST("", organizerOnly, idem, container.EventHandler.CreateEvent)
			events.GET("", container.EventHandler.ListEvents)
			events.GET("/:id", container.EventHandler.GetEvent)
			events.DELETE("/:id", organizerOnly, container.EventHandler.DeleteEvent)

			events.POST("/:id/registrations", idem, container.RegistrationHandler.Register)
			events.DELETE("/:id/registrations", idem, container.RegistrationHandler.Unregister)
			events.GET("/:id/registrations", container.RegistrationHandler.GetRoster)
			events.GET("/:id/registrations/me", container.RegistrationHandler.GetMyRegistration)

			events.POST("/:id/attendance", organizerOnly, idem, container.RegistrationHandler.MarkAttendance)
		}

		registrations := v1.Group("/registrations")
		{
			registrations.GET("", container.RegistrationHandler.GetMyRegistrations)
			registrations.PATCH("/:id/status", organizerOnly, idem, container.RegistrationHandler.UpdateStatus)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// pprof on a side port, kept off the main listener
	go func() {
		pprofAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1000)
		appLog.Info(fmt.Sprintf("pprof server listening on %s", pprofAddr))
		if err := http.ListenAndServe(pprofAddr, nil); err != nil {
			appLog.Error(fmt.Sprintf("pprof server error: %v", err))
		}
	}()

	// Start server in goroutine
	go func() {
		appLog.Info(fmt.Sprintf("Registration Service listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}

// requestDurationMiddleware records per-route request latency
func requestDurationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequestDuration(c.Request.Context(),
			c.Request.Method+" "+route,
			time.Since(start).Seconds(),
		)
	}
}
