package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yadev07/cs-eventsphere-backend/internal/repository"
	"github.com/yadev07/cs-eventsphere-backend/internal/service"
	"github.com/yadev07/cs-eventsphere-backend/internal/worker"
	"github.com/yadev07/cs-eventsphere-backend/pkg/config"
	"github.com/yadev07/cs-eventsphere-backend/pkg/database"
	"github.com/yadev07/cs-eventsphere-backend/pkg/logger"
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
		ServiceName: "status-reconciler",
		Development: cfg.IsDevelopment(),
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Status Reconciler...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to connect to database: %v", err))
	}
	defer db.Close()
	appLog.Info("Database connected")

	// The reconciler reads and writes the stored status column directly, so
	// it bypasses the Redis event cache on purpose.
	eventRepo := repository.NewPostgresEventRepository(db.Pool())
	eventService := service.NewEventService(eventRepo)

	reconciler := worker.NewStatusReconciler(eventService, &worker.StatusReconcilerConfig{
		ScanInterval: cfg.Worker.ReconcileInterval,
		BatchSize:    cfg.Worker.ReconcileBatchSize,
	})

	if err := reconciler.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start status reconciler: %v", err))
	}
	appLog.Info("Status reconciler started")

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down status reconciler...")
	cancel()
	reconciler.Stop()
	appLog.Info("Status reconciler stopped")
}
