package di

import (
	"github.com/yadev07/cs-eventsphere-backend/internal/handler"
	"github.com/yadev07/cs-eventsphere-backend/internal/repository"
	"github.com/yadev07/cs-eventsphere-backend/internal/service"
	"github.com/yadev07/cs-eventsphere-backend/internal/worker"
	"github.com/yadev07/cs-eventsphere-backend/pkg/database"
	"github.com/yadev07/cs-eventsphere-backend/pkg/redis"
)

// Container holds all dependencies for the registration service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	EventRepo        repository.EventRepository
	RegistrationRepo repository.RegistrationRepository

	// Publishers
	EventPublisher service.EventPublisher

	// Services
	EventService        service.EventService
	RegistrationService service.RegistrationService

	// Handlers
	HealthHandler       *handler.HealthHandler
	EventHandler        *handler.EventHandler
	RegistrationHandler *handler.RegistrationHandler

	// Workers
	StatusReconciler *worker.StatusReconciler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	DB               *database.PostgresDB
	Redis            *redis.Client
	EventPublisher   service.EventPublisher
	ReconcilerConfig *worker.StatusReconcilerConfig
}

// NewContainer creates a new dependency injection container. When Redis is
// configured the event repository is wrapped in a read-through cache and the
// registration service invalidates entries on counter writes.
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:             cfg.DB,
		Redis:          cfg.Redis,
		EventPublisher: cfg.EventPublisher,
	}

	// Initialize repositories
	pgEventRepo := repository.NewPostgresEventRepository(c.DB.Pool())
	c.RegistrationRepo = repository.NewPostgresRegistrationRepository(c.DB.Pool())

	var invalidator repository.EventCacheInvalidator
	if c.Redis != nil {
		cached := repository.NewCachedEventRepository(pgEventRepo, c.Redis, repository.DefaultEventCacheTTL)
		c.EventRepo = cached
		invalidator = cached
	} else {
		c.EventRepo = pgEventRepo
	}

	// Initialize services
	c.EventService = service.NewEventService(c.EventRepo)
	c.RegistrationService = service.NewRegistrationService(
		c.RegistrationRepo,
		c.EventRepo,
		invalidator,
		c.EventPublisher,
	)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.RegistrationHandler = handler.NewRegistrationHandler(c.RegistrationService)

	// Initialize workers
	c.StatusReconciler = worker.NewStatusReconciler(c.EventService, cfg.ReconcilerConfig)

	return c
}
