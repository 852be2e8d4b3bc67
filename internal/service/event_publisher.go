package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yadev07/cs-eventsphere-backend/internal/domain"
	"github.com/yadev07/cs-eventsphere-backend/pkg/kafka"
)

// EventPublisher defines the interface for publishing registration lifecycle
// events. Downstream consumers (notifications, analytics) feed off this topic.
type EventPublisher interface {
	// PublishRegistrationCreated publishes a registration created event
	PublishRegistrationCreated(ctx context.Context, registration *domain.Registration) error

	// PublishRegistrationCancelled publishes a registration cancelled event
	PublishRegistrationCancelled(ctx context.Context, registration *domain.Registration) error

	// PublishAttendanceMarked publishes an attendance marked event
	PublishAttendanceMarked(ctx context.Context, registration *domain.Registration) error

	// PublishStatusUpdated publishes a status updated event
	PublishStatusUpdated(ctx context.Context, registration *domain.Registration) error

	// Close closes the event publisher
	Close() error
}

// KafkaEventPublisher implements EventPublisher using Kafka
type KafkaEventPublisher struct {
	producer    *kafka.Producer
	topic       string
	serviceName string
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	Brokers     []string
	Topic       string
	ServiceName string
	ClientID    string
}

// NewKafkaEventPublisher creates a new Kafka event publisher
func NewKafkaEventPublisher(ctx context.Context, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("event publisher config is required")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = "registration-events"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "eventsphere"
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "eventsphere-producer"
	}

	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:       cfg.Brokers,
		ClientID:      clientID,
		MaxRetries:    3,
		RetryInterval: 2 * time.Second,
		BatchSize:     100,
		LingerMs:      10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &KafkaEventPublisher{
		producer:    producer,
		topic:       topic,
		serviceName: serviceName,
	}, nil
}

// PublishRegistrationCreated publishes a registration created event
func (p *KafkaEventPublisher) PublishRegistrationCreated(ctx context.Context, registration *domain.Registration) error {
	return p.publishEvent(ctx, domain.RegistrationEventCreated, registration)
}

// PublishRegistrationCancelled publishes a registration cancelled event
func (p *KafkaEventPublisher) PublishRegistrationCancelled(ctx context.Context, registration *domain.Registration) error {
	return p.publishEvent(ctx, domain.RegistrationEventCancelled, registration)
}

// PublishAttendanceMarked publishes an attendance marked event
func (p *KafkaEventPublisher) PublishAttendanceMarked(ctx context.Context, registration *domain.Registration) error {
	return p.publishEvent(ctx, domain.RegistrationEventAttended, registration)
}

// PublishStatusUpdated publishes a status updated event
func (p *KafkaEventPublisher) PublishStatusUpdated(ctx context.Context, registration *domain.Registration) error {
	return p.publishEvent(ctx, domain.RegistrationEventStatusUpdated, registration)
}

// Close closes the event publisher
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		p.producer.Close()
	}
	return nil
}

// publishEvent publishes a registration event to Kafka, keyed by the
// university event so per-event ordering is preserved
func (p *KafkaEventPublisher) publishEvent(ctx context.Context, eventType domain.RegistrationEventType, registration *domain.Registration) error {
	event := &domain.RegistrationEvent{
		EventID:      uuid.New().String(),
		Type:         eventType,
		Registration: registration,
		OccurredAt:   time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	headers := map[string]string{
		"event_type":   string(eventType),
		"event_id":     event.EventID,
		"source":       p.serviceName,
		"content_type": "application/json",
	}

	msg := &kafka.Message{
		Topic:     p.topic,
		Key:       []byte(event.Key()),
		Value:     value,
		Headers:   headers,
		Timestamp: time.Now(),
	}

	if err := p.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher for testing
// and for running without a Kafka broker
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// PublishRegistrationCreated is a no-op
func (p *NoOpEventPublisher) PublishRegistrationCreated(ctx context.Context, registration *domain.Registration) error {
	return nil
}

// PublishRegistrationCancelled is a no-op
func (p *NoOpEventPublisher) PublishRegistrationCancelled(ctx context.Context, registration *domain.Registration) error {
	return nil
}

// PublishAttendanceMarked is a no-op
func (p *NoOpEventPublisher) PublishAttendanceMarked(ctx context.Context, registration *domain.Registration) error {
	return nil
}

// PublishStatusUpdated is a no-op
func (p *NoOpEventPublisher) PublishStatusUpdated(ctx context.Context, registration *domain.Registration) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}
