package metrics

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yadev07/cs-eventsphere-backend/pkg/telemetry"
)

var (
	// Registration counters
	RegistrationsCreated   *telemetry.Counter
	RegistrationsCancelled *telemetry.Counter
	RegistrationsRejected  *telemetry.Counter
	AttendanceMarked       *telemetry.Counter
	RegistrationsFailed    *telemetry.Counter

	// Storage conflict tracking: first attempt vs retry outcome
	StorageConflicts *telemetry.Counter

	// Status reconciler counters
	StatusTransitions *telemetry.Counter

	// Histograms
	RequestDuration *telemetry.Histogram

	// Gauges
	ActiveRegistrations *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all registration metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	RegistrationsCreated, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "registrations_created_total",
		Description: "Total number of registrations created",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RegistrationsCancelled, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "registrations_cancelled_total",
		Description: "Total number of registrations cancelled",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RegistrationsRejected, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "registrations_rejected_total",
		Description: "Total number of registrations rejected by coordinators",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	AttendanceMarked, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "attendance_marked_total",
		Description: "Total number of attendance markings recorded",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RegistrationsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "registrations_failed_total",
		Description: "Total number of failed registration attempts by reason",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	StorageConflicts, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "registration_storage_conflicts_total",
		Description: "Total number of concurrent write conflicts by outcome",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	StatusTransitions, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "event_status_transitions_total",
		Description: "Total number of event phase transitions persisted",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	RequestDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "registration_request_duration_seconds",
		Description: "HTTP request duration in seconds",
		Unit:        "s",
	}, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10})
	if err != nil {
		return err
	}

	ActiveRegistrations, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "registrations_active",
		Description: "Current number of active registrations",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	return nil
}

// RecordRegistration records a successful registration
func RecordRegistration(ctx context.Context, eventID string) {
	if RegistrationsCreated != nil {
		RegistrationsCreated.Inc(ctx, attribute.String("event_id", eventID))
	}
	if ActiveRegistrations != nil {
		ActiveRegistrations.Inc(ctx)
	}
}

// RecordCancellation records a registration cancellation
func RecordCancellation(ctx context.Context, eventID string) {
	if RegistrationsCancelled != nil {
		RegistrationsCancelled.Inc(ctx, attribute.String("event_id", eventID))
	}
	if ActiveRegistrations != nil {
		ActiveRegistrations.Dec(ctx)
	}
}

// RecordRejection records a coordinator rejection
func RecordRejection(ctx context.Context, eventID string) {
	if RegistrationsRejected != nil {
		RegistrationsRejected.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordAttendance records an attendance marking
func RecordAttendance(ctx context.Context, eventID string) {
	if AttendanceMarked != nil {
		AttendanceMarked.Inc(ctx, attribute.String("event_id", eventID))
	}
}

// RecordFailure records a failed registration attempt
func RecordFailure(ctx context.Context, eventID, reason string) {
	if RegistrationsFailed != nil {
		RegistrationsFailed.Inc(ctx,
			attribute.String("event_id", eventID),
			attribute.String("reason", reason),
		)
	}
}

// RecordStorageConflict records a concurrent write conflict. Outcome is
// "retried" when the operation was retried, "exhausted" when the retry
// also conflicted.
func RecordStorageConflict(ctx context.Context, outcome string) {
	if StorageConflicts != nil {
		StorageConflicts.Inc(ctx, attribute.String("outcome", outcome))
	}
}

// RecordStatusTransition records a persisted event phase transition
func RecordStatusTransition(ctx context.Context, from, to string) {
	if StatusTransitions != nil {
		StatusTransitions.Inc(ctx,
			attribute.String("from", from),
			attribute.String("to", to),
		)
	}
}

// RecordRequestDuration records HTTP request duration
func RecordRequestDuration(ctx context.Context, operation string, durationSeconds float64) {
	if RequestDuration != nil {
		RequestDuration.Record(ctx, durationSeconds,
			attribute.String("operation", operation),
		)
	}
}
