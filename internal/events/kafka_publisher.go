package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/domain/booking"
	"github.com/urbanfix/service-dispatch/internal/platform/kafka"
)

const publishTimeout = 5 * time.Second

// KafkaEventPublisher publishes booking transitions and arrival alerts to
// Kafka. All publishes run on background goroutines so a slow or down broker
// never delays a state transition or a location ingest.
type KafkaEventPublisher struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewKafkaEventPublisher creates a new KafkaEventPublisher.
func NewKafkaEventPublisher(producer *kafka.Producer, logger *zap.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, logger: logger}
}

// PublishBookingEvent emits a booking.status.changed event. Fire-and-forget:
// failures are logged, never surfaced to the caller.
func (p *KafkaEventPublisher) PublishBookingEvent(_ context.Context, evt booking.DomainEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		cloudEvent, err := kafka.NewCloudEvent(EventSource, BookingStatusChanged, evt)
		if err != nil {
			p.logger.Error("failed to build booking event",
				zap.String("booking_id", evt.BookingID.String()),
				zap.Error(err),
			)
			return
		}

		if err := p.producer.PublishKeyed(ctx, TopicBookingEvents, evt.BookingID.String(), cloudEvent); err != nil {
			p.logger.Error("failed to publish booking event",
				zap.String("booking_id", evt.BookingID.String()),
				zap.String("event", evt.Event.String()),
				zap.Error(err),
			)
		}
	}()
}

// PublishArrivalAlert emits a tracking.provider.arriving_soon event.
func (p *KafkaEventPublisher) PublishArrivalAlert(_ context.Context, alert application.ArrivalAlert) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		cloudEvent, err := kafka.NewCloudEvent(EventSource, ProviderArrivingSoon, alert)
		if err != nil {
			p.logger.Error("failed to build arrival alert",
				zap.String("booking_id", alert.BookingID.String()),
				zap.Error(err),
			)
			return
		}

		if err := p.producer.PublishKeyed(ctx, TopicTrackingAlerts, alert.BookingID.String(), cloudEvent); err != nil {
			p.logger.Error("failed to publish arrival alert",
				zap.String("booking_id", alert.BookingID.String()),
				zap.Error(err),
			)
		}
	}()
}
