package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	"github.com/urbanfix/service-dispatch/internal/domain/tracking"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
	"github.com/urbanfix/service-dispatch/internal/platform/kafka"
)

// LocationReportPayload is the wire format of a provider location report.
type LocationReportPayload struct {
	BookingID      uuid.UUID `json:"booking_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	CapturedAt     time.Time `json:"captured_at"`
}

// LocationReportConsumer listens to provider location reports and feeds them
// into the dispatch coordinator.
type LocationReportConsumer struct {
	consumer    *kafka.Consumer
	coordinator *application.DispatchCoordinator
	logger      *zap.Logger
}

// NewLocationReportConsumer creates a new LocationReportConsumer.
func NewLocationReportConsumer(
	brokers []string,
	groupID string,
	coordinator *application.DispatchCoordinator,
	logger *zap.Logger,
) *LocationReportConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicLocationReports, logger)
	return &LocationReportConsumer{
		consumer:    consumer,
		coordinator: coordinator,
		logger:      logger,
	}
}

// Start begins consuming location reports. Blocks until the context is
// cancelled.
func (c *LocationReportConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *LocationReportConsumer) Close() error {
	return c.consumer.Close()
}

func (c *LocationReportConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from location topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	if cloudEvent.Type != ProviderLocationReported {
		c.logger.Debug("ignoring unhandled location event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var payload LocationReportPayload
	if err := cloudEvent.ParseData(&payload); err != nil {
		c.logger.Error("failed to parse location report data", zap.Error(err))
		return nil
	}

	sample := tracking.LocationSample{
		BookingID:      payload.BookingID,
		Position:       geo.Coordinate{Latitude: payload.Latitude, Longitude: payload.Longitude},
		AccuracyMeters: payload.AccuracyMeters,
		CapturedAt:     payload.CapturedAt,
		ReceivedAt:     time.Now().UTC(),
	}

	result, err := c.coordinator.ReportLocation(ctx, payload.BookingID, sample)
	if err != nil {
		// Reports for unknown or no-longer-tracked bookings are expected
		// around lifecycle edges; retrying them cannot succeed.
		switch domain.CodeOf(err) {
		case domain.CodeNotFound, domain.CodeNoActiveSession, domain.CodeSessionClosed:
			c.logger.Debug("dropping location report",
				zap.String("booking_id", payload.BookingID.String()),
				zap.String("code", string(domain.CodeOf(err))),
			)
			return nil
		default:
			return err
		}
	}

	if !result.Accepted {
		c.logger.Debug("location sample rejected",
			zap.String("booking_id", payload.BookingID.String()),
			zap.String("reason", string(result.Reason)),
		)
	}
	return nil
}
