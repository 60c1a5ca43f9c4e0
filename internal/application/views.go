package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/domain/booking"
)

// BookingView is the response representation of a booking.
type BookingView struct {
	ID              uuid.UUID              `json:"id"`
	CustomerID      uuid.UUID              `json:"customer_id"`
	ProviderID      *uuid.UUID             `json:"provider_id,omitempty"`
	ServiceID       uuid.UUID              `json:"service_id"`
	Status          string                 `json:"status"`
	ScheduledAt     time.Time              `json:"scheduled_at"`
	ServiceAddress  booking.ServiceAddress `json:"service_address"`
	Notes           string                 `json:"notes,omitempty"`
	StatusNote      string                 `json:"status_note,omitempty"`
	Version         int64                  `json:"version"`
	CreatedAt       time.Time              `json:"created_at"`
	StatusUpdatedAt time.Time              `json:"status_updated_at"`
}

func toBookingView(bk *booking.Booking) BookingView {
	return BookingView{
		ID:              bk.ID(),
		CustomerID:      bk.CustomerID(),
		ProviderID:      bk.ProviderID(),
		ServiceID:       bk.ServiceID(),
		Status:          string(bk.Status()),
		ScheduledAt:     bk.ScheduledAt(),
		ServiceAddress:  bk.ServiceAddress(),
		Notes:           bk.Notes(),
		StatusNote:      bk.StatusNote(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		StatusUpdatedAt: bk.StatusUpdatedAt(),
	}
}

// ArrivalAlert is emitted when a booking's ETA first drops below a
// configured threshold.
type ArrivalAlert struct {
	BookingID        uuid.UUID `json:"booking_id"`
	ProviderID       uuid.UUID `json:"provider_id"`
	ETASeconds       float64   `json:"eta_seconds"`
	ThresholdSeconds float64   `json:"threshold_seconds"`
	DistanceMeters   float64   `json:"distance_meters"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// EventPublisher is the outbound port to the notification collaborator.
// Implementations must not block the caller; delivery is fire-and-forget
// relative to the transition or ingest that produced the event.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, evt booking.DomainEvent)
	PublishArrivalAlert(ctx context.Context, alert ArrivalAlert)
}

// NopPublisher discards all events. Used in tests and local runs without
// a broker.
type NopPublisher struct{}

func (NopPublisher) PublishBookingEvent(context.Context, booking.DomainEvent) {}
func (NopPublisher) PublishArrivalAlert(context.Context, ArrivalAlert)        {}

// BookingStats holds aggregate booking counts for the admin surface.
type BookingStats struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}
