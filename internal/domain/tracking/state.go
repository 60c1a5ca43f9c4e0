package tracking

import (
	"time"

	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/domain/booking"
	"github.com/urbanfix/service-dispatch/internal/domain/geo"
)

// TrackingState is the derived live view of an in-flight booking. It is
// recomputed by the session and never independently mutated.
type TrackingState struct {
	BookingID        uuid.UUID        `json:"booking_id"`
	Status           booking.Status   `json:"status"`
	ProviderPosition *LocationSample  `json:"provider_position,omitempty"`
	CustomerPosition geo.Coordinate   `json:"customer_position"`
	DistanceMeters   float64          `json:"distance_meters"`
	ETASeconds       float64          `json:"eta_seconds"`
	RouteHistory     []LocationSample `json:"route_history,omitempty"`
	LastUpdatedAt    time.Time        `json:"last_updated_at"`
	Final            bool             `json:"final,omitempty"`
}

// clone returns a deep copy so subscribers never see live mutable state.
func (t TrackingState) clone() TrackingState {
	cp := t
	if t.ProviderPosition != nil {
		pos := *t.ProviderPosition
		cp.ProviderPosition = &pos
	}
	if t.RouteHistory != nil {
		cp.RouteHistory = make([]LocationSample, len(t.RouteHistory))
		copy(cp.RouteHistory, t.RouteHistory)
	}
	return cp
}
