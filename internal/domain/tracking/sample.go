package tracking

import (
	"time"

	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/domain/geo"
)

// LocationSample is one reported provider position for a booking.
type LocationSample struct {
	BookingID      uuid.UUID      `json:"booking_id"`
	Position       geo.Coordinate `json:"position"`
	AccuracyMeters *float64       `json:"accuracy_meters,omitempty"`
	// CapturedAt is the producer-side timestamp of the fix.
	CapturedAt time.Time `json:"captured_at"`
	// ReceivedAt is stamped at ingestion.
	ReceivedAt time.Time `json:"received_at"`
}

// RejectReason classifies why a sample was not accepted.
type RejectReason string

const (
	RejectStale             RejectReason = "stale"
	RejectOutOfOrder        RejectReason = "out_of_order"
	RejectInvalidCoordinate RejectReason = "invalid_coordinate"
)

// IngestResult reports the outcome of one Ingest call. A rejection is a
// normal outcome, not an error.
type IngestResult struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
}

func accepted() IngestResult {
	return IngestResult{Accepted: true}
}

func rejected(reason RejectReason) IngestResult {
	return IngestResult{Accepted: false, Reason: reason}
}
