package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TrackLog is the archived route of a finished booking, persisted when the
// session is torn down.
type TrackLog struct {
	ID                  uuid.UUID
	BookingID           uuid.UUID
	ProviderID          uuid.UUID
	Samples             []LocationSample
	FinalDistanceMeters float64
	StartedAt           time.Time
	EndedAt             time.Time
}

// NewTrackLog builds a TrackLog from a closed session's final state.
func NewTrackLog(bookingID, providerID uuid.UUID, state TrackingState) *TrackLog {
	log := &TrackLog{
		ID:                  uuid.New(),
		BookingID:           bookingID,
		ProviderID:          providerID,
		Samples:             state.RouteHistory,
		FinalDistanceMeters: state.DistanceMeters,
		EndedAt:             state.LastUpdatedAt,
	}
	if len(state.RouteHistory) > 0 {
		log.StartedAt = state.RouteHistory[0].CapturedAt
	}
	return log
}

// TrackLogRepository persists archived routes.
type TrackLogRepository interface {
	Save(ctx context.Context, log *TrackLog) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*TrackLog, error)
}
