package tracking

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/domain/booking"
	"github.com/urbanfix/service-dispatch/internal/domain/geo"
)

// Session owns the derived live view for one active booking, from acceptance
// until a terminal status. It recomputes distance and ETA whenever the
// stream accepts a sample or the booking transitions, and hands each new
// snapshot to the publish callback.
type Session struct {
	mu sync.Mutex

	bookingID   uuid.UUID
	customerPos geo.Coordinate
	stream      *Stream
	speedMps    float64
	publish     func(TrackingState)

	state  TrackingState
	closed bool
}

// NewSession creates a Session for a booking that just entered accepted and
// wires itself to the stream's accept notifications.
func NewSession(
	bookingID uuid.UUID,
	customerPos geo.Coordinate,
	stream *Stream,
	speedMps float64,
	publish func(TrackingState),
) *Session {
	s := &Session{
		bookingID:   bookingID,
		customerPos: customerPos,
		stream:      stream,
		speedMps:    speedMps,
		publish:     publish,
		state: TrackingState{
			BookingID:        bookingID,
			Status:           booking.StatusAccepted,
			CustomerPosition: customerPos,
			LastUpdatedAt:    time.Now().UTC(),
		},
	}
	stream.OnAccepted(s.onLocationAccepted)
	return s
}

// onLocationAccepted recomputes the derived fields from a freshly accepted
// sample and publishes the new snapshot.
func (s *Session) onLocationAccepted(sample LocationSample) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	// The stream has already validated the coordinate.
	distance, err := geo.DistanceMeters(sample.Position, s.customerPos)
	if err != nil {
		s.mu.Unlock()
		return
	}

	s.state.ProviderPosition = &sample
	s.state.DistanceMeters = distance
	s.state.ETASeconds = geo.ETASeconds(distance, s.speedMps)
	s.state.RouteHistory = s.stream.History()
	s.state.LastUpdatedAt = sample.ReceivedAt.UTC()

	snapshot := s.state.clone()
	s.mu.Unlock()

	s.publish(snapshot)
}

// OnBookingEvent updates the cached status. On a tracking-ending status it
// publishes a final snapshot and closes the session; closing is idempotent.
func (s *Session) OnBookingEvent(evt booking.DomainEvent) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.state.Status = evt.ToStatus
	s.state.LastUpdatedAt = evt.Timestamp

	if evt.ToStatus.EndsTracking() {
		s.state.Final = true
		s.closed = true
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.publish(snapshot)
}

// Snapshot returns an immutable copy of the current TrackingState.
func (s *Session) Snapshot() TrackingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// BookingID returns the booking this session tracks.
func (s *Session) BookingID() uuid.UUID {
	return s.bookingID
}
