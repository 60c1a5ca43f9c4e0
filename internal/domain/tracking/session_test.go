package tracking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanfix/service-dispatch/internal/domain/booking"
	"github.com/urbanfix/service-dispatch/internal/domain/geo"
)

func newTestSession(t *testing.T) (*Session, *Stream, *[]TrackingState) {
	t.Helper()
	bookingID := uuid.New()
	stream := NewStream(bookingID, time.Hour, 50)
	customer := geo.Coordinate{Latitude: -6.2, Longitude: 106.8}

	published := &[]TrackingState{}
	session := NewSession(bookingID, customer, stream, 8.3, func(state TrackingState) {
		*published = append(*published, state)
	})
	return session, stream, published
}

func statusEvent(bookingID uuid.UUID, from, to booking.Status, evt booking.Event) booking.DomainEvent {
	return booking.DomainEvent{
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		Event:      evt,
		Actor:      booking.Actor{Type: booking.ActorProvider, ID: uuid.New()},
		Timestamp:  time.Now().UTC(),
	}
}

func TestSessionInitialState(t *testing.T) {
	session, _, published := newTestSession(t)

	state := session.Snapshot()
	assert.Equal(t, booking.StatusAccepted, state.Status)
	assert.Nil(t, state.ProviderPosition)
	assert.Zero(t, state.DistanceMeters)
	assert.False(t, state.Final)
	assert.False(t, session.Closed())
	assert.Empty(t, *published)
}

func TestSessionRecomputesOnAcceptedSample(t *testing.T) {
	session, stream, published := newTestSession(t)
	now := time.Now().UTC()

	res := stream.Ingest(sampleAt(now, now, -6.21, 106.8))
	require.True(t, res.Accepted)

	require.Len(t, *published, 1)
	state := (*published)[0]
	require.NotNil(t, state.ProviderPosition)
	assert.InDelta(t, 1112, state.DistanceMeters, 10)
	assert.InDelta(t, state.DistanceMeters/8.3, state.ETASeconds, 1e-9)
	assert.Len(t, state.RouteHistory, 1)
	assert.False(t, state.Final)

	// Snapshot agrees with the published state.
	snap := session.Snapshot()
	assert.Equal(t, state.DistanceMeters, snap.DistanceMeters)
}

func TestSessionRejectedSampleDoesNotPublish(t *testing.T) {
	_, stream, published := newTestSession(t)
	now := time.Now().UTC()

	require.True(t, stream.Ingest(sampleAt(now, now, -6.21, 106.8)).Accepted)
	require.False(t, stream.Ingest(sampleAt(now.Add(-time.Minute), now, -6.22, 106.8)).Accepted)

	assert.Len(t, *published, 1)
}

func TestSessionStatusUpdates(t *testing.T) {
	session, _, published := newTestSession(t)

	session.OnBookingEvent(statusEvent(session.BookingID(), booking.StatusAccepted, booking.StatusInProgress, booking.EventProviderStart))

	require.Len(t, *published, 1)
	assert.Equal(t, booking.StatusInProgress, (*published)[0].Status)
	assert.False(t, (*published)[0].Final)
	assert.False(t, session.Closed())
}

func TestSessionFinalSnapshot(t *testing.T) {
	session, stream, published := newTestSession(t)
	now := time.Now().UTC()

	require.True(t, stream.Ingest(sampleAt(now, now, -6.21, 106.8)).Accepted)
	session.OnBookingEvent(statusEvent(session.BookingID(), booking.StatusAccepted, booking.StatusInProgress, booking.EventProviderStart))
	session.OnBookingEvent(statusEvent(session.BookingID(), booking.StatusInProgress, booking.StatusCompleted, booking.EventProviderComplete))

	require.Len(t, *published, 3)
	final := (*published)[2]
	assert.True(t, final.Final)
	assert.Equal(t, booking.StatusCompleted, final.Status)
	// The final snapshot retains the last position and route.
	require.NotNil(t, final.ProviderPosition)
	assert.Len(t, final.RouteHistory, 1)
	assert.True(t, session.Closed())
}

func TestSessionClosedIsIdempotent(t *testing.T) {
	session, stream, published := newTestSession(t)
	now := time.Now().UTC()

	session.OnBookingEvent(statusEvent(session.BookingID(), booking.StatusAccepted, booking.StatusCancelled, booking.EventCustomerCancel))
	require.Len(t, *published, 1)
	require.True(t, session.Closed())

	// Neither late events nor late samples publish anything further.
	session.OnBookingEvent(statusEvent(session.BookingID(), booking.StatusCancelled, booking.StatusCancelled, booking.EventCustomerCancel))
	stream.Ingest(sampleAt(now, now, -6.21, 106.8))

	assert.Len(t, *published, 1)
}

func TestSessionSnapshotIsImmutable(t *testing.T) {
	session, stream, _ := newTestSession(t)
	now := time.Now().UTC()
	require.True(t, stream.Ingest(sampleAt(now, now, -6.21, 106.8)).Accepted)

	snap := session.Snapshot()
	snap.ProviderPosition.Position.Latitude = 0
	snap.RouteHistory[0].Position.Latitude = 0

	fresh := session.Snapshot()
	assert.Equal(t, -6.21, fresh.ProviderPosition.Position.Latitude)
	assert.Equal(t, -6.21, fresh.RouteHistory[0].Position.Latitude)
}
