package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

func testAddress() ServiceAddress {
	return ServiceAddress{
		Line1:      "Jl. Sudirman 12",
		City:       "Jakarta",
		State:      "DKI Jakarta",
		PostalCode: "10220",
		Country:    "ID",
		Coordinate: geo.Coordinate{Latitude: -6.2088, Longitude: 106.8456},
	}
}

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	bk, err := NewBooking(uuid.New(), uuid.New(), testAddress(), time.Now().Add(2*time.Hour), "ring twice")
	require.NoError(t, err)
	return bk
}

func providerActor() Actor {
	return Actor{Type: ActorProvider, ID: uuid.New()}
}

func customerActor(id uuid.UUID) Actor {
	return Actor{Type: ActorCustomer, ID: id}
}

func TestNewBooking(t *testing.T) {
	t.Run("starts pending at version 1", func(t *testing.T) {
		bk := newTestBooking(t)
		assert.Equal(t, StatusPending, bk.Status())
		assert.Equal(t, int64(1), bk.Version())
		assert.Nil(t, bk.ProviderID())
		assert.False(t, bk.WasEverAssigned())
	})

	t.Run("requires customer", func(t *testing.T) {
		_, err := NewBooking(uuid.Nil, uuid.New(), testAddress(), time.Now(), "")
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.CodeValidation))
	})

	t.Run("requires valid address coordinate", func(t *testing.T) {
		addr := testAddress()
		addr.Coordinate.Latitude = 123
		_, err := NewBooking(uuid.New(), uuid.New(), addr, time.Now(), "")
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.CodeInvalidCoordinate))
	})

	t.Run("requires schedule", func(t *testing.T) {
		_, err := NewBooking(uuid.New(), uuid.New(), testAddress(), time.Time{}, "")
		assert.Error(t, err)
	})
}

func TestApplyHappyPath(t *testing.T) {
	bk := newTestBooking(t)
	prov := providerActor()
	now := time.Now().UTC()

	evt, err := bk.Apply(EventProviderAccept, prov, now, "")
	require.NoError(t, err)
	require.NotNil(t, evt)
	assert.Equal(t, StatusPending, evt.FromStatus)
	assert.Equal(t, StatusAccepted, evt.ToStatus)
	assert.Equal(t, StatusAccepted, bk.Status())
	require.NotNil(t, bk.ProviderID())
	assert.Equal(t, prov.ID, *bk.ProviderID())

	evt, err = bk.Apply(EventProviderStart, prov, now.Add(time.Minute), "")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, evt.ToStatus)

	evt, err = bk.Apply(EventProviderComplete, prov, now.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, evt.ToStatus)

	evt, err = bk.Apply(EventCustomerDispute, customerActor(bk.CustomerID()), now.Add(2*time.Hour), "work incomplete")
	require.NoError(t, err)
	assert.Equal(t, StatusDisputed, evt.ToStatus)
	assert.Equal(t, "work incomplete", evt.Reason)
	assert.Equal(t, "work incomplete", bk.StatusNote())
}

func TestApplyInvalidTransition(t *testing.T) {
	bk := newTestBooking(t)

	_, err := bk.Apply(EventProviderStart, providerActor(), time.Now(), "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
	assert.Equal(t, StatusPending, bk.Status())

	_, err = bk.Apply(EventProviderComplete, providerActor(), time.Now(), "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidState))

	_, err = bk.Apply(Event("teleport"), providerActor(), time.Now(), "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))
}

func TestApplyAcceptRequiresProviderActor(t *testing.T) {
	bk := newTestBooking(t)

	_, err := bk.Apply(EventProviderAccept, customerActor(uuid.New()), time.Now(), "")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeValidation))

	_, err = bk.Apply(EventProviderAccept, Actor{Type: ActorProvider}, time.Now(), "")
	require.Error(t, err)
	assert.Equal(t, StatusPending, bk.Status())
	assert.Nil(t, bk.ProviderID())
}

func TestApplyCancel(t *testing.T) {
	t.Run("from pending", func(t *testing.T) {
		bk := newTestBooking(t)
		evt, err := bk.Apply(EventCustomerCancel, customerActor(bk.CustomerID()), time.Now(), "changed my mind")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, evt.ToStatus)
		assert.False(t, bk.WasEverAssigned())
	})

	t.Run("from accepted keeps assignment", func(t *testing.T) {
		bk := newTestBooking(t)
		_, err := bk.Apply(EventProviderAccept, providerActor(), time.Now(), "")
		require.NoError(t, err)

		_, err = bk.Apply(EventCustomerCancel, customerActor(bk.CustomerID()), time.Now(), "")
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, bk.Status())
		assert.True(t, bk.WasEverAssigned())
	})

	t.Run("not from completed", func(t *testing.T) {
		bk := newTestBooking(t)
		prov := providerActor()
		for _, e := range []Event{EventProviderAccept, EventProviderStart, EventProviderComplete} {
			_, err := bk.Apply(e, prov, time.Now(), "")
			require.NoError(t, err)
		}

		_, err := bk.Apply(EventCustomerCancel, customerActor(bk.CustomerID()), time.Now(), "")
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.CodeInvalidState))
		assert.Equal(t, StatusCompleted, bk.Status())
	})
}

func TestApplySystemTimeout(t *testing.T) {
	t.Run("cancels pending", func(t *testing.T) {
		bk := newTestBooking(t)
		evt, err := bk.Apply(EventSystemTimeout, SystemActor, time.Now(), "no provider accepted in time")
		require.NoError(t, err)
		require.NotNil(t, evt)
		assert.Equal(t, StatusCancelled, evt.ToStatus)
		assert.Equal(t, ActorSystem, evt.Actor.Type)
	})

	t.Run("no-op after accept", func(t *testing.T) {
		bk := newTestBooking(t)
		_, err := bk.Apply(EventProviderAccept, providerActor(), time.Now(), "")
		require.NoError(t, err)
		before := bk.StatusUpdatedAt()

		evt, err := bk.Apply(EventSystemTimeout, SystemActor, time.Now().Add(time.Minute), "")
		require.NoError(t, err)
		assert.Nil(t, evt)
		assert.Equal(t, StatusAccepted, bk.Status())
		assert.Equal(t, before, bk.StatusUpdatedAt())
	})
}

func TestReconstructRoundTrip(t *testing.T) {
	providerID := uuid.New()
	created := time.Now().Add(-time.Hour).UTC()
	updated := time.Now().UTC()

	bk := Reconstruct(
		uuid.New(), uuid.New(), &providerID, uuid.New(),
		StatusInProgress,
		time.Now().Add(time.Hour).UTC(),
		testAddress(),
		"notes", "on my way",
		3,
		created, updated,
	)

	assert.Equal(t, StatusInProgress, bk.Status())
	assert.Equal(t, int64(3), bk.Version())
	assert.Equal(t, &providerID, bk.ProviderID())
	assert.Equal(t, created, bk.CreatedAt())
	assert.Equal(t, updated, bk.StatusUpdatedAt())
	assert.True(t, bk.WasEverAssigned())
}
