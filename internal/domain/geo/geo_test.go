package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{"valid", Coordinate{Latitude: -6.2, Longitude: 106.8}, false},
		{"zero zero is valid", Coordinate{}, false},
		{"north pole", Coordinate{Latitude: 90, Longitude: 0}, false},
		{"antimeridian", Coordinate{Latitude: 0, Longitude: -180}, false},
		{"latitude too high", Coordinate{Latitude: 90.0001, Longitude: 0}, true},
		{"latitude too low", Coordinate{Latitude: -91, Longitude: 0}, true},
		{"longitude too high", Coordinate{Latitude: 0, Longitude: 180.5}, true},
		{"longitude too low", Coordinate{Latitude: 0, Longitude: -181}, true},
		{"nan latitude", Coordinate{Latitude: math.NaN(), Longitude: 0}, true},
		{"inf longitude", Coordinate{Latitude: 0, Longitude: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domain.IsCode(err, domain.CodeInvalidCoordinate))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDistanceMeters(t *testing.T) {
	jakarta := Coordinate{Latitude: -6.2088, Longitude: 106.8456}
	surabaya := Coordinate{Latitude: -7.2575, Longitude: 112.7521}

	t.Run("identical points are zero", func(t *testing.T) {
		d, err := DistanceMeters(jakarta, jakarta)
		require.NoError(t, err)
		assert.Zero(t, d)
	})

	t.Run("symmetric", func(t *testing.T) {
		ab, err := DistanceMeters(jakarta, surabaya)
		require.NoError(t, err)
		ba, err := DistanceMeters(surabaya, jakarta)
		require.NoError(t, err)
		assert.InDelta(t, ab, ba, 1e-9)
	})

	t.Run("known distance", func(t *testing.T) {
		// Jakarta to Surabaya is roughly 663 km great-circle.
		d, err := DistanceMeters(jakarta, surabaya)
		require.NoError(t, err)
		assert.InDelta(t, 663000, d, 5000)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d, err := DistanceMeters(Coordinate{}, Coordinate{Latitude: 1})
		require.NoError(t, err)
		assert.InDelta(t, 111195, d, 50)
	})

	t.Run("invalid input rejected", func(t *testing.T) {
		_, err := DistanceMeters(Coordinate{Latitude: 95}, jakarta)
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.CodeInvalidCoordinate))
	})
}

func TestETASeconds(t *testing.T) {
	assert.InDelta(t, 100.0, ETASeconds(830, 8.3), 1e-9)
	assert.Zero(t, ETASeconds(0, 8.3))
	assert.Zero(t, ETASeconds(-10, 8.3))
	assert.Zero(t, ETASeconds(1000, 0))
	assert.Zero(t, ETASeconds(1000, -1))
}

func TestWithinRadius(t *testing.T) {
	center := Coordinate{Latitude: -6.2, Longitude: 106.8}

	t.Run("inside", func(t *testing.T) {
		ok, err := WithinRadius(center, Coordinate{Latitude: -6.201, Longitude: 106.8}, 500)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("boundary inclusive", func(t *testing.T) {
		point := Coordinate{Latitude: -6.21, Longitude: 106.8}
		d, err := DistanceMeters(center, point)
		require.NoError(t, err)

		ok, err := WithinRadius(center, point, d)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("outside", func(t *testing.T) {
		ok, err := WithinRadius(center, Coordinate{Latitude: -6.3, Longitude: 106.8}, 500)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestBearing(t *testing.T) {
	t.Run("due north", func(t *testing.T) {
		b, err := Bearing(Coordinate{}, Coordinate{Latitude: 1})
		require.NoError(t, err)
		assert.InDelta(t, 0, b, 1e-9)
	})

	t.Run("due east", func(t *testing.T) {
		b, err := Bearing(Coordinate{}, Coordinate{Longitude: 1})
		require.NoError(t, err)
		assert.InDelta(t, 90, b, 1e-9)
	})

	t.Run("range", func(t *testing.T) {
		b, err := Bearing(Coordinate{Latitude: 1}, Coordinate{})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, b, 0.0)
		assert.Less(t, b, 360.0)
	})
}
