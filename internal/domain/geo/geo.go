package geo

import (
	"math"

	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

const earthRadiusMeters = 6371000.0

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the coordinate lies inside the valid WGS84 range and
// carries no NaN/Inf components.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) ||
		math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return domain.NewInvalidCoordinateError("coordinate contains non-finite values")
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return domain.NewInvalidCoordinateError("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return domain.NewInvalidCoordinateError("longitude must be between -180 and 180")
	}
	return nil
}

// DistanceMeters returns the great-circle (Haversine) distance between two
// coordinates in meters.
func DistanceMeters(a, b Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	dLat := degreesToRadians(b.Latitude - a.Latitude)
	dLng := degreesToRadians(b.Longitude - a.Longitude)

	latA := degreesToRadians(a.Latitude)
	latB := degreesToRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(latA)*math.Cos(latB)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c, nil
}

// Bearing returns the initial bearing in degrees [0, 360) from a to b.
func Bearing(a, b Coordinate) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	latA := degreesToRadians(a.Latitude)
	latB := degreesToRadians(b.Latitude)
	dLng := degreesToRadians(b.Longitude - a.Longitude)

	y := math.Sin(dLng) * math.Cos(latB)
	x := math.Cos(latA)*math.Sin(latB) - math.Sin(latA)*math.Cos(latB)*math.Cos(dLng)

	deg := radiansToDegrees(math.Atan2(y, x))
	return math.Mod(deg+360, 360), nil
}

// ETASeconds derives an estimated time of arrival from distance and an
// assumed speed. Non-positive speed yields 0; the result is never negative.
func ETASeconds(distanceMeters, speedMps float64) float64 {
	if speedMps <= 0 || distanceMeters <= 0 {
		return 0
	}
	return distanceMeters / speedMps
}

// WithinRadius reports whether point lies within radiusMeters of center,
// inclusive of the boundary.
func WithinRadius(center, point Coordinate, radiusMeters float64) (bool, error) {
	d, err := DistanceMeters(center, point)
	if err != nil {
		return false, err
	}
	return d <= radiusMeters, nil
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radiansToDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
