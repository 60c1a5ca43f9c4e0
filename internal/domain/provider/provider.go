package provider

import (
	"time"

	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

// ProviderStatus represents the lifecycle state of a provider profile.
type ProviderStatus string

const (
	ProviderStatusActive    ProviderStatus = "active"
	ProviderStatusSuspended ProviderStatus = "suspended"
)

// Provider is the aggregate root for a service provider profile. The base
// coordinate and service radius define the area the provider accepts
// bookings in.
type Provider struct {
	id                  uuid.UUID
	name                string
	vehicleType         string
	baseLocation        geo.Coordinate
	serviceRadiusMeters float64
	status              ProviderStatus
	version             int64
	createdAt           time.Time
	updatedAt           time.Time
}

// NewProvider creates an active provider profile with validated fields.
func NewProvider(
	id uuid.UUID,
	name, vehicleType string,
	baseLocation geo.Coordinate,
	serviceRadiusMeters float64,
) (*Provider, error) {
	if id == uuid.Nil {
		return nil, domain.NewValidationError("provider ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("provider name is required")
	}
	if err := baseLocation.Validate(); err != nil {
		return nil, err
	}
	if serviceRadiusMeters <= 0 {
		return nil, domain.NewValidationError("service radius must be positive")
	}

	now := time.Now().UTC()
	return &Provider{
		id:                  id,
		name:                name,
		vehicleType:         vehicleType,
		baseLocation:        baseLocation,
		serviceRadiusMeters: serviceRadiusMeters,
		status:              ProviderStatusActive,
		version:             1,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// Reconstruct rebuilds a Provider from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name, vehicleType string,
	baseLocation geo.Coordinate,
	serviceRadiusMeters float64,
	status ProviderStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Provider {
	return &Provider{
		id:                  id,
		name:                name,
		vehicleType:         vehicleType,
		baseLocation:        baseLocation,
		serviceRadiusMeters: serviceRadiusMeters,
		status:              status,
		version:             version,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// --- Getters ---

func (p *Provider) ID() uuid.UUID                { return p.id }
func (p *Provider) Name() string                 { return p.name }
func (p *Provider) VehicleType() string          { return p.vehicleType }
func (p *Provider) BaseLocation() geo.Coordinate { return p.baseLocation }
func (p *Provider) ServiceRadiusMeters() float64 { return p.serviceRadiusMeters }
func (p *Provider) Status() ProviderStatus       { return p.status }
func (p *Provider) Version() int64               { return p.version }
func (p *Provider) CreatedAt() time.Time         { return p.createdAt }
func (p *Provider) UpdatedAt() time.Time         { return p.updatedAt }

// --- Behavior ---

// IsActive returns true if the provider may accept bookings.
func (p *Provider) IsActive() bool {
	return p.status == ProviderStatusActive
}

// WithinServiceArea reports whether the point lies inside the provider's
// service radius, boundary inclusive.
func (p *Provider) WithinServiceArea(point geo.Coordinate) (bool, error) {
	return geo.WithinRadius(p.baseLocation, point, p.serviceRadiusMeters)
}

// Update applies partial updates to the provider profile.
func (p *Provider) Update(name, vehicleType string, serviceRadiusMeters float64) {
	if name != "" {
		p.name = name
	}
	if vehicleType != "" {
		p.vehicleType = vehicleType
	}
	if serviceRadiusMeters > 0 {
		p.serviceRadiusMeters = serviceRadiusMeters
	}
	p.version++
	p.updatedAt = time.Now().UTC()
}

// Relocate moves the provider's base location.
func (p *Provider) Relocate(base geo.Coordinate) error {
	if err := base.Validate(); err != nil {
		return err
	}
	p.baseLocation = base
	p.version++
	p.updatedAt = time.Now().UTC()
	return nil
}

// Suspend marks the provider as unavailable for new bookings.
func (p *Provider) Suspend() {
	p.status = ProviderStatusSuspended
	p.version++
	p.updatedAt = time.Now().UTC()
}

// Reinstate returns a suspended provider to active.
func (p *Provider) Reinstate() {
	p.status = ProviderStatusActive
	p.version++
	p.updatedAt = time.Now().UTC()
}
