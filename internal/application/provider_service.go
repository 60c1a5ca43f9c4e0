package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	providerDomain "github.com/urbanfix/service-dispatch/internal/domain/provider"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

// RegisterProviderRequest is the request DTO for registering a provider.
type RegisterProviderRequest struct {
	Name                string  `json:"name" binding:"required"`
	VehicleType         string  `json:"vehicle_type"`
	BaseLatitude        float64 `json:"base_latitude"`
	BaseLongitude       float64 `json:"base_longitude"`
	ServiceRadiusMeters float64 `json:"service_radius_meters" binding:"required"`
}

// UpdateProviderRequest is the request DTO for updating a provider profile.
type UpdateProviderRequest struct {
	Name                string  `json:"name"`
	VehicleType         string  `json:"vehicle_type"`
	ServiceRadiusMeters float64 `json:"service_radius_meters"`
}

// ProviderDTO is the API response representation of a provider profile.
type ProviderDTO struct {
	ID                  uuid.UUID      `json:"id"`
	Name                string         `json:"name"`
	VehicleType         string         `json:"vehicle_type,omitempty"`
	BaseLocation        geo.Coordinate `json:"base_location"`
	ServiceRadiusMeters float64        `json:"service_radius_meters"`
	Status              string         `json:"status"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// ProviderService implements use cases for provider profile management.
type ProviderService struct {
	repo   providerDomain.Repository
	logger *zap.Logger
}

// NewProviderService creates a new ProviderService.
func NewProviderService(repo providerDomain.Repository, logger *zap.Logger) *ProviderService {
	return &ProviderService{repo: repo, logger: logger}
}

// RegisterProvider creates a provider profile for the authenticated user.
// The provider id is the user's identity, so acceptance checks need no
// extra lookup table.
func (s *ProviderService) RegisterProvider(ctx context.Context, userID uuid.UUID, req RegisterProviderRequest) (*ProviderDTO, error) {
	prov, err := providerDomain.NewProvider(
		userID,
		req.Name, req.VehicleType,
		geo.Coordinate{Latitude: req.BaseLatitude, Longitude: req.BaseLongitude},
		req.ServiceRadiusMeters,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, prov); err != nil {
		s.logger.Error("failed to register provider", zap.Error(err))
		return nil, fmt.Errorf("failed to register provider: %w", err)
	}

	s.logger.Info("provider registered",
		zap.String("provider_id", prov.ID().String()),
		zap.Float64("service_radius_m", prov.ServiceRadiusMeters()),
	)
	result := toProviderDTO(prov)
	return &result, nil
}

// GetProvider returns a single provider profile by ID.
func (s *ProviderService) GetProvider(ctx context.Context, providerID uuid.UUID) (*ProviderDTO, error) {
	prov, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}
	result := toProviderDTO(prov)
	return &result, nil
}

// UpdateProvider applies partial updates to the caller's own profile.
func (s *ProviderService) UpdateProvider(ctx context.Context, userID, providerID uuid.UUID, req UpdateProviderRequest) (*ProviderDTO, error) {
	if userID != providerID {
		return nil, domain.NewForbiddenError("providers can only update their own profile")
	}

	prov, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	prov.Update(req.Name, req.VehicleType, req.ServiceRadiusMeters)
	if err := s.repo.Update(ctx, prov); err != nil {
		return nil, fmt.Errorf("failed to update provider: %w", err)
	}

	result := toProviderDTO(prov)
	return &result, nil
}

// RelocateProvider moves the caller's base location.
func (s *ProviderService) RelocateProvider(ctx context.Context, userID uuid.UUID, base geo.Coordinate) (*ProviderDTO, error) {
	prov, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := prov.Relocate(base); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, prov); err != nil {
		return nil, fmt.Errorf("failed to relocate provider: %w", err)
	}

	result := toProviderDTO(prov)
	return &result, nil
}

// SuspendProvider marks a provider as unavailable (admin).
func (s *ProviderService) SuspendProvider(ctx context.Context, providerID uuid.UUID) (*ProviderDTO, error) {
	prov, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	prov.Suspend()
	if err := s.repo.Update(ctx, prov); err != nil {
		return nil, fmt.Errorf("failed to suspend provider: %w", err)
	}

	s.logger.Info("provider suspended", zap.String("provider_id", providerID.String()))
	result := toProviderDTO(prov)
	return &result, nil
}

// ReinstateProvider returns a suspended provider to active (admin).
func (s *ProviderService) ReinstateProvider(ctx context.Context, providerID uuid.UUID) (*ProviderDTO, error) {
	prov, err := s.repo.FindByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	prov.Reinstate()
	if err := s.repo.Update(ctx, prov); err != nil {
		return nil, fmt.Errorf("failed to reinstate provider: %w", err)
	}

	result := toProviderDTO(prov)
	return &result, nil
}

func toProviderDTO(p *providerDomain.Provider) ProviderDTO {
	return ProviderDTO{
		ID:                  p.ID(),
		Name:                p.Name(),
		VehicleType:         p.VehicleType(),
		BaseLocation:        p.BaseLocation(),
		ServiceRadiusMeters: p.ServiceRadiusMeters(),
		Status:              string(p.Status()),
		CreatedAt:           p.CreatedAt(),
		UpdatedAt:           p.UpdatedAt(),
	}
}
