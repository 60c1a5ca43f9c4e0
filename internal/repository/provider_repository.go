package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbanfix/service-dispatch/internal/domain/geo"
	providerDomain "github.com/urbanfix/service-dispatch/internal/domain/provider"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

// ProviderModel is the GORM model for the providers table.
type ProviderModel struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name                string    `gorm:"not null;size:255"`
	VehicleType         string    `gorm:"size:50"`
	BaseLatitude        float64   `gorm:"not null"`
	BaseLongitude       float64   `gorm:"not null"`
	ServiceRadiusMeters float64   `gorm:"not null"`
	Status              string    `gorm:"not null;size:20;index"`
	Version             int64     `gorm:"not null;default:1"`
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ProviderModel) TableName() string {
	return "providers"
}

// GormProviderRepository is the GORM-based implementation of provider.Repository.
type GormProviderRepository struct {
	db *gorm.DB
}

// NewGormProviderRepository creates a new GormProviderRepository.
func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

// FindByID retrieves a provider by its unique identifier.
func (r *GormProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*providerDomain.Provider, error) {
	var model ProviderModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Provider", id.String())
		}
		return nil, fmt.Errorf("failed to find provider by ID: %w", err)
	}
	return toDomainProvider(&model), nil
}

// ListActive retrieves all active providers.
func (r *GormProviderRepository) ListActive(ctx context.Context) ([]*providerDomain.Provider, error) {
	var models []ProviderModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(providerDomain.ProviderStatusActive)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list active providers: %w", err)
	}

	providers := make([]*providerDomain.Provider, len(models))
	for i, m := range models {
		providers[i] = toDomainProvider(&m)
	}
	return providers, nil
}

// Save persists a new provider profile.
func (r *GormProviderRepository) Save(ctx context.Context, p *providerDomain.Provider) error {
	model := toProviderModel(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save provider: %w", err)
	}
	return nil
}

// Update persists changes to an existing provider with optimistic locking.
func (r *GormProviderRepository) Update(ctx context.Context, p *providerDomain.Provider) error {
	model := toProviderModel(p)

	expectedVersion := p.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&ProviderModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"name":                  model.Name,
			"vehicle_type":          model.VehicleType,
			"base_latitude":         model.BaseLatitude,
			"base_longitude":        model.BaseLongitude,
			"service_radius_meters": model.ServiceRadiusMeters,
			"status":                model.Status,
			"version":               model.Version,
			"updated_at":            model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update provider: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("provider was modified by another transaction")
	}
	return nil
}

// --- Conversion helpers ---

func toProviderModel(p *providerDomain.Provider) *ProviderModel {
	base := p.BaseLocation()
	return &ProviderModel{
		ID:                  p.ID(),
		Name:                p.Name(),
		VehicleType:         p.VehicleType(),
		BaseLatitude:        base.Latitude,
		BaseLongitude:       base.Longitude,
		ServiceRadiusMeters: p.ServiceRadiusMeters(),
		Status:              string(p.Status()),
		Version:             p.Version(),
		CreatedAt:           p.CreatedAt(),
		UpdatedAt:           p.UpdatedAt(),
	}
}

func toDomainProvider(m *ProviderModel) *providerDomain.Provider {
	return providerDomain.Reconstruct(
		m.ID,
		m.Name,
		m.VehicleType,
		geo.Coordinate{Latitude: m.BaseLatitude, Longitude: m.BaseLongitude},
		m.ServiceRadiusMeters,
		providerDomain.ProviderStatus(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
