package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/urbanfix/service-dispatch/internal/domain/tracking"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

// TrackLogModel is the GORM model for the track_logs table.
type TrackLogModel struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingID           uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	ProviderID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	Samples             json.RawMessage `gorm:"type:jsonb;not null"`
	FinalDistanceMeters float64         `gorm:"not null"`
	StartedAt           time.Time
	EndedAt             time.Time
	CreatedAt           time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TrackLogModel) TableName() string {
	return "track_logs"
}

// GormTrackLogRepository is the GORM-based implementation of
// tracking.TrackLogRepository.
type GormTrackLogRepository struct {
	db *gorm.DB
}

// NewGormTrackLogRepository creates a new GormTrackLogRepository.
func NewGormTrackLogRepository(db *gorm.DB) *GormTrackLogRepository {
	return &GormTrackLogRepository{db: db}
}

// Save persists an archived route.
func (r *GormTrackLogRepository) Save(ctx context.Context, log *tracking.TrackLog) error {
	samplesJSON, err := json.Marshal(log.Samples)
	if err != nil {
		return fmt.Errorf("failed to marshal route samples: %w", err)
	}

	model := &TrackLogModel{
		ID:                  log.ID,
		BookingID:           log.BookingID,
		ProviderID:          log.ProviderID,
		Samples:             samplesJSON,
		FinalDistanceMeters: log.FinalDistanceMeters,
		StartedAt:           log.StartedAt,
		EndedAt:             log.EndedAt,
		CreatedAt:           time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save track log: %w", err)
	}
	return nil
}

// FindByBookingID retrieves the archived route for a booking.
func (r *GormTrackLogRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*tracking.TrackLog, error) {
	var model TrackLogModel
	if err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("TrackLog", bookingID.String())
		}
		return nil, fmt.Errorf("failed to find track log: %w", err)
	}

	var samples []tracking.LocationSample
	if err := json.Unmarshal(model.Samples, &samples); err != nil {
		return nil, fmt.Errorf("failed to unmarshal route samples: %w", err)
	}

	return &tracking.TrackLog{
		ID:                  model.ID,
		BookingID:           model.BookingID,
		ProviderID:          model.ProviderID,
		Samples:             samples,
		FinalDistanceMeters: model.FinalDistanceMeters,
		StartedAt:           model.StartedAt,
		EndedAt:             model.EndedAt,
	}, nil
}
