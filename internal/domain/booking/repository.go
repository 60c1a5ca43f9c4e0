package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByCustomerID retrieves bookings for a customer with pagination.
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByProviderID retrieves bookings assigned to a provider with pagination.
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListPendingBefore returns bookings still pending whose creation time is
	// older than the cutoff. Used by the timeout scheduler.
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*Booking, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
