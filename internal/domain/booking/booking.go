package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

// Booking is the aggregate root for one service engagement. Its status is
// mutated exclusively through Apply; no other writer exists.
type Booking struct {
	id         uuid.UUID
	customerID uuid.UUID
	providerID *uuid.UUID
	serviceID  uuid.UUID
	status     Status

	scheduledAt    time.Time
	serviceAddress ServiceAddress
	notes          string
	statusNote     string

	version         int64
	createdAt       time.Time
	statusUpdatedAt time.Time
}

// NewBooking creates a new Booking in pending status.
func NewBooking(
	customerID, serviceID uuid.UUID,
	serviceAddress ServiceAddress,
	scheduledAt time.Time,
	notes string,
) (*Booking, error) {
	if customerID == uuid.Nil {
		return nil, domain.NewValidationError("customer ID is required")
	}
	if serviceID == uuid.Nil {
		return nil, domain.NewValidationError("service ID is required")
	}
	if err := serviceAddress.Validate(); err != nil {
		return nil, err
	}
	if scheduledAt.IsZero() {
		return nil, domain.NewValidationError("scheduled time is required")
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		customerID:      customerID,
		serviceID:       serviceID,
		status:          StatusPending,
		scheduledAt:     scheduledAt.UTC(),
		serviceAddress:  serviceAddress,
		notes:           notes,
		version:         1,
		createdAt:       now,
		statusUpdatedAt: now,
	}, nil
}

// Reconstruct rebuilds a Booking from persistence data (no validation).
func Reconstruct(
	id, customerID uuid.UUID,
	providerID *uuid.UUID,
	serviceID uuid.UUID,
	status Status,
	scheduledAt time.Time,
	serviceAddress ServiceAddress,
	notes, statusNote string,
	version int64,
	createdAt, statusUpdatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		customerID:      customerID,
		providerID:      providerID,
		serviceID:       serviceID,
		status:          status,
		scheduledAt:     scheduledAt,
		serviceAddress:  serviceAddress,
		notes:           notes,
		statusNote:      statusNote,
		version:         version,
		createdAt:       createdAt,
		statusUpdatedAt: statusUpdatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// CustomerID returns the requesting customer's ID.
func (b *Booking) CustomerID() uuid.UUID { return b.customerID }

// ProviderID returns the assigned provider's ID, or nil if unassigned.
func (b *Booking) ProviderID() *uuid.UUID { return b.providerID }

// ServiceID returns the catalog service being booked.
func (b *Booking) ServiceID() uuid.UUID { return b.serviceID }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// ScheduledAt returns when the service is expected to start.
func (b *Booking) ScheduledAt() time.Time { return b.scheduledAt }

// ServiceAddress returns the destination address for the engagement.
func (b *Booking) ServiceAddress() ServiceAddress { return b.serviceAddress }

// Notes returns the free-form customer notes.
func (b *Booking) Notes() string { return b.notes }

// StatusNote returns the reason attached to the latest transition, if any.
func (b *Booking) StatusNote() string { return b.statusNote }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// StatusUpdatedAt returns the timestamp of the latest transition.
func (b *Booking) StatusUpdatedAt() time.Time { return b.statusUpdatedAt }

// --- Behavior ---

// Apply executes a lifecycle event against the booking. On success it
// updates status and statusUpdatedAt and returns the emitted DomainEvent.
//
// A system_timeout on a booking that has already left pending is a benign
// race: both the event and the error are nil, and the booking is untouched.
func (b *Booking) Apply(event Event, actor Actor, at time.Time, reason string) (*DomainEvent, error) {
	if !event.IsValid() {
		return nil, domain.NewValidationError("unknown booking event: " + string(event))
	}

	if event == EventSystemTimeout && b.status != StatusPending {
		return nil, nil
	}

	if !event.AllowedFrom(b.status) {
		return nil, domain.NewInvalidTransitionError(string(event), string(b.status))
	}

	if event == EventProviderAccept {
		if actor.Type != ActorProvider || actor.ID == uuid.Nil {
			return nil, domain.NewValidationError("provider_accept requires a provider actor")
		}
		b.providerID = &actor.ID
	}

	// A booking cannot start work without an assigned provider. Unreachable
	// through the table alone, guarded anyway.
	if event == EventProviderStart && b.providerID == nil {
		return nil, domain.NewInvalidTransitionError(string(event), string(b.status))
	}

	from := b.status
	b.status = event.Target()
	b.statusNote = reason
	b.statusUpdatedAt = at.UTC()

	return &DomainEvent{
		BookingID:  b.id,
		FromStatus: from,
		ToStatus:   b.status,
		Event:      event,
		Actor:      actor,
		Timestamp:  b.statusUpdatedAt,
		Reason:     reason,
	}, nil
}

// WasEverAssigned reports whether a provider was ever attached to this
// booking. Used to distinguish a torn-down session from one that never
// existed.
func (b *Booking) WasEverAssigned() bool {
	return b.providerID != nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
