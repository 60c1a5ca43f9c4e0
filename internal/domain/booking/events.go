package booking

import (
	"time"

	"github.com/google/uuid"
)

// ActorType identifies who triggered a lifecycle event.
type ActorType string

const (
	ActorCustomer ActorType = "customer"
	ActorProvider ActorType = "provider"
	ActorSystem   ActorType = "system"
)

// Actor is the party behind a lifecycle event. ID is uuid.Nil for system
// actors.
type Actor struct {
	Type ActorType `json:"type"`
	ID   uuid.UUID `json:"id,omitempty"`
}

// SystemActor is the actor attached to machine-internal triggers.
var SystemActor = Actor{Type: ActorSystem}

// DomainEvent records one executed status transition. Consumers never
// mutate it.
type DomainEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	Event      Event     `json:"event"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Reason     string    `json:"reason,omitempty"`
}
