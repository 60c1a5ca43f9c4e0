package booking

import "fmt"

// Status represents the current state of a booking in its lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusDisputed   Status = "disputed"
)

// Event is a closed set of lifecycle triggers. Anything outside this set is
// rejected at the boundary.
type Event string

const (
	EventProviderAccept   Event = "provider_accept"
	EventProviderReject   Event = "provider_reject"
	EventProviderStart    Event = "provider_start"
	EventProviderComplete Event = "provider_complete"
	EventCustomerCancel   Event = "customer_cancel"
	EventSystemTimeout    Event = "system_timeout"
	EventCustomerDispute  Event = "customer_dispute"
)

// edge describes the statuses an event may fire from and the status it leads to.
type edge struct {
	from []Status
	to   Status
}

// transitions is the authoritative event-keyed state machine.
var transitions = map[Event]edge{
	EventProviderAccept:   {from: []Status{StatusPending}, to: StatusAccepted},
	EventProviderReject:   {from: []Status{StatusPending}, to: StatusRejected},
	EventProviderStart:    {from: []Status{StatusAccepted}, to: StatusInProgress},
	EventProviderComplete: {from: []Status{StatusInProgress}, to: StatusCompleted},
	EventCustomerCancel:   {from: []Status{StatusPending, StatusAccepted}, to: StatusCancelled},
	EventSystemTimeout:    {from: []Status{StatusPending}, to: StatusCancelled},
	EventCustomerDispute:  {from: []Status{StatusCompleted}, to: StatusDisputed},
}

// knownStatuses covers every status reachable through the transition table.
var knownStatuses = map[Status]struct{}{
	StatusPending:    {},
	StatusAccepted:   {},
	StatusRejected:   {},
	StatusInProgress: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusDisputed:   {},
}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// IsTerminal reports whether no event at all can fire from this status.
// completed is not terminal in this sense: it still admits customer_dispute.
func (s Status) IsTerminal() bool {
	for _, e := range transitions {
		for _, from := range e.from {
			if from == s {
				return false
			}
		}
	}
	return s.IsValid()
}

// EndsTracking reports whether reaching this status tears down the live
// tracking session. completed ends tracking even though a dispute may follow.
func (s Status) EndsTracking() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted, StatusDisputed:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the event is one of the recognized lifecycle triggers.
func (e Event) IsValid() bool {
	_, ok := transitions[e]
	return ok
}

// Target returns the status this event leads to. The event must be valid.
func (e Event) Target() Status {
	return transitions[e].to
}

// AllowedFrom reports whether the event may fire from the given status.
func (e Event) AllowedFrom(s Status) bool {
	t, ok := transitions[e]
	if !ok {
		return false
	}
	for _, from := range t.from {
		if from == s {
			return true
		}
	}
	return false
}

// String returns the string representation of the event.
func (e Event) String() string {
	return string(e)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// ParseEvent converts a string to an Event, returning an error if invalid.
func ParseEvent(s string) (Event, error) {
	event := Event(s)
	if !event.IsValid() {
		return "", fmt.Errorf("invalid booking event: %s", s)
	}
	return event, nil
}
