package tracking

import (
	"time"

	"github.com/google/uuid"
)

// Stream ingests and filters the position time series for one booking.
// It keeps the last accepted sample and a bounded FIFO route history.
//
// Stream is not safe for concurrent use; the coordinator serializes all
// access per booking id.
type Stream struct {
	bookingID    uuid.UUID
	staleAfter   time.Duration
	historyLimit int

	last    *LocationSample
	history []LocationSample

	// onAccepted is invoked after each accepted sample (push, not poll).
	onAccepted func(sample LocationSample)
}

// NewStream creates a Stream for the given booking.
func NewStream(bookingID uuid.UUID, staleAfter time.Duration, historyLimit int) *Stream {
	if historyLimit < 1 {
		historyLimit = 1
	}
	return &Stream{
		bookingID:    bookingID,
		staleAfter:   staleAfter,
		historyLimit: historyLimit,
	}
}

// OnAccepted registers the recompute notification callback.
func (s *Stream) OnAccepted(fn func(sample LocationSample)) {
	s.onAccepted = fn
}

// Ingest validates and filters one sample. Coordinates outside the valid
// range reject with invalid_coordinate; a capture time older than the
// staleness window rejects with stale; a capture time strictly older than
// the last accepted sample rejects with out_of_order. Ties on capture time
// are accepted: ordering is broken by arrival.
func (s *Stream) Ingest(sample LocationSample) IngestResult {
	if err := sample.Position.Validate(); err != nil {
		return rejected(RejectInvalidCoordinate)
	}

	if sample.ReceivedAt.Sub(sample.CapturedAt) > s.staleAfter {
		return rejected(RejectStale)
	}

	if s.last != nil && sample.CapturedAt.Before(s.last.CapturedAt) {
		return rejected(RejectOutOfOrder)
	}

	s.last = &sample
	s.history = append(s.history, sample)
	if len(s.history) > s.historyLimit {
		// FIFO eviction, oldest first.
		s.history = s.history[len(s.history)-s.historyLimit:]
	}

	if s.onAccepted != nil {
		s.onAccepted(sample)
	}
	return accepted()
}

// LastKnown returns the last accepted sample, or nil if none yet.
func (s *Stream) LastKnown() *LocationSample {
	if s.last == nil {
		return nil
	}
	cp := *s.last
	return &cp
}

// History returns a copy of the route history, oldest first.
func (s *Stream) History() []LocationSample {
	out := make([]LocationSample, len(s.history))
	copy(out, s.history)
	return out
}

// BookingID returns the booking this stream belongs to.
func (s *Stream) BookingID() uuid.UUID {
	return s.bookingID
}
