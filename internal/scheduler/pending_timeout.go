package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/urbanfix/service-dispatch/internal/application"
	"github.com/urbanfix/service-dispatch/internal/domain/booking"
)

// PendingTimeoutScheduler periodically rejects bookings that sat in pending
// longer than the configured timeout. Each expiry goes through the regular
// event path, so a booking accepted between the sweep's read and its write
// is left alone.
type PendingTimeoutScheduler struct {
	bookings    booking.Repository
	coordinator *application.DispatchCoordinator
	timeout     time.Duration
	interval    time.Duration
	logger      *zap.Logger
}

// NewPendingTimeoutScheduler creates a scheduler sweeping at the given
// interval.
func NewPendingTimeoutScheduler(
	bookings booking.Repository,
	coordinator *application.DispatchCoordinator,
	timeout time.Duration,
	interval time.Duration,
	logger *zap.Logger,
) *PendingTimeoutScheduler {
	return &PendingTimeoutScheduler{
		bookings:    bookings,
		coordinator: coordinator,
		timeout:     timeout,
		interval:    interval,
		logger:      logger,
	}
}

// Run sweeps until the context is cancelled.
func (s *PendingTimeoutScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *PendingTimeoutScheduler) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.timeout)
	expired, err := s.bookings.ListPendingBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("pending timeout sweep failed", zap.Error(err))
		return
	}

	for _, bk := range expired {
		if _, err := s.coordinator.SubmitEvent(
			ctx,
			bk.ID(),
			booking.EventSystemTimeout,
			booking.SystemActor,
			"no provider accepted in time",
		); err != nil {
			s.logger.Error("failed to expire pending booking",
				zap.String("booking_id", bk.ID().String()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("pending booking expired",
			zap.String("booking_id", bk.ID().String()),
		)
	}
}
