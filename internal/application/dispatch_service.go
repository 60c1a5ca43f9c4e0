package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/urbanfix/service-dispatch/internal/config"
	"github.com/urbanfix/service-dispatch/internal/domain/booking"
	"github.com/urbanfix/service-dispatch/internal/domain/provider"
	"github.com/urbanfix/service-dispatch/internal/domain/tracking"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
	"github.com/urbanfix/service-dispatch/internal/platform/metrics"
)

// SnapshotFunc receives tracking snapshots for a subscribed booking.
type SnapshotFunc func(state tracking.TrackingState)

// dispatchEntry holds the per-booking serialization lock and, while the
// booking is active, its live session/stream pair. An entry stays in the
// registry only while it carries a live session or an in-flight caller.
type dispatchEntry struct {
	lock sync.Mutex

	// refs counts callers between acquireEntry and releaseEntry. Guarded by
	// DispatchCoordinator.mu.
	refs int

	session    *tracking.Session
	stream     *tracking.Stream
	providerID uuid.UUID

	// lastETA tracks the previous ETA for arrival threshold crossing
	// detection. Guarded by lock.
	lastETA float64
	hasETA  bool
}

// DispatchCoordinator is the single entry point for booking lifecycle events
// and provider location reports. It owns the registry of active bookings and
// their tracking session/stream pairs.
//
// All operations on one booking id are serialized; operations on different
// ids run fully in parallel. A failure for one booking never affects another.
type DispatchCoordinator struct {
	bookings  booking.Repository
	providers provider.Repository
	trackLogs tracking.TrackLogRepository
	speed     tracking.SpeedModel
	publisher EventPublisher
	recorder  *metrics.Recorder
	logger    *zap.Logger
	cfg       config.TrackingConfig

	mu      sync.Mutex
	entries map[uuid.UUID]*dispatchEntry
	subs    map[uuid.UUID]map[uuid.UUID]SnapshotFunc
}

// NewDispatchCoordinator creates a DispatchCoordinator.
func NewDispatchCoordinator(
	bookings booking.Repository,
	providers provider.Repository,
	trackLogs tracking.TrackLogRepository,
	speed tracking.SpeedModel,
	publisher EventPublisher,
	recorder *metrics.Recorder,
	logger *zap.Logger,
	cfg config.TrackingConfig,
) *DispatchCoordinator {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &DispatchCoordinator{
		bookings:  bookings,
		providers: providers,
		trackLogs: trackLogs,
		speed:     speed,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		cfg:       cfg,
		entries:   make(map[uuid.UUID]*dispatchEntry),
		subs:      make(map[uuid.UUID]map[uuid.UUID]SnapshotFunc),
	}
}

// CreateBooking creates a new pending booking for the customer.
func (c *DispatchCoordinator) CreateBooking(
	ctx context.Context,
	customerID, serviceID uuid.UUID,
	address booking.ServiceAddress,
	scheduledAt time.Time,
	notes string,
) (*BookingView, error) {
	bk, err := booking.NewBooking(customerID, serviceID, address, scheduledAt, notes)
	if err != nil {
		return nil, err
	}

	if err := c.bookings.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	view := toBookingView(bk)
	return &view, nil
}

// SubmitEvent executes a lifecycle event against a booking. On the
// transition into accepted it creates the tracking session/stream pair; on a
// tracking-ending transition it publishes the final snapshot, archives the
// route, and removes the pair from the active registry.
func (c *DispatchCoordinator) SubmitEvent(
	ctx context.Context,
	bookingID uuid.UUID,
	event booking.Event,
	actor booking.Actor,
	reason string,
) (*BookingView, error) {
	e := c.acquireEntry(bookingID)
	defer c.releaseEntry(bookingID, e)

	bk, err := c.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Acceptance requires an active provider whose service area contains the
	// destination. Assignment itself comes from the caller; only containment
	// is checked here.
	var prov *provider.Provider
	if event == booking.EventProviderAccept && bk.Status() == booking.StatusPending {
		prov, err = c.verifyProviderCanServe(ctx, actor, bk.ServiceAddress())
		if err != nil {
			return nil, err
		}
	}

	evt, err := bk.Apply(event, actor, time.Now().UTC(), reason)
	if err != nil {
		return nil, err
	}
	if evt == nil {
		// Resolved system_timeout race: the booking already left pending.
		view := toBookingView(bk)
		return &view, nil
	}

	bk.IncrementVersion()
	if err := c.bookings.Update(ctx, bk); err != nil {
		return nil, err
	}

	c.recorder.Transitions.WithLabelValues(string(event), string(evt.ToStatus)).Inc()
	c.publisher.PublishBookingEvent(ctx, *evt)

	switch {
	case evt.ToStatus == booking.StatusAccepted:
		c.activateTracking(e, bk, prov)
	case e.session != nil:
		e.session.OnBookingEvent(*evt)
		if evt.ToStatus.EndsTracking() {
			c.teardownTracking(ctx, e, bookingID)
		}
	}

	view := toBookingView(bk)
	return &view, nil
}

// ReportLocation ingests one provider position report for a booking.
// Rejections (stale, out of order, invalid coordinate) are outcomes, not
// errors; the error return covers unknown bookings and sessions that do not
// or no longer exist.
func (c *DispatchCoordinator) ReportLocation(
	ctx context.Context,
	bookingID uuid.UUID,
	sample tracking.LocationSample,
) (tracking.IngestResult, error) {
	if sample.ReceivedAt.IsZero() {
		sample.ReceivedAt = time.Now().UTC()
	}
	sample.BookingID = bookingID

	e := c.acquireEntry(bookingID)
	defer c.releaseEntry(bookingID, e)

	if e.stream == nil {
		return tracking.IngestResult{}, c.classifyMissingSession(ctx, bookingID)
	}

	result := e.stream.Ingest(sample)
	c.recorder.LocationSamples.WithLabelValues(ingestOutcome(result)).Inc()
	return result, nil
}

// TrackingSnapshot returns the current TrackingState for an active booking.
func (c *DispatchCoordinator) TrackingSnapshot(ctx context.Context, bookingID uuid.UUID) (tracking.TrackingState, error) {
	e := c.acquireEntry(bookingID)
	defer c.releaseEntry(bookingID, e)

	if e.session == nil {
		return tracking.TrackingState{}, c.classifyMissingSession(ctx, bookingID)
	}
	return e.session.Snapshot(), nil
}

// Subscribe registers a callback invoked on every new TrackingState snapshot
// for the booking. It returns a subscription id for Unsubscribe. Multiple
// subscribers per booking are allowed; delivery is fire-and-forget, so a
// slow subscriber never stalls ingestion.
func (c *DispatchCoordinator) Subscribe(bookingID uuid.UUID, fn SnapshotFunc) uuid.UUID {
	subID := uuid.New()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subs[bookingID] == nil {
		c.subs[bookingID] = make(map[uuid.UUID]SnapshotFunc)
	}
	c.subs[bookingID][subID] = fn
	return subID
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (c *DispatchCoordinator) Unsubscribe(bookingID, subID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.subs[bookingID]; ok {
		delete(m, subID)
		if len(m) == 0 {
			delete(c.subs, bookingID)
		}
	}
}

// GetBooking retrieves a single booking by ID.
func (c *DispatchCoordinator) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingView, error) {
	bk, err := c.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	view := toBookingView(bk)
	return &view, nil
}

// GetCustomerBookings retrieves paginated bookings for a customer.
func (c *DispatchCoordinator) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingView], error) {
	bks, total, err := c.bookings.FindByCustomerID(ctx, customerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingViews(bks), total, page, limit)
	return &result, nil
}

// GetProviderBookings retrieves paginated bookings assigned to a provider.
func (c *DispatchCoordinator) GetProviderBookings(ctx context.Context, providerID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingView], error) {
	bks, total, err := c.bookings.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingViews(bks), total, page, limit)
	return &result, nil
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (c *DispatchCoordinator) ListAllBookings(ctx context.Context, page, limit int) ([]BookingView, int64, error) {
	bks, total, err := c.bookings.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingViews(bks), total, nil
}

// GetBookingStats returns aggregate booking counts (admin).
func (c *DispatchCoordinator) GetBookingStats(ctx context.Context) (*BookingStats, error) {
	counts, err := c.bookings.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return &BookingStats{TotalBookings: total, ByStatus: counts}, nil
}

// --- internals ---

// acquireEntry returns the booking's registry entry with its lock held. The
// ref count pins the entry in the registry for the duration of the
// operation, so every concurrent caller for one booking id serializes on the
// same lock.
func (c *DispatchCoordinator) acquireEntry(bookingID uuid.UUID) *dispatchEntry {
	c.mu.Lock()
	e, ok := c.entries[bookingID]
	if !ok {
		e = &dispatchEntry{}
		c.entries[bookingID] = e
	}
	e.refs++
	c.mu.Unlock()

	e.lock.Lock()
	return e
}

// releaseEntry unlocks the entry and evicts it once no caller holds it and
// no live session remains. This keeps the registry bounded by active
// sessions plus in-flight operations rather than by every booking id ever
// seen.
func (c *DispatchCoordinator) releaseEntry(bookingID uuid.UUID, e *dispatchEntry) {
	e.lock.Unlock()

	c.mu.Lock()
	e.refs--
	if e.refs == 0 && e.session == nil {
		delete(c.entries, bookingID)
	}
	c.mu.Unlock()
}

// verifyProviderCanServe checks the accepting provider exists, is active,
// and covers the destination.
func (c *DispatchCoordinator) verifyProviderCanServe(ctx context.Context, actor booking.Actor, addr booking.ServiceAddress) (*provider.Provider, error) {
	if actor.ID == uuid.Nil {
		return nil, domain.NewValidationError("provider_accept requires a provider actor")
	}

	prov, err := c.providers.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if !prov.IsActive() {
		return nil, domain.NewForbiddenError("provider is suspended")
	}

	within, err := prov.WithinServiceArea(addr.Coordinate)
	if err != nil {
		return nil, err
	}
	if !within {
		return nil, domain.NewValidationError("service address is outside the provider's service area")
	}
	return prov, nil
}

// activateTracking creates the session/stream pair for a freshly accepted
// booking. Called with the entry lock held.
func (c *DispatchCoordinator) activateTracking(e *dispatchEntry, bk *booking.Booking, prov *provider.Provider) {
	stream := tracking.NewStream(bk.ID(), c.cfg.StaleSampleThreshold, c.cfg.RouteHistoryLength)
	speedMps := c.speed.SpeedMps(prov.VehicleType())
	session := tracking.NewSession(bk.ID(), bk.ServiceAddress().Coordinate, stream, speedMps, c.publishSnapshot(e, bk.ID()))

	e.stream = stream
	e.session = session
	e.providerID = prov.ID()
	e.lastETA = 0
	e.hasETA = false

	c.recorder.ActiveSessions.Inc()
	c.logger.Info("tracking session created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("provider_id", prov.ID().String()),
	)
}

// teardownTracking archives the route and clears the session/stream pair.
// The session has already published its final snapshot. Called with the
// entry lock held; releaseEntry evicts the emptied entry, and late reports
// resolve through classifyMissingSession.
func (c *DispatchCoordinator) teardownTracking(ctx context.Context, e *dispatchEntry, bookingID uuid.UUID) {
	state := e.session.Snapshot()
	if len(state.RouteHistory) > 0 {
		log := tracking.NewTrackLog(bookingID, e.providerID, state)
		if err := c.trackLogs.Save(ctx, log); err != nil {
			c.logger.Error("failed to archive track log",
				zap.String("booking_id", bookingID.String()),
				zap.Error(err),
			)
		}
	}

	e.session = nil
	e.stream = nil
	c.recorder.ActiveSessions.Dec()

	c.logger.Info("tracking session closed", zap.String("booking_id", bookingID.String()))
}

// classifyMissingSession decides which typed error a location report or
// snapshot request gets when no live session exists: unknown bookings are
// NotFound, bookings that never activated tracking are NoActiveSession, and
// bookings whose session was torn down are SessionClosed.
func (c *DispatchCoordinator) classifyMissingSession(ctx context.Context, bookingID uuid.UUID) error {
	bk, err := c.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}

	switch bk.Status() {
	case booking.StatusCompleted, booking.StatusDisputed:
		return domain.NewSessionClosedError(bookingID.String())
	case booking.StatusCancelled:
		if bk.WasEverAssigned() {
			return domain.NewSessionClosedError(bookingID.String())
		}
		return domain.NewNoActiveSessionError(bookingID.String())
	default:
		return domain.NewNoActiveSessionError(bookingID.String())
	}
}

// publishSnapshot builds the session's publish callback: arrival alert
// detection plus fan-out to subscribers, each in its own goroutine.
func (c *DispatchCoordinator) publishSnapshot(e *dispatchEntry, bookingID uuid.UUID) func(tracking.TrackingState) {
	return func(state tracking.TrackingState) {
		c.recorder.SnapshotsSent.Inc()

		if state.ProviderPosition != nil {
			c.checkArrivalThresholds(e, bookingID, state)
		}

		c.mu.Lock()
		fns := make([]SnapshotFunc, 0, len(c.subs[bookingID]))
		for _, fn := range c.subs[bookingID] {
			fns = append(fns, fn)
		}
		c.mu.Unlock()

		for _, fn := range fns {
			go fn(state)
		}
	}
}

// checkArrivalThresholds emits an arrival alert each time the ETA first
// drops to or below a configured threshold. Called from the session's
// publish path, which runs under the entry lock.
func (c *DispatchCoordinator) checkArrivalThresholds(e *dispatchEntry, bookingID uuid.UUID, state tracking.TrackingState) {
	for _, threshold := range c.cfg.ArrivalAlertThresholds {
		thr := threshold.Seconds()
		crossed := state.ETASeconds <= thr && (!e.hasETA || e.lastETA > thr)
		if crossed {
			c.publisher.PublishArrivalAlert(context.Background(), ArrivalAlert{
				BookingID:        bookingID,
				ProviderID:       e.providerID,
				ETASeconds:       state.ETASeconds,
				ThresholdSeconds: thr,
				DistanceMeters:   state.DistanceMeters,
				OccurredAt:       state.LastUpdatedAt,
			})
		}
	}
	e.lastETA = state.ETASeconds
	e.hasETA = true
}

func toBookingViews(bks []*booking.Booking) []BookingView {
	views := make([]BookingView, len(bks))
	for i, bk := range bks {
		views[i] = toBookingView(bk)
	}
	return views
}

func ingestOutcome(result tracking.IngestResult) string {
	if result.Accepted {
		return "accepted"
	}
	return string(result.Reason)
}
