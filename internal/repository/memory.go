package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	bookingDomain "github.com/urbanfix/service-dispatch/internal/domain/booking"
	providerDomain "github.com/urbanfix/service-dispatch/internal/domain/provider"
	"github.com/urbanfix/service-dispatch/internal/domain/tracking"
	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

// MemoryBookingRepository is an in-memory booking.Repository used by unit
// tests and local development without a database.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

// NewMemoryBookingRepository creates an empty in-memory repository.
func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
	}
}

func (r *MemoryBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *MemoryBookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filterPaged(ctx, page, limit, func(bk *bookingDomain.Booking) bool {
		return bk.CustomerID() == customerID
	})
}

func (r *MemoryBookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filterPaged(ctx, page, limit, func(bk *bookingDomain.Booking) bool {
		pid := bk.ProviderID()
		return pid != nil && *pid == providerID
	})
}

func (r *MemoryBookingRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*bookingDomain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if bk.Status() == bookingDomain.StatusPending && bk.CreatedAt().Before(cutoff) {
			out = append(out, bk)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

func (r *MemoryBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.filterPaged(ctx, page, limit, func(*bookingDomain.Booking) bool { return true })
}

func (r *MemoryBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *MemoryBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[bk.ID()]; exists {
		return domain.NewConflictError("booking already exists")
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *MemoryBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.bookings[bk.ID()]
	if !ok {
		return domain.NewNotFoundError("Booking", bk.ID().String())
	}
	if current != bk && current.Version() != bk.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *MemoryBookingRepository) filterPaged(ctx context.Context, page, limit int, match func(*bookingDomain.Booking) bool) ([]*bookingDomain.Booking, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*bookingDomain.Booking
	for _, bk := range r.bookings {
		if match(bk) {
			all = append(all, bk)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt().After(all[j].CreatedAt())
	})

	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// MemoryProviderRepository is an in-memory provider.Repository.
type MemoryProviderRepository struct {
	mu        sync.RWMutex
	providers map[uuid.UUID]*providerDomain.Provider
}

// NewMemoryProviderRepository creates an empty in-memory repository.
func NewMemoryProviderRepository() *MemoryProviderRepository {
	return &MemoryProviderRepository{
		providers: make(map[uuid.UUID]*providerDomain.Provider),
	}
}

func (r *MemoryProviderRepository) FindByID(ctx context.Context, id uuid.UUID) (*providerDomain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, domain.NewNotFoundError("Provider", id.String())
	}
	return p, nil
}

func (r *MemoryProviderRepository) ListActive(ctx context.Context) ([]*providerDomain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*providerDomain.Provider
	for _, p := range r.providers {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out, nil
}

func (r *MemoryProviderRepository) Save(ctx context.Context, p *providerDomain.Provider) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.ID()]; exists {
		return domain.NewConflictError("provider already exists")
	}
	r.providers[p.ID()] = p
	return nil
}

func (r *MemoryProviderRepository) Update(ctx context.Context, p *providerDomain.Provider) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers[p.ID()]; !ok {
		return domain.NewNotFoundError("Provider", p.ID().String())
	}
	r.providers[p.ID()] = p
	return nil
}

// MemoryTrackLogRepository is an in-memory tracking.TrackLogRepository.
type MemoryTrackLogRepository struct {
	mu   sync.RWMutex
	logs map[uuid.UUID]*tracking.TrackLog
}

// NewMemoryTrackLogRepository creates an empty in-memory repository.
func NewMemoryTrackLogRepository() *MemoryTrackLogRepository {
	return &MemoryTrackLogRepository{
		logs: make(map[uuid.UUID]*tracking.TrackLog),
	}
}

func (r *MemoryTrackLogRepository) Save(ctx context.Context, log *tracking.TrackLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs[log.BookingID] = log
	return nil
}

func (r *MemoryTrackLogRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*tracking.TrackLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.logs[bookingID]
	if !ok {
		return nil, domain.NewNotFoundError("TrackLog", bookingID.String())
	}
	return log, nil
}
