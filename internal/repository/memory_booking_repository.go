package repository

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// MemoryBookingRepo keeps the booking history in process memory. It is the
// default store when no database is configured.
type MemoryBookingRepo struct {
	mu      sync.RWMutex
	entries []model.BookingEntry
	byID    map[string]int
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{byID: make(map[string]int)}
}

func (r *MemoryBookingRepo) Append(ctx context.Context, e model.BookingEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID()]; ok {
		return ErrDuplicateBooking
	}
	r.byID[e.ID()] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

func (r *MemoryBookingRepo) List(ctx context.Context, page, perPage int) (Page, error) {
	page, perPage = NormalizePage(page, perPage)
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.entries)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	items := make([]model.BookingEntry, end-start)
	copy(items, r.entries[start:end])
	return newPage(items, page, perPage, total), nil
}

func (r *MemoryBookingRepo) Get(ctx context.Context, bookingID string) (*model.BookingEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.byID[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	e := r.entries[i]
	return &e, nil
}

func (r *MemoryBookingRepo) Cancel(ctx context.Context, bookingID string, at time.Time) (*model.BookingEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byID[bookingID]
	if !ok {
		return nil, ErrBookingNotFound
	}
	e := &r.entries[i]
	if err := checkCancellable(e); err != nil {
		return nil, err
	}
	at = at.UTC()
	e.Status = booking.StatusCancelled
	e.CancelledAt = &at
	out := *e
	return &out, nil
}
