package repository

import (
	"context"
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// BookingRepo is the booking history. Entries are listed in the order they
// were appended.
type BookingRepo interface {
	Append(ctx context.Context, e model.BookingEntry) error
	List(ctx context.Context, page, perPage int) (Page, error)
	Get(ctx context.Context, bookingID string) (*model.BookingEntry, error)
	Cancel(ctx context.Context, bookingID string, at time.Time) (*model.BookingEntry, error)
}

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// Page is one slice of the booking history plus the pagination summary.
type Page struct {
	Items      []model.BookingEntry `json:"items"`
	Page       int                  `json:"page"`
	PerPage    int                  `json:"per_page"`
	Total      int                  `json:"total"`
	TotalPages int                  `json:"total_pages"`
	HasNext    bool                 `json:"has_next"`
	HasPrev    bool                 `json:"has_prev"`
}

// NormalizePage clamps page and perPage into their valid ranges.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// newPage fills in the pagination summary for items taken at the given
// page out of total entries.
func newPage(items []model.BookingEntry, page, perPage, total int) Page {
	if items == nil {
		items = []model.BookingEntry{}
	}
	totalPages := (total + perPage - 1) / perPage
	end := page * perPage
	return Page{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    end < total,
		HasPrev:    page > 1,
	}
}

// checkCancellable validates the transition to cancelled.
func checkCancellable(e *model.BookingEntry) error {
	if e.Status == booking.StatusCancelled {
		return ErrAlreadyCancelled
	}
	if !e.Record.Showtime.Cancellable {
		return ErrNotCancellable
	}
	return nil
}
