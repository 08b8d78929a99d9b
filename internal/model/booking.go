package model

import (
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
)

// BookingEntry is a confirmed booking as kept in the booking history. It
// wraps the immutable engine record with the fields that change after
// confirmation.
//
// Fields:
//  Record      – the record produced at confirmation.
//  TheaterID   – theater the booking was made at.
//  Status      – confirmed or cancelled; starts as Record.Status.
//  MTicket     – signed mobile ticket, empty when the theater has none.
//  BookedAt    – when the entry was appended to the history.
//  CancelledAt – set once the booking is cancelled.
type BookingEntry struct {
	Record      booking.BookingRecord `json:"record"`
	TheaterID   uint64                `json:"theater_id"`
	Status      string                `json:"status"`
	MTicket     string                `json:"mticket,omitempty"`
	BookedAt    time.Time             `json:"booked_at"`
	CancelledAt *time.Time            `json:"cancelled_at,omitempty"`
}

// ID is the booking id of the entry.
func (e BookingEntry) ID() string { return e.Record.BookingID }
