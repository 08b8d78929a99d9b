// Package repository holds the catalogue of theaters and the booking
// history. Sentinel errors are shared by every implementation so handlers
// can map them to HTTP responses without knowing the backing store.
package repository

import "errors"

var (
	ErrTheaterNotFound  = errors.New("theater not found")
	ErrShowtimeNotFound = errors.New("showtime not found")
	ErrBookingNotFound  = errors.New("booking not found")

	// ErrNotCancellable is returned when the showtime of a booking does not
	// allow cancellation. Handlers translate it into 409.
	ErrNotCancellable = errors.New("booking cannot be cancelled")
	// ErrAlreadyCancelled is returned when cancelling twice.
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	// ErrDuplicateBooking is returned when appending a booking id twice.
	ErrDuplicateBooking = errors.New("booking already recorded")
)
