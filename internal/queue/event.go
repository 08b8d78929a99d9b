// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher and consumer that carry them.
package queue

import (
	"time"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
)

// BookingQueueName is the durable queue confirmed bookings are sent to.
const BookingQueueName = "booking.confirmed"

// BookingConfirmedEvent is published when a confirmed booking dialog is
// completed. It carries enough to log or notify without reading the
// booking history.
type BookingConfirmedEvent struct {
	BookingID      string   `json:"booking_id"`
	TheaterID      uint64   `json:"theater_id"`
	Theater        string   `json:"theater"`
	Showtime       string   `json:"showtime"`
	Format         string   `json:"format"`
	Date           string   `json:"date"`
	Seats          []string `json:"seats"`
	Adult          int      `json:"adult"`
	Child          int      `json:"child"`
	Senior         int      `json:"senior"`
	Subtotal       int      `json:"subtotal"`
	ConvenienceFee int      `json:"convenience_fee"`
	Taxes          int      `json:"taxes"`
	TotalAmount    int      `json:"total_amount"`
	ConfirmedAt    string   `json:"confirmed_at"`
}

// NewBookingConfirmedEvent flattens a booking record into an event.
func NewBookingConfirmedEvent(theaterID uint64, rec booking.BookingRecord) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:      rec.BookingID,
		TheaterID:      theaterID,
		Theater:        rec.Theater,
		Showtime:       rec.Showtime.Time,
		Format:         rec.Showtime.Format,
		Date:           rec.Date,
		Seats:          rec.SelectedSeats,
		Adult:          rec.TicketCounts.Adult,
		Child:          rec.TicketCounts.Child,
		Senior:         rec.TicketCounts.Senior,
		Subtotal:       rec.Subtotal,
		ConvenienceFee: rec.ConvenienceFee,
		Taxes:          rec.Taxes,
		TotalAmount:    rec.TotalAmount,
		ConfirmedAt:    rec.ConfirmedAt.UTC().Format(time.RFC3339),
	}
}
