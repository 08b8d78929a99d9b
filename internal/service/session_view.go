package service

import "github.com/iliyamo/cinema-seat-booking/internal/booking"

// SeatView is a seat as rendered on the seat map.
type SeatView struct {
	booking.Seat
	IsSelected bool `json:"is_selected"`
}

// SessionView is a snapshot of a booking dialog for the presentation layer.
type SessionView struct {
	ID           string                 `json:"id"`
	TheaterID    uint64                 `json:"theater_id"`
	Theater      string                 `json:"theater"`
	Showtime     booking.Showtime       `json:"showtime"`
	Date         string                 `json:"date"`
	State        string                 `json:"state"`
	Rows         [][]SeatView           `json:"rows"`
	TicketCounts booking.TicketCounts   `json:"ticket_counts"`
	TotalTickets int                    `json:"total_tickets"`
	Selection    []string               `json:"selection"`
	UnitPrices   booking.UnitPrices     `json:"unit_prices"`
	Breakdown    booking.PriceBreakdown `json:"breakdown"`
	Record       *booking.BookingRecord `json:"record,omitempty"`
}

func newSessionView(e *sessionEntry) SessionView {
	s := e.session
	rows := make([][]SeatView, 0, len(s.Layout().Rows))
	for _, row := range s.Layout().Rows {
		out := make([]SeatView, 0, len(row))
		for _, seat := range row {
			out = append(out, SeatView{Seat: seat, IsSelected: s.IsSelected(seat.ID)})
		}
		rows = append(rows, out)
	}
	v := SessionView{
		ID:           e.id,
		TheaterID:    e.theaterID,
		Theater:      s.Theater(),
		Showtime:     s.Showtime(),
		Date:         s.DateLabel(),
		State:        s.State().String(),
		Rows:         rows,
		TicketCounts: s.Counts(),
		TotalTickets: s.TotalTickets(),
		Selection:    s.Selection(),
		UnitPrices:   s.UnitPrices(),
		Breakdown:    s.Breakdown(),
	}
	if rec, ok := s.Record(); ok {
		v.Record = &rec
	}
	return v
}
