package booking

import (
	"time"
)

// State is the lifecycle stage of a booking dialog.
type State int

const (
	StateOpen State = iota
	StateConfirmed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateConfirmed:
		return "confirmed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ToggleResult tells the caller what ToggleSeat did.
type ToggleResult int

const (
	Ignored    ToggleResult = iota // seat is occupied, nothing changed
	Selected                       // seat appended to the selection
	Deselected                     // seat removed from the selection
)

func (r ToggleResult) String() string {
	switch r {
	case Selected:
		return "selected"
	case Deselected:
		return "deselected"
	}
	return "ignored"
}

// CompletionFunc receives the record when a confirmed dialog is dismissed.
// A non-nil error leaves the dialog confirmed so the dismiss can be retried.
type CompletionFunc func(BookingRecord) error

// Session is the state of one booking dialog: a seat layout, ticket counts
// and the ordered seat selection. It is not safe for concurrent use; callers
// that share a session across goroutines must serialize access.
type Session struct {
	theater   string
	showtime  Showtime
	dateLabel string
	basePrice int

	layout    *SeatLayout
	counts    TicketCounts
	selection []string
	state     State
	record    *BookingRecord

	ids IDGenerator
	now func() time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithIDGenerator replaces the process-wide booking id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Session) { s.ids = g }
}

// WithClock replaces time.Now for the confirmation timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession opens a booking dialog with a freshly generated layout, one
// adult ticket and no seats selected.
func NewSession(theater string, showtime Showtime, dateLabel string, opts ...Option) *Session {
	base := NormalizeBasePrice(showtime.Price)
	s := &Session{
		theater:   theater,
		showtime:  showtime,
		dateLabel: dateLabel,
		basePrice: base,
		layout:    GenerateLayout(base),
		counts:    DefaultTicketCounts(),
		selection: []string{},
		state:     StateOpen,
		ids:       defaultIDs,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Theater() string { return s.theater }
func (s *Session) Showtime() Showtime { return s.showtime }
func (s *Session) DateLabel() string { return s.dateLabel }
func (s *Session) BasePrice() int { return s.basePrice }
func (s *Session) Layout() *SeatLayout { return s.layout }
func (s *Session) Counts() TicketCounts { return s.counts }
func (s *Session) State() State { return s.state }
func (s *Session) TotalTickets() int { return s.counts.Total() }
func (s *Session) UnitPrices() UnitPrices { return PricesFor(s.basePrice) }

// Selection returns a copy of the selected seat ids in selection order.
func (s *Session) Selection() []string {
	out := make([]string, len(s.selection))
	copy(out, s.selection)
	return out
}

// IsSelected reports whether the seat is part of the selection.
func (s *Session) IsSelected(seatID string) bool {
	return s.indexOf(seatID) >= 0
}

// Breakdown prices the current ticket counts.
func (s *Session) Breakdown() PriceBreakdown {
	return ComputePriceBreakdown(s.counts, s.basePrice)
}

// Record returns the booking record once the session is confirmed.
func (s *Session) Record() (BookingRecord, bool) {
	if s.record == nil {
		return BookingRecord{}, false
	}
	return *s.record, true
}

// ToggleSeat selects or deselects a seat. Occupied seats are ignored. A new
// seat is rejected with a *LimitError when the selection already matches
// the ticket count.
func (s *Session) ToggleSeat(seatID string) (ToggleResult, error) {
	if s.state != StateOpen {
		return Ignored, ErrSessionClosed
	}
	seat, ok := s.layout.Seat(seatID)
	if !ok {
		return Ignored, ErrSeatNotFound
	}
	if !seat.IsAvailable {
		return Ignored, nil
	}
	if i := s.indexOf(seatID); i >= 0 {
		s.selection = append(s.selection[:i], s.selection[i+1:]...)
		return Deselected, nil
	}
	if len(s.selection) >= s.counts.Total() {
		return Ignored, &LimitError{Limit: s.counts.Total()}
	}
	s.selection = append(s.selection, seatID)
	return Selected, nil
}

// ChangeTicketCount adjusts one category, clamping at zero and at
// MaxTickets in total. When the new
// total drops below the number of selected seats, the most recently
// selected seats are dropped until they match.
func (s *Session) ChangeTicketCount(c Category, delta int) error {
	if s.state != StateOpen {
		return ErrSessionClosed
	}
	if _, err := ParseCategory(string(c)); err != nil {
		return err
	}
	s.counts = s.counts.Add(c, delta)
	if total := s.counts.Total(); len(s.selection) > total {
		s.selection = s.selection[:total]
	}
	return nil
}

// Confirm validates the selection and produces the booking record. An empty
// selection fails with ErrEmptySelection; a selection that does not match
// the ticket count fails with a *SelectionMismatchError. On success the
// session becomes Confirmed and accepts no further changes.
func (s *Session) Confirm() (BookingRecord, error) {
	if s.state != StateOpen {
		return BookingRecord{}, ErrSessionClosed
	}
	if len(s.selection) == 0 {
		return BookingRecord{}, ErrEmptySelection
	}
	if total := s.counts.Total(); len(s.selection) != total {
		return BookingRecord{}, &SelectionMismatchError{Needed: total, Selected: len(s.selection)}
	}
	rec := BookingRecord{
		BookingID:      s.ids.NewID(),
		Theater:        s.theater,
		Showtime:       s.showtime,
		Date:           s.dateLabel,
		SelectedSeats:  s.Selection(),
		TicketCounts:   s.counts,
		PriceBreakdown: s.Breakdown(),
		Status:         StatusConfirmed,
		ConfirmedAt:    s.now().UTC(),
	}
	s.record = &rec
	s.state = StateConfirmed
	return rec, nil
}

// Dismiss closes the dialog. A confirmed session hands its record to done
// and only closes once done succeeds; an open one is simply discarded.
// Dismissing a closed session is a no-op.
func (s *Session) Dismiss(done CompletionFunc) error {
	if s.state == StateClosed {
		return nil
	}
	if s.state == StateConfirmed && done != nil {
		if err := done(*s.record); err != nil {
			return err
		}
	}
	s.state = StateClosed
	return nil
}

func (s *Session) indexOf(seatID string) int {
	for i, id := range s.selection {
		if id == seatID {
			return i
		}
	}
	return -1
}
