package booking

import (
	"strconv"
	"sync"
	"time"
)

// Booking statuses.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Showtime describes the screening a booking dialog was opened for.
type Showtime struct {
	Time        string `json:"time"`        // display time, e.g. "11:25 PM"
	Format      string `json:"format"`      // e.g. "DOLBY 7.1"
	Price       int    `json:"price"`       // base price; zero means use the fallback
	Cancellable bool   `json:"cancellable"` // whether a confirmed booking may be cancelled
}

// BookingRecord is the result of a successful confirmation. It is never
// modified by the engine once created.
type BookingRecord struct {
	BookingID     string       `json:"booking_id"`
	Theater       string       `json:"theater"`
	Showtime      Showtime     `json:"showtime"`
	Date          string       `json:"date"`
	SelectedSeats []string     `json:"selected_seats"`
	TicketCounts  TicketCounts `json:"ticket_counts"`
	PriceBreakdown
	Status      string    `json:"status"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// IDGenerator produces booking ids.
type IDGenerator interface {
	NewID() string
}

// TimestampIDs issues ids of the form BMS<unix-millis>. When two ids are
// requested within the same millisecond the later one is bumped forward,
// so ids from one generator are strictly increasing and never repeat.
type TimestampIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewTimestampIDs returns a generator reading the wall clock.
func NewTimestampIDs() *TimestampIDs {
	return &TimestampIDs{now: time.Now}
}

func (g *TimestampIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return "BMS" + strconv.FormatInt(ms, 10)
}

// defaultIDs is shared by sessions created without an explicit generator so
// ids stay unique across sessions in one process.
var defaultIDs = NewTimestampIDs()
