package model

import "github.com/iliyamo/cinema-seat-booking/internal/booking"

// Facilities a theater can offer.
const (
	FacilityMTicket = "mticket" // mobile ticket issued on confirmation
	FacilityFood    = "food"
)

// Theater is a venue listed on the booking page together with the
// showtimes it runs for the selected movie.
type Theater struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name"`
	Location   string     `json:"location"`
	Facilities []string   `json:"facilities"`
	Showtimes  []Showtime `json:"showtimes"`
}

// HasFacility reports whether the theater offers the named facility.
func (t Theater) HasFacility(name string) bool {
	for _, f := range t.Facilities {
		if f == name {
			return true
		}
	}
	return false
}

// Showtime is one screening of a theater.
//
// Fields:
//  ID          – identifier unique within the theater.
//  Time        – display time, e.g. "11:25 PM".
//  Format      – projection/audio format, e.g. "DOLBY ATMOS".
//  Status      – "available" or "filling fast"; informational only.
//  Price       – base adult price in whole currency units.
//  Cancellable – whether confirmed bookings may be cancelled later.
type Showtime struct {
	ID          uint64 `json:"id"`
	Time        string `json:"time"`
	Format      string `json:"format"`
	Status      string `json:"status"`
	Price       int    `json:"price"`
	Cancellable bool   `json:"cancellable"`
}

// Descriptor converts the showtime into the form the booking engine records.
func (s Showtime) Descriptor() booking.Showtime {
	return booking.Showtime{
		Time:        s.Time,
		Format:      s.Format,
		Price:       s.Price,
		Cancellable: s.Cancellable,
	}
}
