// Package booking implements the seat selection and pricing engine behind a
// single booking dialog: a fixed seat map, ticket counters, the derived
// price breakdown and the final booking confirmation.
package booking

import (
	"strconv"
)

const (
	// SeatsPerRow is the number of seats in every row of the layout.
	SeatsPerRow = 20
	// DefaultBasePrice is used when a showtime carries no price.
	DefaultBasePrice = 180
)

// RowLabels lists the rows of the layout from the screen backwards.
var RowLabels = []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M", "N", "O"}

// occupiedSeats is the static occupancy seed. It is identical for every
// theater and showtime and stands in for a real inventory lookup.
var occupiedSeats = []string{
	"A1", "A4", "A5", "A18", "A20",
	"B2", "B4", "B6", "B9", "B13", "B14", "B18",
	"C7", "C8", "C16",
	"D2", "D4", "D13", "D18", "D20",
	"E2", "E4", "E5", "E19",
	"F2", "F9", "F10", "F18",
	"G5", "G8", "G17", "G20",
	"H7", "H10", "H11", "H15", "H18", "H19",
	"I6", "I12",
	"J6", "J15", "J18", "J20",
	"K1", "K4", "K8", "K9", "K10", "K12", "K14", "K15", "K18",
	"L7", "L8", "L13", "L17",
	"M1", "M7", "M8",
	"N2", "N3", "N5", "N6", "N7", "N8", "N9", "N13", "N14", "N16", "N19", "N20",
	"O3", "O5", "O6", "O7", "O9", "O13", "O14", "O16",
}

// OccupiedSeats returns a copy of the occupancy seed.
func OccupiedSeats() []string {
	out := make([]string, len(occupiedSeats))
	copy(out, occupiedSeats)
	return out
}

// Seat is one position in the layout. IsAvailable is decided when the layout
// is generated and never changes afterwards; selecting a seat does not
// occupy it.
type Seat struct {
	ID          string `json:"id"`           // row label + number, e.g. C7
	Row         string `json:"row"`          // row label A..O
	Number      int    `json:"number"`       // 1..SeatsPerRow
	IsAvailable bool   `json:"is_available"` // false for seeded occupied seats
	Price       int    `json:"price"`        // base price of the showtime
}

// SeatLayout is the full grid for one booking session.
type SeatLayout struct {
	Rows  [][]Seat
	index map[string]Seat
}

// SeatID builds the id of the seat at the given row and number.
func SeatID(row string, number int) string {
	return row + strconv.Itoa(number)
}

// NormalizeBasePrice applies the fallback price when the showtime carries
// none. Zero counts as absent.
func NormalizeBasePrice(basePrice int) int {
	if basePrice <= 0 {
		return DefaultBasePrice
	}
	return basePrice
}

// GenerateLayout builds the 15x20 grid. The same seats are occupied on every
// call.
func GenerateLayout(basePrice int) *SeatLayout {
	price := NormalizeBasePrice(basePrice)
	occupied := make(map[string]struct{}, len(occupiedSeats))
	for _, id := range occupiedSeats {
		occupied[id] = struct{}{}
	}

	l := &SeatLayout{
		Rows:  make([][]Seat, 0, len(RowLabels)),
		index: make(map[string]Seat, len(RowLabels)*SeatsPerRow),
	}
	for _, row := range RowLabels {
		seats := make([]Seat, 0, SeatsPerRow)
		for n := 1; n <= SeatsPerRow; n++ {
			id := SeatID(row, n)
			_, taken := occupied[id]
			s := Seat{ID: id, Row: row, Number: n, IsAvailable: !taken, Price: price}
			seats = append(seats, s)
			l.index[id] = s
		}
		l.Rows = append(l.Rows, seats)
	}
	return l
}

// Seat looks up a seat by id.
func (l *SeatLayout) Seat(id string) (Seat, bool) {
	s, ok := l.index[id]
	return s, ok
}

// Len returns the number of seats in the layout.
func (l *SeatLayout) Len() int { return len(l.index) }

// AvailableCount returns how many seats can still be selected.
func (l *SeatLayout) AvailableCount() int {
	n := 0
	for _, s := range l.index {
		if s.IsAvailable {
			n++
		}
	}
	return n
}
