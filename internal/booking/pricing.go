package booking

import "fmt"

// Category is a ticket type with its own price.
type Category string

const (
	Adult  Category = "adult"
	Child  Category = "child"
	Senior Category = "senior"
)

// ParseCategory validates a category name coming from a request.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case Adult, Child, Senior:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Percentages applied to the base price and subtotal. Prices are whole
// currency units, so every derived amount is floored as soon as it is
// computed.
const (
	childPercent  = 70
	seniorPercent = 80
	feePercent    = 5
	taxPercent    = 18
)

// MaxTickets caps the total ticket count at the number of seats in a
// layout. No booking can need more seats than exist.
const MaxTickets = SeatsPerRow * 15

// TicketCounts holds how many tickets of each category the user wants.
// Counts never go below zero and never sum above MaxTickets.
type TicketCounts struct {
	Adult  int `json:"adult"`
	Child  int `json:"child"`
	Senior int `json:"senior"`
}

// DefaultTicketCounts is the state a fresh booking dialog starts in.
func DefaultTicketCounts() TicketCounts {
	return TicketCounts{Adult: 1}
}

// Total is the number of seats the user must pick.
func (t TicketCounts) Total() int {
	return t.Adult + t.Child + t.Senior
}

// Get returns the count for a category.
func (t TicketCounts) Get(c Category) int {
	switch c {
	case Adult:
		return t.Adult
	case Child:
		return t.Child
	case Senior:
		return t.Senior
	}
	return 0
}

// Add returns a copy with delta applied to one category. The count is
// clamped at zero and so that the total stays within MaxTickets.
func (t TicketCounts) Add(c Category, delta int) TicketCounts {
	current := t.Get(c)
	room := MaxTickets - (t.Total() - current)
	if room < 0 {
		room = 0
	}
	// Clamp delta before adding so huge values cannot overflow.
	if delta > room {
		delta = room
	}
	if delta < -current {
		delta = -current
	}
	n := current + delta
	if n > room {
		n = room
	}
	switch c {
	case Adult:
		t.Adult = n
	case Child:
		t.Child = n
	case Senior:
		t.Senior = n
	}
	return t
}

// UnitPrices are the per-ticket prices derived from a base price.
type UnitPrices struct {
	Adult  int `json:"adult"`
	Child  int `json:"child"`
	Senior int `json:"senior"`
}

// PricesFor derives the category prices: adults pay the base price,
// children 70% and seniors 80%, each floored.
func PricesFor(basePrice int) UnitPrices {
	return UnitPrices{
		Adult:  basePrice,
		Child:  percentOf(basePrice, childPercent),
		Senior: percentOf(basePrice, seniorPercent),
	}
}

// PriceBreakdown is the price summary shown beside the seat map.
type PriceBreakdown struct {
	Subtotal       int `json:"subtotal"`
	ConvenienceFee int `json:"convenience_fee"`
	Taxes          int `json:"taxes"`
	TotalAmount    int `json:"total_amount"`
}

// ComputePriceBreakdown prices the ticket counts. The fee and taxes are each
// floored on their own before being added to the subtotal.
func ComputePriceBreakdown(counts TicketCounts, basePrice int) PriceBreakdown {
	p := PricesFor(basePrice)
	subtotal := counts.Adult*p.Adult + counts.Child*p.Child + counts.Senior*p.Senior
	fee := percentOf(subtotal, feePercent)
	taxes := percentOf(subtotal, taxPercent)
	return PriceBreakdown{
		Subtotal:       subtotal,
		ConvenienceFee: fee,
		Taxes:          taxes,
		TotalAmount:    subtotal + fee + taxes,
	}
}

// percentOf returns floor(v * pct / 100) in exact integer arithmetic.
func percentOf(v, pct int) int {
	return floorDiv(v*pct, 100)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
