package utils // package utils provides helpers for signing and verifying mobile tickets

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
)

// ErrInvalidTicket is returned for tokens that fail signature or claim checks.
var ErrInvalidTicket = errors.New("invalid ticket")

const ticketIssuer = "cinema-seat-booking"

// TicketClaims is the payload of a mobile ticket. Gate staff only need the
// booking id, seats and screening to admit a party, so that is all it holds.
type TicketClaims struct {
	BookingID string               `json:"booking_id"`
	Theater   string               `json:"theater"`
	Showtime  string               `json:"showtime"`
	Date      string               `json:"date"`
	Seats     []string             `json:"seats"`
	Tickets   booking.TicketCounts `json:"tickets"`
	jwt.RegisteredClaims
}

// NewTicketToken signs an HS256 mobile ticket for a confirmed booking. The
// token subject is the booking id and it is issued at the confirmation time.
func NewTicketToken(secret string, rec booking.BookingRecord) (string, error) {
	if secret == "" {
		return "", errors.New("ticket secret is empty")
	}
	claims := TicketClaims{
		BookingID: rec.BookingID,
		Theater:   rec.Theater,
		Showtime:  rec.Showtime.Time,
		Date:      rec.Date,
		Seats:     rec.SelectedSeats,
		Tickets:   rec.TicketCounts,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   ticketIssuer,
			Subject:  rec.BookingID,
			IssuedAt: jwt.NewNumericDate(issuedAt(rec)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseTicketToken verifies the signature and issuer of a mobile ticket and
// returns its claims.
func ParseTicketToken(secret, raw string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidTicket
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(ticketIssuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidTicket
	}
	return claims, nil
}

func issuedAt(rec booking.BookingRecord) time.Time {
	if rec.ConfirmedAt.IsZero() {
		return time.Now().UTC()
	}
	return rec.ConfirmedAt
}
