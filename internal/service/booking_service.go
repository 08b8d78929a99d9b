package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/utils"
)

// ErrTicketRevoked is returned when a valid mobile ticket belongs to a
// booking that has since been cancelled.
var ErrTicketRevoked = errors.New("ticket belongs to a cancelled booking")

// BookingService completes confirmed bookings and serves the booking
// history.
type BookingService struct {
	repo         repository.BookingRepo
	catalog      Catalog
	publisher    queue.Publisher
	ticketSecret string
	log          *zap.Logger
	now          func() time.Time
}

// NewBookingService wires the history, catalogue and event publisher. With
// an empty ticketSecret no mobile tickets are issued.
func NewBookingService(repo repository.BookingRepo, catalog Catalog, publisher queue.Publisher, ticketSecret string, log *zap.Logger) *BookingService {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{
		repo:         repo,
		catalog:      catalog,
		publisher:    publisher,
		ticketSecret: ticketSecret,
		log:          log,
		now:          time.Now,
	}
}

// Complete appends the booking to the history, attaches a mobile ticket
// when the theater offers one and publishes booking.confirmed. A failed
// publish is logged only.
func (s *BookingService) Complete(ctx context.Context, theaterID uint64, rec booking.BookingRecord) (*model.BookingEntry, error) {
	entry := model.BookingEntry{
		Record:    rec,
		TheaterID: theaterID,
		Status:    rec.Status,
		BookedAt:  s.stamp(),
	}

	if s.ticketSecret != "" {
		theater, err := s.catalog.GetTheater(ctx, theaterID)
		if err != nil {
			s.log.Warn("theater lookup for mticket failed", zap.Uint64("theater_id", theaterID), zap.Error(err))
		} else if theater.HasFacility(model.FacilityMTicket) {
			tok, err := utils.NewTicketToken(s.ticketSecret, rec)
			if err != nil {
				return nil, fmt.Errorf("sign mticket: %w", err)
			}
			entry.MTicket = tok
		}
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("append booking %s: %w", rec.BookingID, err)
	}

	if err := s.publisher.PublishBookingConfirmed(ctx, queue.NewBookingConfirmedEvent(theaterID, rec)); err != nil {
		s.log.Warn("publish booking.confirmed failed", zap.String("booking_id", rec.BookingID), zap.Error(err))
	}

	s.log.Info("booking completed",
		zap.String("booking_id", rec.BookingID),
		zap.String("theater", rec.Theater),
		zap.Strings("seats", rec.SelectedSeats),
		zap.Int("total_amount", rec.TotalAmount),
		zap.Bool("mticket", entry.MTicket != ""))
	return &entry, nil
}

// List returns one page of the booking history.
func (s *BookingService) List(ctx context.Context, page, perPage int) (repository.Page, error) {
	page, perPage = repository.NormalizePage(page, perPage)
	return s.repo.List(ctx, page, perPage)
}

// Get returns a booking by id.
func (s *BookingService) Get(ctx context.Context, bookingID string) (*model.BookingEntry, error) {
	return s.repo.Get(ctx, bookingID)
}

// Cancel marks a booking as cancelled when its showtime allows it.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (*model.BookingEntry, error) {
	e, err := s.repo.Cancel(ctx, bookingID, s.stamp())
	if err != nil {
		return nil, err
	}
	s.log.Info("booking cancelled", zap.String("booking_id", bookingID))
	return e, nil
}

// stamp is the current time at the millisecond precision the history
// tables store.
func (s *BookingService) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// TicketCheck is the result of verifying a mobile ticket.
type TicketCheck struct {
	Claims *utils.TicketClaims `json:"claims"`
	Status string              `json:"status"`
}

// VerifyTicket checks the signature of a mobile ticket and that its booking
// is still confirmed. Tickets for bookings missing from the history are
// rejected as invalid.
func (s *BookingService) VerifyTicket(ctx context.Context, token string) (*TicketCheck, error) {
	if s.ticketSecret == "" {
		return nil, utils.ErrInvalidTicket
	}
	claims, err := utils.ParseTicketToken(s.ticketSecret, token)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.Get(ctx, claims.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, utils.ErrInvalidTicket
		}
		return nil, err
	}
	if e.Status == booking.StatusCancelled {
		return nil, ErrTicketRevoked
	}
	return &TicketCheck{Claims: claims, Status: e.Status}, nil
}
