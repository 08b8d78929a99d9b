package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

const (
	qInsertBooking = `INSERT INTO booking_history (booking_id, theater_id, status, record, mticket, booked_at) VALUES (?, ?, ?, ?, ?, ?)`
	qCountBookings = `SELECT COUNT(*) FROM booking_history`
	qListBookings  = `SELECT booking_id, theater_id, status, record, mticket, booked_at, cancelled_at FROM booking_history ORDER BY id LIMIT ? OFFSET ?`
	qGetBooking    = `SELECT booking_id, theater_id, status, record, mticket, booked_at, cancelled_at FROM booking_history WHERE booking_id = ?`
	qCancelBooking = `UPDATE booking_history SET status = ?, cancelled_at = ? WHERE booking_id = ?`
)

// MySQLBookingRepo stores the booking history in the booking_history
// table. The engine record is kept as a JSON document next to the columns
// that change after confirmation.
type MySQLBookingRepo struct {
	db *sql.DB
}

// NewMySQLBookingRepo constructs a MySQLBookingRepo with the given DB handle.
func NewMySQLBookingRepo(db *sql.DB) *MySQLBookingRepo {
	return &MySQLBookingRepo{db: db}
}

func (r *MySQLBookingRepo) Append(ctx context.Context, e model.BookingEntry) error {
	doc, err := json.Marshal(e.Record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = r.db.ExecContext(ctx, qInsertBooking,
		e.ID(), e.TheaterID, e.Status, doc, e.MTicket, e.BookedAt.UTC())
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrDuplicateBooking
		}
		return err
	}
	return nil
}

func (r *MySQLBookingRepo) List(ctx context.Context, page, perPage int) (Page, error) {
	page, perPage = NormalizePage(page, perPage)
	var total int
	if err := r.db.QueryRowContext(ctx, qCountBookings).Scan(&total); err != nil {
		return Page{}, err
	}
	rows, err := r.db.QueryContext(ctx, qListBookings, perPage, (page-1)*perPage)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	var items []model.BookingEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return Page{}, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	return newPage(items, page, perPage, total), nil
}

func (r *MySQLBookingRepo) Get(ctx context.Context, bookingID string) (*model.BookingEntry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, qGetBooking, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return e, err
}

// Cancel locks the row, validates the transition and marks the booking
// cancelled in one transaction.
func (r *MySQLBookingRepo) Cancel(ctx context.Context, bookingID string, at time.Time) (*model.BookingEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	e, err := scanEntry(tx.QueryRowContext(ctx, qGetBooking+" FOR UPDATE", bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if err := checkCancellable(e); err != nil {
		return nil, err
	}
	at = at.UTC()
	if _, err := tx.ExecContext(ctx, qCancelBooking, booking.StatusCancelled, at, bookingID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	e.Status = booking.StatusCancelled
	e.CancelledAt = &at
	return e, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (*model.BookingEntry, error) {
	var (
		e         model.BookingEntry
		id        string
		doc       []byte
		cancelled sql.NullTime
	)
	if err := s.Scan(&id, &e.TheaterID, &e.Status, &doc, &e.MTicket, &e.BookedAt, &cancelled); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, &e.Record); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	if cancelled.Valid {
		t := cancelled.Time
		e.CancelledAt = &t
	}
	return &e, nil
}
