// Package service coordinates booking dialogs, the booking history and the
// events emitted when a booking completes.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// ErrSessionNotFound is returned for unknown, dismissed or expired sessions.
var ErrSessionNotFound = errors.New("booking session not found")

// Catalog resolves the theater and showtime a session is opened for.
type Catalog interface {
	GetTheater(ctx context.Context, id uint64) (*model.Theater, error)
	GetShowtime(ctx context.Context, theaterID, showtimeID uint64) (*model.Theater, *model.Showtime, error)
}

// Completer receives bookings whose dialog has been dismissed after
// confirmation.
type Completer interface {
	Complete(ctx context.Context, theaterID uint64, rec booking.BookingRecord) (*model.BookingEntry, error)
}

// OpenRequest selects the screening for a new session.
type OpenRequest struct {
	TheaterID  uint64
	ShowtimeID uint64
	DateLabel  string // defaults to "Today, <date>"
}

type sessionEntry struct {
	mu        sync.Mutex
	id        string
	theaterID uint64
	session   *booking.Session
	lastSeen  time.Time
	closed    bool // set once removed from the registry
}

// SessionManager owns the open booking dialogs. The engine session is not
// safe for concurrent use, so every operation on a session runs under that
// session's lock. When both locks are needed the session lock is taken
// first.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry

	catalog      Catalog
	completer    Completer
	ttl          time.Duration
	defaultPrice int
	log          *zap.Logger
	now          func() time.Time
	opts         []booking.Option
}

// NewSessionManager constructs a manager. Sessions idle for longer than ttl
// are removed by SweepExpired. defaultPrice replaces a missing showtime
// price.
func NewSessionManager(catalog Catalog, completer Completer, ttl time.Duration, defaultPrice int, log *zap.Logger) *SessionManager {
	if catalog == nil || completer == nil {
		panic("nil dependency passed to NewSessionManager")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		sessions:     make(map[string]*sessionEntry),
		catalog:      catalog,
		completer:    completer,
		ttl:          ttl,
		defaultPrice: defaultPrice,
		log:          log,
		now:          time.Now,
	}
}

// WithSessionOptions passes engine options to every session opened later.
func (m *SessionManager) WithSessionOptions(opts ...booking.Option) *SessionManager {
	m.opts = append(m.opts, opts...)
	return m
}

// Open starts a booking dialog for a showtime.
func (m *SessionManager) Open(ctx context.Context, req OpenRequest) (SessionView, error) {
	theater, st, err := m.catalog.GetShowtime(ctx, req.TheaterID, req.ShowtimeID)
	if err != nil {
		return SessionView{}, err
	}
	desc := st.Descriptor()
	if desc.Price <= 0 {
		desc.Price = m.defaultPrice
	}
	date := req.DateLabel
	if date == "" {
		date = "Today, " + m.now().Format("2 Jan 2006")
	}

	e := &sessionEntry{
		id:        uuid.NewString(),
		theaterID: theater.ID,
		session:   booking.NewSession(theater.Name, desc, date, m.opts...),
		lastSeen:  m.now(),
	}
	m.mu.Lock()
	m.sessions[e.id] = e
	m.mu.Unlock()

	m.log.Info("booking session opened",
		zap.String("session_id", e.id),
		zap.Uint64("theater_id", theater.ID),
		zap.Uint64("showtime_id", st.ID))
	return newSessionView(e), nil
}

// Get returns the current state of a session.
func (m *SessionManager) Get(id string) (SessionView, error) {
	var v SessionView
	err := m.with(id, func(e *sessionEntry) error {
		v = newSessionView(e)
		return nil
	})
	return v, err
}

// ToggleSeat selects or deselects a seat. The view is returned even when the
// selection limit was hit so callers can re-render.
func (m *SessionManager) ToggleSeat(id, seatID string) (booking.ToggleResult, SessionView, error) {
	var (
		res booking.ToggleResult
		v   SessionView
	)
	err := m.with(id, func(e *sessionEntry) error {
		var err error
		res, err = e.session.ToggleSeat(seatID)
		v = newSessionView(e)
		return err
	})
	return res, v, err
}

// ChangeTicketCount adjusts a ticket category by delta.
func (m *SessionManager) ChangeTicketCount(id string, category booking.Category, delta int) (SessionView, error) {
	var v SessionView
	err := m.with(id, func(e *sessionEntry) error {
		err := e.session.ChangeTicketCount(category, delta)
		v = newSessionView(e)
		return err
	})
	return v, err
}

// Confirm validates the selection and returns the booking record. The
// session stays registered until it is dismissed.
func (m *SessionManager) Confirm(id string) (booking.BookingRecord, error) {
	var rec booking.BookingRecord
	err := m.with(id, func(e *sessionEntry) error {
		var err error
		rec, err = e.session.Confirm()
		if err == nil {
			m.log.Info("booking confirmed",
				zap.String("session_id", id),
				zap.String("booking_id", rec.BookingID),
				zap.Strings("seats", rec.SelectedSeats),
				zap.Int("total_amount", rec.TotalAmount))
		}
		return err
	})
	return rec, err
}

// Dismiss closes a session. For a confirmed session the booking is handed
// to the completer and the resulting history entry is returned; for an
// open one the dialog is discarded and the entry is nil. When completion
// fails the session stays registered and confirmed, so Dismiss can be
// retried and the sweeper will retry it too.
func (m *SessionManager) Dismiss(ctx context.Context, id string) (*model.BookingEntry, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrSessionNotFound
	}
	return m.close(ctx, e)
}

// SweepExpired removes sessions idle since before now-ttl. Confirmed
// sessions are completed rather than dropped; one whose completion fails
// is kept for the next sweep. It returns how many sessions were removed.
func (m *SessionManager) SweepExpired(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	removed := 0
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed && e.lastSeen.Before(cutoff) {
			if _, err := m.close(ctx, e); err != nil {
				m.log.Error("completing expired session failed", zap.String("session_id", e.id), zap.Error(err))
			} else {
				removed++
			}
		}
		e.mu.Unlock()
	}
	if removed > 0 {
		m.log.Info("expired booking sessions swept", zap.Int("count", removed))
	}
	return removed
}

// RunSweeper calls SweepExpired every interval until ctx is cancelled.
func (m *SessionManager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			m.SweepExpired(ctx, t)
		}
	}
}

// Len returns the number of registered sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// close dismisses the engine session and, once that succeeds, drops the
// entry from the registry. The caller holds e.mu.
func (m *SessionManager) close(ctx context.Context, e *sessionEntry) (*model.BookingEntry, error) {
	var entry *model.BookingEntry
	err := e.session.Dismiss(func(rec booking.BookingRecord) error {
		var err error
		entry, err = m.completer.Complete(ctx, e.theaterID, rec)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.closed = true
	m.mu.Lock()
	delete(m.sessions, e.id)
	m.mu.Unlock()

	m.log.Debug("booking session closed", zap.String("session_id", e.id), zap.Bool("completed", entry != nil))
	return entry, nil
}

func (m *SessionManager) with(id string, fn func(*sessionEntry) error) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	// Dismissed or swept while we waited for the lock.
	if e.closed {
		return ErrSessionNotFound
	}
	e.lastSeen = m.now()
	return fn(e)
}
