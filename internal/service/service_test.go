package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/utils"
)

const testSecret = "test-ticket-secret"

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("BMS%d", g.n)
}

type fixture struct {
	repo *repository.MemoryBookingRepo
	pub  *recordingPublisher
	svc  *BookingService
	mgr  *SessionManager
}

func newFixture(t *testing.T, theaters []model.Theater) *fixture {
	t.Helper()
	catalog := repository.NewCatalogRepo(theaters)
	repo := repository.NewMemoryBookingRepo()
	pub := &recordingPublisher{}
	svc := NewBookingService(repo, catalog, pub, testSecret, nil)
	mgr := NewSessionManager(catalog, svc, 30*time.Minute, 180, nil).
		WithSessionOptions(booking.WithIDGenerator(&seqIDs{}))
	return &fixture{repo: repo, pub: pub, svc: svc, mgr: mgr}
}

// confirmTwoSeats opens a session at the theater, books two adults on C2
// and C3 and confirms it.
func (f *fixture) confirmTwoSeats(t *testing.T, theaterID uint64) (string, booking.BookingRecord) {
	t.Helper()
	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: theaterID, ShowtimeID: 1, DateLabel: "Today, 8 Mar"})
	require.NoError(t, err)
	_, err = f.mgr.ChangeTicketCount(v.ID, booking.Adult, 1)
	require.NoError(t, err)
	for _, seat := range []string{"C2", "C3"} {
		res, _, err := f.mgr.ToggleSeat(v.ID, seat)
		require.NoError(t, err)
		require.Equal(t, booking.Selected, res)
	}
	rec, err := f.mgr.Confirm(v.ID)
	require.NoError(t, err)
	return v.ID, rec
}

func TestSessionManager_OpenDefaults(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())

	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 2, ShowtimeID: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "open", v.State)
	assert.Equal(t, 200, v.Showtime.Price)
	assert.Equal(t, booking.DefaultTicketCounts(), v.TicketCounts)
	assert.Empty(t, v.Selection)
	assert.Len(t, v.Rows, len(booking.RowLabels))
	assert.Contains(t, v.Date, "Today, ")
	assert.Equal(t, booking.UnitPrices{Adult: 200, Child: 140, Senior: 160}, v.UnitPrices)
	assert.Equal(t, 1, f.mgr.Len())
}

func TestSessionManager_OpenUnknownShowtime(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())

	_, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 99, ShowtimeID: 1})
	assert.ErrorIs(t, err, repository.ErrTheaterNotFound)

	_, err = f.mgr.Open(context.Background(), OpenRequest{TheaterID: 1, ShowtimeID: 7})
	assert.ErrorIs(t, err, repository.ErrShowtimeNotFound)
	assert.Zero(t, f.mgr.Len())
}

func TestSessionManager_OpenAppliesDefaultPrice(t *testing.T) {
	theaters := []model.Theater{{
		ID: 9, Name: "Free Screen",
		Showtimes: []model.Showtime{{ID: 1, Time: "10:00 AM", Format: "2D"}},
	}}
	f := newFixture(t, theaters)

	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 9, ShowtimeID: 1})
	require.NoError(t, err)
	assert.Equal(t, 180, v.Showtime.Price)
	assert.Equal(t, 180, v.Rows[0][0].Price)
}

func TestSessionManager_UnknownSession(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())

	_, err := f.mgr.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = f.mgr.ToggleSeat("missing", "A1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.mgr.ChangeTicketCount("missing", booking.Adult, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.mgr.Confirm("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.mgr.Dismiss(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManager_ToggleLimitReturnsView(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 1, ShowtimeID: 1})
	require.NoError(t, err)

	_, _, err = f.mgr.ToggleSeat(v.ID, "C2")
	require.NoError(t, err)
	res, view, err := f.mgr.ToggleSeat(v.ID, "C3")
	assert.ErrorIs(t, err, booking.ErrSelectionLimitReached)
	assert.Equal(t, booking.Ignored, res)
	assert.Equal(t, []string{"C2"}, view.Selection)
	assert.True(t, view.Rows[2][1].IsSelected)
	assert.False(t, view.Rows[2][2].IsSelected)
}

func TestSessionManager_ChangeTicketCountTruncates(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 1, ShowtimeID: 1})
	require.NoError(t, err)

	_, err = f.mgr.ChangeTicketCount(v.ID, booking.Child, 2)
	require.NoError(t, err)
	for _, seat := range []string{"C1", "C2", "C3"} {
		_, _, err := f.mgr.ToggleSeat(v.ID, seat)
		require.NoError(t, err)
	}

	view, err := f.mgr.ChangeTicketCount(v.ID, booking.Child, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"C1", "C2"}, view.Selection)
	assert.Equal(t, 2, view.TotalTickets)
	assert.Equal(t, booking.ComputePriceBreakdown(booking.TicketCounts{Adult: 1, Child: 1}, 180), view.Breakdown)
}

func TestSessionManager_ConfirmAndDismissCompletes(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	id, rec := f.confirmTwoSeats(t, 1)

	assert.Equal(t, "BMS1", rec.BookingID)
	assert.Equal(t, []string{"C2", "C3"}, rec.SelectedSeats)

	view, err := f.mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", view.State)
	require.NotNil(t, view.Record)

	// Nothing is stored until the dialog is dismissed.
	page, err := f.svc.List(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	entry, err := f.mgr.Dismiss(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, rec.BookingID, entry.ID())
	assert.Equal(t, uint64(1), entry.TheaterID)
	assert.NotEmpty(t, entry.MTicket)

	stored, err := f.svc.Get(context.Background(), rec.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, stored.Status)

	require.Len(t, f.pub.events, 1)
	assert.Equal(t, rec.BookingID, f.pub.events[0].BookingID)

	_, err = f.mgr.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManager_DismissOpenDiscards(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 1, ShowtimeID: 1})
	require.NoError(t, err)
	_, _, err = f.mgr.ToggleSeat(v.ID, "C2")
	require.NoError(t, err)

	entry, err := f.mgr.Dismiss(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Empty(t, f.pub.events)
	assert.Zero(t, f.mgr.Len())
}

func TestSessionManager_ConfirmedSessionRejectsEdits(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	id, _ := f.confirmTwoSeats(t, 1)

	_, _, err := f.mgr.ToggleSeat(id, "C4")
	assert.ErrorIs(t, err, booking.ErrSessionClosed)
	_, err = f.mgr.ChangeTicketCount(id, booking.Adult, 1)
	assert.ErrorIs(t, err, booking.ErrSessionClosed)
}

func TestSessionManager_SweepExpired(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	clock := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)
	f.mgr.now = func() time.Time { return clock }

	confirmedID, rec := f.confirmTwoSeats(t, 2)
	open, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 1, ShowtimeID: 1})
	require.NoError(t, err)

	clock = clock.Add(20 * time.Minute)
	fresh, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 3, ShowtimeID: 1})
	require.NoError(t, err)

	removed := f.mgr.SweepExpired(context.Background(), clock.Add(15*time.Minute))
	assert.Equal(t, 2, removed)

	_, err = f.mgr.Get(confirmedID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.mgr.Get(open.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.mgr.Get(fresh.ID)
	assert.NoError(t, err)

	// The confirmed booking survives the sweep.
	stored, err := f.svc.Get(context.Background(), rec.BookingID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stored.TheaterID)
	assert.Len(t, f.pub.events, 1)
}

func TestSessionManager_RunSweeperStops(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.mgr.RunSweeper(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSessionManager_ConcurrentToggles(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 1, ShowtimeID: 1})
	require.NoError(t, err)
	_, err = f.mgr.ChangeTicketCount(v.ID, booking.Adult, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _, _ = f.mgr.ToggleSeat(v.ID, booking.SeatID("E", n))
		}(i)
	}
	wg.Wait()

	view, err := f.mgr.Get(v.ID)
	require.NoError(t, err)
	assert.Len(t, view.Selection, 5)
}

func TestBookingService_CompleteWithoutMTicket(t *testing.T) {
	theaters := []model.Theater{{
		ID: 5, Name: "Plain Hall", Facilities: []string{model.FacilityFood},
		Showtimes: []model.Showtime{{ID: 1, Time: "09:00 PM", Format: "2D", Price: 100}},
	}}
	f := newFixture(t, theaters)
	id, _ := f.confirmTwoSeats(t, 5)

	entry, err := f.mgr.Dismiss(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Empty(t, entry.MTicket)
}

func TestBookingService_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	f.pub.err = errors.New("broker down")
	id, rec := f.confirmTwoSeats(t, 1)

	entry, err := f.mgr.Dismiss(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, entry)

	_, err = f.svc.Get(context.Background(), rec.BookingID)
	assert.NoError(t, err)
}

func TestBookingService_DuplicateAppendFails(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	rec := booking.BookingRecord{BookingID: "BMS42", Status: booking.StatusConfirmed}

	_, err := f.svc.Complete(context.Background(), 1, rec)
	require.NoError(t, err)
	_, err = f.svc.Complete(context.Background(), 1, rec)
	assert.ErrorIs(t, err, repository.ErrDuplicateBooking)
	assert.Len(t, f.pub.events, 1)
}

func TestBookingService_Cancel(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())

	// Theater 1 runs a non-cancellable showtime, theater 2 a cancellable one.
	id1, rec1 := f.confirmTwoSeats(t, 1)
	id2, rec2 := f.confirmTwoSeats(t, 2)
	_, err := f.mgr.Dismiss(context.Background(), id1)
	require.NoError(t, err)
	_, err = f.mgr.Dismiss(context.Background(), id2)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), rec1.BookingID)
	assert.ErrorIs(t, err, repository.ErrNotCancellable)

	e, err := f.svc.Cancel(context.Background(), rec2.BookingID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, e.Status)
	require.NotNil(t, e.CancelledAt)

	_, err = f.svc.Cancel(context.Background(), rec2.BookingID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCancelled)

	page, err := f.svc.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, repository.DefaultPerPage, page.PerPage)
	assert.Equal(t, rec1.BookingID, page.Items[0].ID())
}

func TestBookingService_VerifyTicket(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	id, rec := f.confirmTwoSeats(t, 2)
	entry, err := f.mgr.Dismiss(context.Background(), id)
	require.NoError(t, err)

	check, err := f.svc.VerifyTicket(context.Background(), entry.MTicket)
	require.NoError(t, err)
	assert.Equal(t, rec.BookingID, check.Claims.BookingID)
	assert.Equal(t, []string{"C2", "C3"}, check.Claims.Seats)
	assert.Equal(t, booking.StatusConfirmed, check.Status)

	_, err = f.svc.VerifyTicket(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, utils.ErrInvalidTicket)

	_, err = f.svc.Cancel(context.Background(), rec.BookingID)
	require.NoError(t, err)
	_, err = f.svc.VerifyTicket(context.Background(), entry.MTicket)
	assert.ErrorIs(t, err, ErrTicketRevoked)
}

func TestBookingService_VerifyTicketUnknownBooking(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	tok, err := utils.NewTicketToken(testSecret, booking.BookingRecord{BookingID: "BMS404"})
	require.NoError(t, err)

	_, err = f.svc.VerifyTicket(context.Background(), tok)
	assert.ErrorIs(t, err, utils.ErrInvalidTicket)
}

// flakyCompleter fails the first failures calls, then delegates.
type flakyCompleter struct {
	inner    Completer
	failures int
	calls    int
}

func (c *flakyCompleter) Complete(ctx context.Context, theaterID uint64, rec booking.BookingRecord) (*model.BookingEntry, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("mysql down")
	}
	return c.inner.Complete(ctx, theaterID, rec)
}

func newFlakyFixture(t *testing.T, failures int) (*fixture, *flakyCompleter) {
	t.Helper()
	f := newFixture(t, repository.SeedTheaters())
	flaky := &flakyCompleter{inner: f.svc, failures: failures}
	f.mgr = NewSessionManager(repository.NewSeededCatalogRepo(), flaky, 30*time.Minute, 180, nil).
		WithSessionOptions(booking.WithIDGenerator(&seqIDs{}))
	return f, flaky
}

func TestSessionManager_DismissRetriesFailedCompletion(t *testing.T) {
	f, flaky := newFlakyFixture(t, 1)
	id, rec := f.confirmTwoSeats(t, 2)

	_, err := f.mgr.Dismiss(context.Background(), id)
	require.EqualError(t, err, "mysql down")

	view, err := f.mgr.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "confirmed", view.State)

	entry, err := f.mgr.Dismiss(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, flaky.calls)

	stored, err := f.repo.Get(context.Background(), rec.BookingID)
	require.NoError(t, err)
	assert.Equal(t, rec.BookingID, stored.ID())
	assert.Zero(t, f.mgr.Len())
}

func TestSessionManager_SweepRetriesFailedCompletion(t *testing.T) {
	f, _ := newFlakyFixture(t, 1)
	_, rec := f.confirmTwoSeats(t, 2)
	later := time.Now().Add(time.Hour)

	assert.Zero(t, f.mgr.SweepExpired(context.Background(), later))
	assert.Equal(t, 1, f.mgr.Len())
	_, err := f.repo.Get(context.Background(), rec.BookingID)
	assert.ErrorIs(t, err, repository.ErrBookingNotFound)

	assert.Equal(t, 1, f.mgr.SweepExpired(context.Background(), later))
	assert.Zero(t, f.mgr.Len())
	_, err = f.repo.Get(context.Background(), rec.BookingID)
	assert.NoError(t, err)
}

func TestSessionManager_ClosedWhileWaitingIsNotFound(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	v, err := f.mgr.Open(context.Background(), OpenRequest{TheaterID: 1, ShowtimeID: 1})
	require.NoError(t, err)

	f.mgr.mu.Lock()
	e := f.mgr.sessions[v.ID]
	f.mgr.mu.Unlock()

	// Hold the session lock so the toggle passes the registry lookup and
	// then waits while the session is dismissed underneath it.
	e.mu.Lock()
	errc := make(chan error, 1)
	go func() {
		_, _, err := f.mgr.ToggleSeat(v.ID, "C2")
		errc <- err
	}()
	time.Sleep(10 * time.Millisecond)
	_, err = f.mgr.close(context.Background(), e)
	require.NoError(t, err)
	e.mu.Unlock()

	assert.ErrorIs(t, <-errc, ErrSessionNotFound)
	_, err = f.mgr.Dismiss(context.Background(), v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBookingService_TimestampsAtMillisecondPrecision(t *testing.T) {
	f := newFixture(t, repository.SeedTheaters())
	at := time.Date(2025, 3, 8, 12, 0, 0, 123456789, time.UTC)
	f.svc.now = func() time.Time { return at }

	entry, err := f.svc.Complete(context.Background(), 2, booking.BookingRecord{
		BookingID: "BMS7",
		Showtime:  booking.Showtime{Cancellable: true},
		Status:    booking.StatusConfirmed,
	})
	require.NoError(t, err)
	assert.Equal(t, at.Truncate(time.Millisecond), entry.BookedAt)

	cancelled, err := f.svc.Cancel(context.Background(), "BMS7")
	require.NoError(t, err)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, 123*time.Millisecond, time.Duration(cancelled.CancelledAt.Nanosecond()))
}
