package repository

import (
	"context"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// CatalogRepo serves the theaters and showtimes a booking can be opened
// for. The catalogue is static and held in memory.
type CatalogRepo struct {
	theaters []model.Theater
}

// NewCatalogRepo builds a repository over the given theaters.
func NewCatalogRepo(theaters []model.Theater) *CatalogRepo {
	return &CatalogRepo{theaters: theaters}
}

// NewSeededCatalogRepo returns the catalogue listed on the booking page.
func NewSeededCatalogRepo() *CatalogRepo {
	return NewCatalogRepo(SeedTheaters())
}

// SeedTheaters returns the default theaters and their showtimes.
func SeedTheaters() []model.Theater {
	return []model.Theater{
		{
			ID: 1, Name: "Cinepolis: VR Mall, Nagpur", Location: "VR Mall, Nagpur",
			Facilities: []string{model.FacilityMTicket, model.FacilityFood},
			Showtimes: []model.Showtime{
				{ID: 1, Time: "11:25 PM", Format: "DOLBY 7.1", Status: "available", Price: 180, Cancellable: false},
			},
		},
		{
			ID: 2, Name: "INOX: Jaswant Tuli Mall, Kamptee Road", Location: "Jaswant Tuli Mall, Kamptee Road",
			Facilities: []string{model.FacilityMTicket, model.FacilityFood},
			Showtimes: []model.Showtime{
				{ID: 1, Time: "02:30 PM", Format: "DOLBY ATMOS", Status: "available", Price: 200, Cancellable: true},
			},
		},
		{
			ID: 3, Name: "Skylight (Sangam) Cinema: Nagpur", Location: "Sangam Cinema, Nagpur",
			Facilities: []string{model.FacilityMTicket, model.FacilityFood},
			Showtimes: []model.Showtime{
				{ID: 1, Time: "08:00 PM", Format: "2D", Status: "available", Price: 150, Cancellable: true},
			},
		},
		{
			ID: 4, Name: "AM Cinema Iconic: Javanti Nagar VIP", Location: "Javanti Nagar VIP",
			Facilities: []string{model.FacilityMTicket},
			Showtimes: []model.Showtime{
				{ID: 1, Time: "06:30 PM", Format: "2D", Status: "available", Price: 120, Cancellable: true},
			},
		},
	}
}

// ListTheaters returns every theater.
func (r *CatalogRepo) ListTheaters(ctx context.Context) ([]model.Theater, error) {
	out := make([]model.Theater, len(r.theaters))
	copy(out, r.theaters)
	return out, nil
}

// GetTheater looks up a theater by id.
func (r *CatalogRepo) GetTheater(ctx context.Context, id uint64) (*model.Theater, error) {
	for i := range r.theaters {
		if r.theaters[i].ID == id {
			t := r.theaters[i]
			return &t, nil
		}
	}
	return nil, ErrTheaterNotFound
}

// GetShowtime returns the theater and one of its showtimes.
func (r *CatalogRepo) GetShowtime(ctx context.Context, theaterID, showtimeID uint64) (*model.Theater, *model.Showtime, error) {
	t, err := r.GetTheater(ctx, theaterID)
	if err != nil {
		return nil, nil, err
	}
	for i := range t.Showtimes {
		if t.Showtimes[i].ID == showtimeID {
			st := t.Showtimes[i]
			return t, &st, nil
		}
	}
	return nil, nil, ErrShowtimeNotFound
}
