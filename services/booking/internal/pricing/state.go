package pricing

import (
	"time"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

// ForState resolves the session's selections against the catalog and
// prices them. Selections that no longer exist in the catalog price as 0.
func ForState(dest *domain.Destination, st *domain.BookingState, cfg domain.BookingConfig, now time.Time) Quote {
	in := Input{
		BasePrice: dest.BasePrice,
		Travelers: st.Travelers,
		Config:    cfg,
		Now:       now,
	}
	if dep, ok := dest.Departure(st.SelectedDepartureID); ok {
		in.Departure = &dep
	}
	if hotel, ok := dest.Hotel(st.HotelID); ok {
		in.HotelSupplement = hotel.Supplement
		if room, ok := hotel.Room(st.RoomID); ok {
			in.RoomSupplement = room.Supplement
		}
	}
	return Calculate(in)
}
