// Package roster keeps the passenger list in lockstep with the traveler
// counts and owns the slot-0 autofill from the primary contact.
package roster

import (
	"slices"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

// Sync resizes the roster to the traveler total. New slots are blank;
// shrinking drops passengers from the end. Slot 0 picks up the contact name
// while it is still auto-filled.
func Sync(st *domain.BookingState) {
	st.Passengers = Resize(st.Passengers, st.Travelers.Total())
	Autofill(st)
}

func Resize(passengers []domain.Passenger, n int) []domain.Passenger {
	if n < 0 {
		n = 0
	}
	if len(passengers) >= n {
		return slices.Clip(passengers[:n])
	}
	out := make([]domain.Passenger, n)
	copy(out, passengers)
	for i := len(passengers); i < n; i++ {
		out[i] = domain.NewPassenger()
	}
	return out
}

// Autofill copies the contact name into slot 0 unless the traveler has
// typed their own name there.
func Autofill(st *domain.BookingState) {
	if len(st.Passengers) == 0 {
		return
	}
	p := &st.Passengers[0]
	if p.NameSource == "" {
		p.NameSource = domain.NameAuto
	}
	if p.NameSource == domain.NameAuto {
		p.FullName = st.Contact.Name
	}
}

// SetFullName records a user edit of a passenger name. On slot 0 an edit
// that differs from the auto-filled value switches the slot to manual for the
// rest of the session.
func SetFullName(st *domain.BookingState, index int, name string) error {
	if index < 0 || index >= len(st.Passengers) {
		return domain.ErrPassengerIndex
	}
	p := &st.Passengers[index]
	if index == 0 && p.NameSource == domain.NameAuto && name == p.FullName {
		return nil
	}
	p.FullName = name
	p.NameSource = domain.NameManual
	return nil
}
