package roster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

func newState() *domain.BookingState {
	return domain.NewBookingState("s1", "t1", "dest-1", time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
}

func TestSync_LengthFollowsTravelers(t *testing.T) {
	st := newState()
	counts := []domain.TravelerCounts{
		{Adults: 1}, {Adults: 3, Children: 2}, {Adults: 2}, {Adults: 1, Children: 4}, {Adults: 1},
	}
	for _, c := range counts {
		st.Travelers = c
		Sync(st)
		require.Len(t, st.Passengers, c.Total())
	}
}

func TestSync_ScenarioD_TruncatesFromEnd(t *testing.T) {
	st := newState()
	st.Travelers = domain.TravelerCounts{Adults: 3}
	Sync(st)
	for i, name := range []string{"Ana Ruiz", "Luis Gil", "Marta Sol"} {
		require.NoError(t, SetFullName(st, i, name))
		st.Passengers[i].DocumentNumber = name + "-doc"
	}

	st.Travelers = domain.TravelerCounts{Adults: 1}
	Sync(st)

	require.Len(t, st.Passengers, 1)
	assert.Equal(t, "Ana Ruiz", st.Passengers[0].FullName)
	assert.Equal(t, "Ana Ruiz-doc", st.Passengers[0].DocumentNumber)

	st.Travelers = domain.TravelerCounts{Adults: 2}
	Sync(st)
	require.Len(t, st.Passengers, 2)
	assert.Empty(t, st.Passengers[1].FullName, "regrown slot must not resurrect dropped data")
}

func TestSync_NewSlotsAreBlank(t *testing.T) {
	st := newState()
	st.Travelers = domain.TravelerCounts{Adults: 2, Children: 1}
	Sync(st)

	for _, p := range st.Passengers[1:] {
		assert.Equal(t, domain.NewPassenger(), p)
	}
}

func TestAutofill_TracksContactWhileAuto(t *testing.T) {
	st := newState()
	st.Contact.Name = "Carmen"
	Sync(st)
	assert.Equal(t, "Carmen", st.Passengers[0].FullName)

	st.Contact.Name = "Carmen López"
	Autofill(st)
	assert.Equal(t, "Carmen López", st.Passengers[0].FullName)
	assert.Equal(t, domain.NameAuto, st.Passengers[0].NameSource)
}

func TestAutofill_StopsAfterManualEdit(t *testing.T) {
	st := newState()
	st.Contact.Name = "Carmen"
	Sync(st)

	require.NoError(t, SetFullName(st, 0, "Pedro Martín"))
	assert.Equal(t, domain.NameManual, st.Passengers[0].NameSource)

	st.Contact.Name = "Carmen López"
	Autofill(st)
	assert.Equal(t, "Pedro Martín", st.Passengers[0].FullName)
}

func TestSetFullName_SameAsAutoValueKeepsAuto(t *testing.T) {
	st := newState()
	st.Contact.Name = "Carmen"
	Sync(st)

	require.NoError(t, SetFullName(st, 0, "Carmen"))
	assert.Equal(t, domain.NameAuto, st.Passengers[0].NameSource)

	st.Contact.Name = "Carmen Díaz"
	Autofill(st)
	assert.Equal(t, "Carmen Díaz", st.Passengers[0].FullName)
}

func TestSetFullName_OutOfRange(t *testing.T) {
	st := newState()
	Sync(st)
	assert.ErrorIs(t, SetFullName(st, 1, "x"), domain.ErrPassengerIndex)
	assert.ErrorIs(t, SetFullName(st, -1, "x"), domain.ErrPassengerIndex)
}
