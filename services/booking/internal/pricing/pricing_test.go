package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

var today = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func fullPayment() domain.BookingConfig {
	return domain.BookingConfig{BookingModel: domain.ModelFullPayment, ChargesEnabled: true}
}

func depositConfig(t domain.DepositType, v float64) domain.BookingConfig {
	return domain.BookingConfig{
		BookingModel:        domain.ModelDeposit,
		DepositType:         t,
		DepositValue:        v,
		PaymentDeadlineType: domain.DeadlineBeforeDeparture,
		PaymentDeadlineDays: 30,
		ChargesEnabled:      true,
	}
}

func ptr[T any](v T) *T { return &v }

func TestCalculate_ScenarioA_FullPayment(t *testing.T) {
	q := Calculate(Input{
		BasePrice: 500,
		Travelers: domain.TravelerCounts{Adults: 2, Children: 1},
		Config:    fullPayment(),
		Now:       today,
	})

	assert.Equal(t, int64(500), q.UnitPrice)
	assert.Equal(t, int64(1500), q.TotalPrice)
	assert.Equal(t, int64(1500), q.Deposit)
	assert.Equal(t, int64(0), q.Remaining)
	assert.Nil(t, q.Deadline)
}

func TestCalculate_ScenarioB_FixedDeposit(t *testing.T) {
	q := Calculate(Input{
		BasePrice:       650,
		HotelSupplement: 100,
		RoomSupplement:  50,
		Travelers:       domain.TravelerCounts{Adults: 2},
		Config:          depositConfig(domain.DepositFixed, 200),
		Now:             today,
	})

	assert.Equal(t, int64(800), q.UnitPrice)
	assert.Equal(t, int64(150), q.Supplement)
	assert.Equal(t, int64(1600), q.TotalPrice)
	assert.Equal(t, int64(400), q.Deposit)
	assert.Equal(t, int64(200), q.DepositPerPerson)
	assert.Equal(t, int64(1200), q.Remaining)
}

func TestCalculate_ScenarioC_PercentageDeposit(t *testing.T) {
	q := Calculate(Input{
		BasePrice: 1000,
		Travelers: domain.TravelerCounts{Adults: 2, Children: 1},
		Config:    depositConfig(domain.DepositPercentage, 30),
		Now:       today,
	})

	assert.Equal(t, int64(3000), q.TotalPrice)
	assert.Equal(t, int64(900), q.Deposit)
	assert.Equal(t, int64(300), q.DepositPerPerson)
	assert.Equal(t, int64(2100), q.Remaining)
}

func TestCalculate_DepartureOverridesBasePrice(t *testing.T) {
	dep := domain.Departure{ID: "d1", Date: today.AddDate(0, 2, 0), Price: ptr(int64(720))}
	q := Calculate(Input{
		BasePrice: 500,
		Departure: &dep,
		Travelers: domain.TravelerCounts{Adults: 1},
		Config:    fullPayment(),
	})

	assert.Equal(t, int64(720), q.BasePrice)
	assert.Equal(t, int64(720), q.TotalPrice)
}

func TestCalculate_DepartureWithoutPriceUsesBase(t *testing.T) {
	dep := domain.Departure{ID: "d1", Date: today}
	q := Calculate(Input{BasePrice: 500, Departure: &dep, Travelers: domain.TravelerCounts{Adults: 2}, Config: fullPayment()})
	assert.Equal(t, int64(1000), q.TotalPrice)
}

func TestCalculate_RequestOnly(t *testing.T) {
	for _, cfg := range []domain.BookingConfig{
		{BookingModel: domain.ModelRequestOnly, ChargesEnabled: true},
		{BookingModel: domain.ModelFullPayment, ChargesEnabled: false},
		{BookingModel: "", ChargesEnabled: true},
	} {
		q := Calculate(Input{BasePrice: 400, Travelers: domain.TravelerCounts{Adults: 3}, Config: cfg})

		assert.Equal(t, domain.ModelRequestOnly, q.BookingModel)
		assert.Equal(t, int64(0), q.Deposit)
		assert.Equal(t, q.TotalPrice, q.Remaining)
	}
}

func TestCalculate_DepositInvariants(t *testing.T) {
	prices := []int64{0, 1, 99, 333, 1000, 2499}
	for _, price := range prices {
		for adults := 1; adults <= 4; adults++ {
			for children := 0; children <= 3; children++ {
				tc := domain.TravelerCounts{Adults: adults, Children: children}
				n := int64(tc.Total())

				full := Calculate(Input{BasePrice: price, Travelers: tc, Config: fullPayment()})
				require.Equal(t, full.TotalPrice, full.Deposit)
				require.Zero(t, full.Remaining)

				fixed := Calculate(Input{BasePrice: price, Travelers: tc, Config: depositConfig(domain.DepositFixed, 50)})
				if 50*n <= fixed.TotalPrice {
					require.Equal(t, 50*n, fixed.Deposit)
				}

				for _, p := range []float64{0, 12.5, 30, 50, 100} {
					pct := Calculate(Input{BasePrice: price, Travelers: tc, Config: depositConfig(domain.DepositPercentage, p)})
					require.Equal(t, round(float64(pct.TotalPrice)*p/100), pct.Deposit)
					require.GreaterOrEqual(t, pct.Deposit, int64(0))
					require.LessOrEqual(t, pct.Deposit, pct.TotalPrice)
					require.Equal(t, pct.TotalPrice-pct.Deposit, pct.Remaining)
				}
			}
		}
	}
}

func TestCalculate_RoundsHalfUp(t *testing.T) {
	// 3 * 35 = 105; 105 * 10% = 10.5
	q := Calculate(Input{BasePrice: 35, Travelers: domain.TravelerCounts{Adults: 3}, Config: depositConfig(domain.DepositPercentage, 10)})
	assert.Equal(t, int64(11), q.Deposit)
	assert.Equal(t, int64(94), q.Remaining)
}

func TestCalculate_FixedDepositNeverExceedsTotal(t *testing.T) {
	q := Calculate(Input{BasePrice: 100, Travelers: domain.TravelerCounts{Adults: 2}, Config: depositConfig(domain.DepositFixed, 500)})
	assert.Equal(t, int64(200), q.Deposit)
	assert.Equal(t, int64(0), q.Remaining)
}

func TestCalculate_Idempotent(t *testing.T) {
	dep := domain.Departure{ID: "d1", Date: today.AddDate(0, 1, 0), Price: ptr(int64(900))}
	in := Input{
		BasePrice:       500,
		Departure:       &dep,
		HotelSupplement: 120,
		RoomSupplement:  30,
		Travelers:       domain.TravelerCounts{Adults: 2, Children: 2},
		Config:          depositConfig(domain.DepositPercentage, 25),
		Now:             today,
	}
	assert.Equal(t, Calculate(in), Calculate(in))
}

func TestDeadline(t *testing.T) {
	dep := &domain.Departure{ID: "d1", Date: time.Date(2026, 12, 20, 9, 0, 0, 0, time.UTC)}

	before := domain.BookingConfig{PaymentDeadlineType: domain.DeadlineBeforeDeparture, PaymentDeadlineDays: 30}
	got := Deadline(before, dep, today)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 11, 20, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, Deadline(before, nil, today))

	after := domain.BookingConfig{PaymentDeadlineType: domain.DeadlineAfterBooking, PaymentDeadlineDays: 7}
	got = Deadline(after, nil, today)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, Deadline(domain.BookingConfig{}, dep, today))
}

func TestCalculate_DeadlineOnlyForDepositModel(t *testing.T) {
	dep := domain.Departure{ID: "d1", Date: time.Date(2026, 12, 20, 0, 0, 0, 0, time.UTC)}
	cfg := depositConfig(domain.DepositPercentage, 20)

	q := Calculate(Input{BasePrice: 100, Departure: &dep, Travelers: domain.DefaultTravelers(), Config: cfg, Now: today})
	require.NotNil(t, q.Deadline)

	cfg.BookingModel = domain.ModelFullPayment
	q = Calculate(Input{BasePrice: 100, Departure: &dep, Travelers: domain.DefaultTravelers(), Config: cfg, Now: today})
	assert.Nil(t, q.Deadline)
}

func TestForState_ResolvesSelections(t *testing.T) {
	dest := &domain.Destination{
		ID:        "dest-1",
		BasePrice: 650,
		Departures: []domain.Departure{
			{ID: "d1", Date: today.AddDate(0, 1, 0), Status: domain.DepartureConfirmed},
		},
		Hotels: []domain.Hotel{
			{ID: "h1", Supplement: 100, Rooms: []domain.Room{{ID: "r1", Supplement: 50}}},
		},
	}
	st := domain.NewBookingState("s1", "t1", "dest-1", today)
	st.SelectedDepartureID = "d1"
	st.Travelers = domain.TravelerCounts{Adults: 2}
	st.HotelID = "h1"
	st.RoomID = "r1"

	q := ForState(dest, st, depositConfig(domain.DepositFixed, 200), today)

	assert.Equal(t, int64(800), q.UnitPrice)
	assert.Equal(t, int64(400), q.Deposit)
	assert.Equal(t, int64(1200), q.Remaining)
}
