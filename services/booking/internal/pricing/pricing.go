// Package pricing derives every monetary figure of a booking from the
// selection and the tenant payment policy. Nothing here holds state.
package pricing

import (
	"math"
	"time"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

type Input struct {
	BasePrice       int64
	Departure       *domain.Departure
	HotelSupplement int64
	RoomSupplement  int64
	Travelers       domain.TravelerCounts
	Config          domain.BookingConfig
	Now             time.Time
}

// Quote amounts are whole currency units.
type Quote struct {
	BookingModel     domain.BookingModel `json:"booking_model"`
	BasePrice        int64               `json:"base_price"`
	HotelSupplement  int64               `json:"hotel_supplement"`
	RoomSupplement   int64               `json:"room_supplement"`
	Supplement       int64               `json:"supplement"`
	UnitPrice        int64               `json:"unit_price"`
	TotalTravelers   int                 `json:"total_travelers"`
	TotalPrice       int64               `json:"total_price"`
	Deposit          int64               `json:"deposit"`
	DepositPerPerson int64               `json:"deposit_per_person"`
	Remaining        int64               `json:"remaining"`
	Deadline         *time.Time          `json:"deadline,omitempty"`
}

func Calculate(in Input) Quote {
	base := in.BasePrice
	if in.Departure != nil && in.Departure.Price != nil {
		base = *in.Departure.Price
	}
	base = max(base, 0)
	hotel := max(in.HotelSupplement, 0)
	room := max(in.RoomSupplement, 0)

	q := Quote{
		BookingModel:    in.Config.ResolvedModel(),
		BasePrice:       base,
		HotelSupplement: hotel,
		RoomSupplement:  room,
		Supplement:      hotel + room,
		TotalTravelers:  max(in.Travelers.Total(), 0),
	}
	q.UnitPrice = base + q.Supplement
	q.TotalPrice = q.UnitPrice * int64(q.TotalTravelers)

	q.Deposit, q.DepositPerPerson = deposit(q, in.Config)
	q.Remaining = q.TotalPrice - q.Deposit

	if q.BookingModel == domain.ModelDeposit {
		q.Deadline = Deadline(in.Config, in.Departure, in.Now)
	}
	return q
}

func deposit(q Quote, cfg domain.BookingConfig) (total, perPerson int64) {
	switch q.BookingModel {
	case domain.ModelFullPayment:
		return q.TotalPrice, q.UnitPrice
	case domain.ModelDeposit:
		v := math.Max(cfg.DepositValue, 0)
		if cfg.DepositType == domain.DepositFixed {
			total = round(v * float64(q.TotalTravelers))
			perPerson = round(v)
		} else {
			total = round(float64(q.TotalPrice) * v / 100)
			perPerson = round(float64(q.UnitPrice) * v / 100)
		}
		return clamp(total, 0, q.TotalPrice), clamp(perPerson, 0, q.UnitPrice)
	default:
		return 0, 0
	}
}

// Deadline is the date the remaining balance is due, or nil when it cannot
// be computed yet.
func Deadline(cfg domain.BookingConfig, dep *domain.Departure, now time.Time) *time.Time {
	var d time.Time
	switch cfg.PaymentDeadlineType {
	case domain.DeadlineBeforeDeparture:
		if dep == nil {
			return nil
		}
		d = dateOf(dep.Date).AddDate(0, 0, -cfg.PaymentDeadlineDays)
	case domain.DeadlineAfterBooking:
		d = dateOf(now).AddDate(0, 0, cfg.PaymentDeadlineDays)
	default:
		return nil
	}
	return &d
}

// round is half-up for the non-negative amounts priced here.
func round(v float64) int64 {
	return int64(math.Round(v))
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
