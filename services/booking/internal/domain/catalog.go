package domain

import "time"

type DepartureStatus string

const (
	DepartureConfirmed DepartureStatus = "confirmed"
	DepartureLastSpots DepartureStatus = "lastSpots"
	DepartureSoldOut   DepartureStatus = "soldOut"
)

// Destination is the product being booked. It is read-only for the whole
// booking session.
type Destination struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenant_id"`
	Name       string      `json:"name"`
	BasePrice  int64       `json:"base_price"`
	Departures []Departure `json:"departures,omitempty"`
	Hotels     []Hotel     `json:"hotels,omitempty"`
}

type Departure struct {
	ID         string          `json:"id"`
	Date       time.Time       `json:"date"`
	ReturnDate *time.Time      `json:"return_date,omitempty"`
	Status     DepartureStatus `json:"status"`
	Price      *int64          `json:"price,omitempty"`
	SpotsLeft  *int            `json:"spots_left,omitempty"`
}

func (d Departure) SoldOut() bool {
	return d.Status == DepartureSoldOut || (d.SpotsLeft != nil && *d.SpotsLeft <= 0)
}

// Fits reports whether the departure has room for n travelers. Departures
// that do not publish a spot count always fit.
func (d Departure) Fits(n int) bool {
	return d.SpotsLeft == nil || n <= *d.SpotsLeft
}

type Hotel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Supplement int64  `json:"supplement"`
	Rooms      []Room `json:"rooms,omitempty"`
}

type Room struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Supplement int64  `json:"supplement"`
}

// SelectableDepartures returns the departures a traveler may choose, in
// catalog order. Sold-out departures are never selectable.
func (d *Destination) SelectableDepartures() []Departure {
	out := make([]Departure, 0, len(d.Departures))
	for _, dep := range d.Departures {
		if !dep.SoldOut() {
			out = append(out, dep)
		}
	}
	return out
}

func (d *Destination) Departure(id string) (Departure, bool) {
	for _, dep := range d.Departures {
		if dep.ID == id {
			return dep, true
		}
	}
	return Departure{}, false
}

func (d *Destination) Hotel(id string) (Hotel, bool) {
	for _, h := range d.Hotels {
		if h.ID == id {
			return h, true
		}
	}
	return Hotel{}, false
}

func (h Hotel) Room(id string) (Room, bool) {
	for _, r := range h.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return Room{}, false
}
