package workflow

import (
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/roster"
)

type ContactPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type PassengerPatch struct {
	FullName       *string `json:"full_name,omitempty"`
	DocumentType   *string `json:"document_type,omitempty"`
	DocumentNumber *string `json:"document_number,omitempty"`
	BirthDate      *string `json:"birth_date,omitempty"`
	Nationality    *string `json:"nationality,omitempty"`
}

func (s *Session) SelectDeparture(id string) error {
	if err := s.guardEdit(domain.StepSelection); err != nil {
		return err
	}
	dep, ok := s.Destination.Departure(id)
	if !ok {
		return domain.ErrUnknownDeparture
	}
	if dep.SoldOut() {
		return domain.ErrDepartureSoldOut
	}
	if !dep.Fits(s.State.Travelers.Total()) {
		return domain.ErrNotEnoughSpots
	}
	s.State.SelectedDepartureID = dep.ID
	s.touch()
	return nil
}

// SetTravelers changes the counts and resizes the roster in the same step.
func (s *Session) SetTravelers(adults, children int) error {
	if err := s.guardEdit(domain.StepSelection); err != nil {
		return err
	}
	counts := domain.TravelerCounts{Adults: adults, Children: children}
	if adults < 1 || children < 0 {
		return domain.ErrInvalidTravelers
	}
	if dep, ok := s.Destination.Departure(s.State.SelectedDepartureID); ok && !dep.Fits(counts.Total()) {
		return domain.ErrNotEnoughSpots
	}
	s.State.Travelers = counts
	roster.Sync(s.State)
	s.touch()
	return nil
}

// SelectHotel picks a hotel; an empty id clears hotel and room. Switching
// hotels drops the room since rooms belong to a hotel.
func (s *Session) SelectHotel(id string) error {
	if err := s.guardEdit(domain.StepSelection); err != nil {
		return err
	}
	if id == "" {
		s.State.HotelID, s.State.RoomID = "", ""
		s.touch()
		return nil
	}
	if _, ok := s.Destination.Hotel(id); !ok {
		return domain.ErrUnknownHotel
	}
	if s.State.HotelID != id {
		s.State.RoomID = ""
	}
	s.State.HotelID = id
	s.touch()
	return nil
}

func (s *Session) SelectRoom(id string) error {
	if err := s.guardEdit(domain.StepSelection); err != nil {
		return err
	}
	if id == "" {
		s.State.RoomID = ""
		s.touch()
		return nil
	}
	hotel, ok := s.Destination.Hotel(s.State.HotelID)
	if !ok {
		return domain.ErrHotelRequired
	}
	if _, ok := hotel.Room(id); !ok {
		return domain.ErrUnknownRoom
	}
	s.State.RoomID = id
	s.touch()
	return nil
}

func (s *Session) UpdateContact(p ContactPatch) error {
	if err := s.guardEdit(domain.StepPassengerIntake); err != nil {
		return err
	}
	c := &s.State.Contact
	if p.Name != nil {
		c.Name = *p.Name
		roster.Autofill(s.State)
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	s.touch()
	return nil
}

func (s *Session) UpdatePassenger(index int, p PassengerPatch) error {
	if err := s.guardEdit(domain.StepPassengerIntake); err != nil {
		return err
	}
	if index < 0 || index >= len(s.State.Passengers) {
		return domain.ErrPassengerIndex
	}

	var docType domain.DocumentType
	if p.DocumentType != nil {
		dt, ok := domain.ParseDocumentType(*p.DocumentType)
		if !ok {
			return domain.ErrInvalidDocumentType
		}
		docType = dt
	}

	if p.FullName != nil {
		if err := roster.SetFullName(s.State, index, *p.FullName); err != nil {
			return err
		}
	}
	pass := &s.State.Passengers[index]
	if docType != "" {
		pass.DocumentType = docType
	}
	if p.DocumentNumber != nil {
		pass.DocumentNumber = *p.DocumentNumber
	}
	if p.BirthDate != nil {
		pass.BirthDate = *p.BirthDate
	}
	if p.Nationality != nil {
		pass.Nationality = *p.Nationality
	}
	s.touch()
	return nil
}
