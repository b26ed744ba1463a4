package submission

import (
	"errors"
	"time"

	"github.com/DRBagency/travel-agency-next-sub000/internal/utils"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/pricing"
)

const dateLayout = "2006-01-02"

var ErrNoDeparture = errors.New("no departure selected")

// ErrInterrupted describes a flight that ended without its result being
// stored, e.g. a crashed replica or a failed save.
var ErrInterrupted = errors.New("submission interrupted")

// Payload is the body both booking endpoints accept.
type Payload struct {
	Total           int64              `json:"total"`
	ClienteID       string             `json:"cliente_id"`
	DestinoID       string             `json:"destino_id"`
	DestinoNombre   string             `json:"destino_nombre"`
	Nombre          string             `json:"nombre"`
	Email           string             `json:"email"`
	Telefono        string             `json:"telefono"`
	FechaSalida     string             `json:"fecha_salida"`
	FechaRegreso    *string            `json:"fecha_regreso"`
	Personas        int                `json:"personas"`
	Adults          int                `json:"adults"`
	Children        int                `json:"children"`
	Passengers      []PassengerPayload `json:"passengers"`
	BookingDetails  BookingDetails     `json:"booking_details"`
	BookingModel    string             `json:"booking_model"`
	DepositAmount   int64              `json:"deposit_amount"`
	RemainingAmount int64              `json:"remaining_amount"`
	PaymentDeadline *string            `json:"payment_deadline,omitempty"`
	IdempotencyKey  string             `json:"idempotency_key"`
}

type PassengerPayload struct {
	FullName       string `json:"full_name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	BirthDate      string `json:"birth_date"`
	Nationality    string `json:"nationality"`
}

type BookingDetails struct {
	Hotel              *string `json:"hotel"`
	Habitacion         *string `json:"habitacion"`
	PrecioUnitario     int64   `json:"precio_unitario"`
	SuplementoTotal    int64   `json:"suplemento_total"`
	DepositoPorPersona int64   `json:"deposito_por_persona"`
}

// BuildPayload serializes a session that reached the summary step.
func BuildPayload(st *domain.BookingState, dest *domain.Destination, q pricing.Quote) (Payload, error) {
	dep, ok := dest.Departure(st.SelectedDepartureID)
	if !ok {
		return Payload{}, ErrNoDeparture
	}

	p := Payload{
		Total:           q.TotalPrice,
		ClienteID:       st.TenantID,
		DestinoID:       dest.ID,
		DestinoNombre:   dest.Name,
		Nombre:          utils.NormalizeString(st.Contact.Name),
		Email:           utils.NormalizeEmail(st.Contact.Email),
		Telefono:        utils.NormalizeString(st.Contact.Phone),
		FechaSalida:     dep.Date.Format(dateLayout),
		Personas:        q.TotalTravelers,
		Adults:          st.Travelers.Adults,
		Children:        st.Travelers.Children,
		Passengers:      make([]PassengerPayload, 0, len(st.Passengers)),
		BookingModel:    string(q.BookingModel),
		DepositAmount:   q.Deposit,
		RemainingAmount: q.Remaining,
		IdempotencyKey:  st.IdempotencyKey,
		BookingDetails: BookingDetails{
			PrecioUnitario:     q.UnitPrice,
			SuplementoTotal:    q.Supplement,
			DepositoPorPersona: q.DepositPerPerson,
		},
	}
	if dep.ReturnDate != nil {
		p.FechaRegreso = formatDate(*dep.ReturnDate)
	}
	if q.Deadline != nil {
		p.PaymentDeadline = formatDate(*q.Deadline)
	}
	if hotel, ok := dest.Hotel(st.HotelID); ok {
		p.BookingDetails.Hotel = &hotel.Name
		if room, ok := hotel.Room(st.RoomID); ok {
			p.BookingDetails.Habitacion = &room.Name
		}
	}
	for _, pass := range st.Passengers {
		p.Passengers = append(p.Passengers, PassengerPayload{
			FullName:       utils.NormalizeString(pass.FullName),
			DocumentType:   string(pass.DocumentType),
			DocumentNumber: utils.DocumentNumber(pass.DocumentNumber),
			BirthDate:      utils.NormalizeString(pass.BirthDate),
			Nationality:    utils.NormalizeString(pass.Nationality),
		})
	}
	return p, nil
}

func formatDate(t time.Time) *string {
	s := t.Format(dateLayout)
	return &s
}
