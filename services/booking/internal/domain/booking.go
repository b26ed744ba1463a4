package domain

import (
	"errors"
	"time"
)

type Step int

const (
	StepSelection       Step = 1
	StepPassengerIntake Step = 2
	StepSummary         Step = 3
	StepConfirmation    Step = 4
)

func (s Step) String() string {
	switch s {
	case StepSelection:
		return "selection"
	case StepPassengerIntake:
		return "passenger_intake"
	case StepSummary:
		return "summary"
	case StepConfirmation:
		return "confirmation"
	default:
		return "unknown"
	}
}

type SubmissionStatus string

const (
	SubmissionIdle       SubmissionStatus = "idle"
	SubmissionSubmitting SubmissionStatus = "submitting"
	SubmissionSubmitted  SubmissionStatus = "submitted"
	SubmissionFailed     SubmissionStatus = "failed"
)

type ConfirmationKind string

const (
	ConfirmationRequestSent ConfirmationKind = "request_sent"

	// Set once the traveler is sent to checkout. Payment confirmation
	// arrives later through the provider, not through this session.
	ConfirmationCheckoutRedirected ConfirmationKind = "checkout_redirected"
)

type DocumentType string

const (
	DocumentDNI      DocumentType = "DNI"
	DocumentPassport DocumentType = "Passport"
	DocumentNIE      DocumentType = "NIE"
)

func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(s) {
	case DocumentDNI, DocumentPassport, DocumentNIE:
		return DocumentType(s), true
	default:
		return "", false
	}
}

// NameSource tags who wrote a passenger's full name.
type NameSource string

const (
	NameAuto   NameSource = "auto"
	NameManual NameSource = "manual"
)

type TravelerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

func (c TravelerCounts) Total() int {
	return c.Adults + c.Children
}

func DefaultTravelers() TravelerCounts {
	return TravelerCounts{Adults: 1}
}

type Passenger struct {
	FullName       string       `json:"full_name"`
	NameSource     NameSource   `json:"name_source"`
	DocumentType   DocumentType `json:"document_type"`
	DocumentNumber string       `json:"document_number"`
	BirthDate      string       `json:"birth_date"`
	Nationality    string       `json:"nationality"`
}

func NewPassenger() Passenger {
	return Passenger{NameSource: NameAuto, DocumentType: DocumentDNI}
}

type PrimaryContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Submission struct {
	Status       SubmissionStatus `json:"status"`
	Error        string           `json:"error,omitempty"`
	RedirectURL  string           `json:"redirect_url,omitempty"`
	Confirmation map[string]any   `json:"confirmation,omitempty"`
	Kind         ConfirmationKind `json:"kind,omitempty"`
	Attempts     int              `json:"attempts"`
}

// BookingState is everything one booking session owns. It round-trips
// through JSON so any store can hold it.
type BookingState struct {
	SessionID           string         `json:"session_id"`
	TenantID            string         `json:"tenant_id"`
	DestinationID       string         `json:"destination_id"`
	Step                Step           `json:"step"`
	SelectedDepartureID string         `json:"selected_departure_id,omitempty"`
	Travelers           TravelerCounts `json:"travelers"`
	Contact             PrimaryContact `json:"contact"`
	Passengers          []Passenger    `json:"passengers"`
	HotelID             string         `json:"hotel_id,omitempty"`
	RoomID              string         `json:"room_id,omitempty"`
	Submission          Submission     `json:"submission"`
	IdempotencyKey      string         `json:"idempotency_key,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func NewBookingState(sessionID, tenantID, destinationID string, now time.Time) *BookingState {
	return &BookingState{
		SessionID:     sessionID,
		TenantID:      tenantID,
		DestinationID: destinationID,
		Step:          StepSelection,
		Travelers:     DefaultTravelers(),
		Submission:    Submission{Status: SubmissionIdle},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var (
	ErrSessionNotFound     = errors.New("booking session not found")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrWrongStep           = errors.New("operation not allowed at the current step")
	ErrNoPreviousStep      = errors.New("no previous step")
	ErrSubmitRequired      = errors.New("summary step is left only by submitting")
	ErrSessionComplete     = errors.New("booking session already submitted")
	ErrSubmissionInFlight  = errors.New("submission in progress")
	ErrNotOnSummary        = errors.New("submission is only possible from the summary step")
	ErrUnknownDeparture    = errors.New("unknown departure")
	ErrDepartureSoldOut    = errors.New("departure is sold out")
	ErrNotEnoughSpots      = errors.New("not enough spots left on departure")
	ErrUnknownHotel        = errors.New("unknown hotel")
	ErrUnknownRoom         = errors.New("unknown room")
	ErrHotelRequired       = errors.New("select a hotel before choosing a room")
	ErrInvalidTravelers    = errors.New("at least one adult is required and children cannot be negative")
	ErrPassengerIndex      = errors.New("passenger index out of range")
	ErrInvalidDocumentType = errors.New("document type must be DNI, Passport or NIE")
)
