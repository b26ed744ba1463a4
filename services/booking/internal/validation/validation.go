// Package validation decides whether a booking session may leave its
// current step. It never returns errors: a failed check is a list of issues
// the client highlights.
package validation

import (
	"fmt"

	"github.com/DRBagency/travel-agency-next-sub000/internal/utils"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
)

type Code string

const (
	CodeRequired    Code = "required"
	CodeUnavailable Code = "unavailable"
	CodeFormat      Code = "format"
)

type Issue struct {
	Field string `json:"field"`
	Code  Code   `json:"code"`
}

// Result.Issues block the step. Warnings are informational only.
type Result struct {
	OK       bool    `json:"ok"`
	Issues   []Issue `json:"issues,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

func (r *Result) fail(field string, code Code) {
	r.Issues = append(r.Issues, Issue{Field: field, Code: code})
}

func (r *Result) warn(field string, code Code) {
	r.Warnings = append(r.Warnings, Issue{Field: field, Code: code})
}

// Gate evaluates the forward condition of step against the session state.
// dest is the current catalog snapshot for the session's destination.
func Gate(step domain.Step, st *domain.BookingState, dest *domain.Destination) Result {
	var r Result
	switch step {
	case domain.StepSelection:
		selection(&r, st, dest)
	case domain.StepPassengerIntake:
		passengers(&r, st)
	case domain.StepSummary:
	default:
		// confirmation has no user-editable gate
		r.fail("step", CodeUnavailable)
	}
	r.OK = len(r.Issues) == 0
	return r
}

func selection(r *Result, st *domain.BookingState, dest *domain.Destination) {
	if st.SelectedDepartureID == "" {
		r.fail("departure", CodeRequired)
		return
	}
	if dest == nil {
		return
	}
	dep, ok := dest.Departure(st.SelectedDepartureID)
	if !ok || dep.SoldOut() || !dep.Fits(st.Travelers.Total()) {
		r.fail("departure", CodeUnavailable)
	}
}

func passengers(r *Result, st *domain.BookingState) {
	if utils.NormalizeString(st.Contact.Name) == "" {
		r.fail("contact.name", CodeRequired)
	}
	if email := utils.NormalizeString(st.Contact.Email); email == "" {
		r.fail("contact.email", CodeRequired)
	} else if !utils.IsValidEmail(email) {
		r.warn("contact.email", CodeFormat)
	}
	if phone := utils.NormalizeString(st.Contact.Phone); phone == "" {
		r.fail("contact.phone", CodeRequired)
	} else if !utils.IsValidPhone(phone) {
		r.warn("contact.phone", CodeFormat)
	}

	if len(st.Passengers) != st.Travelers.Total() {
		r.fail("passengers", CodeRequired)
	}
	for i, p := range st.Passengers {
		if utils.NormalizeString(p.FullName) == "" {
			r.fail(field(i, "full_name"), CodeRequired)
		}
		if utils.NormalizeString(p.DocumentNumber) == "" {
			r.fail(field(i, "document_number"), CodeRequired)
		}
		// collected but not gating
		if utils.NormalizeString(p.BirthDate) == "" {
			r.warn(field(i, "birth_date"), CodeRequired)
		}
		if utils.NormalizeString(p.Nationality) == "" {
			r.warn(field(i, "nationality"), CodeRequired)
		}
	}
}

func field(i int, name string) string {
	return fmt.Sprintf("passengers[%d].%s", i, name)
}
