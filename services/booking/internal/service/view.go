package service

import (
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/pricing"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/validation"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/workflow"
)

// View is what the client renders after every command. The quote is
// recomputed on each read.
type View struct {
	State           *domain.BookingState `json:"state"`
	Quote           pricing.Quote        `json:"quote"`
	DestinationName string               `json:"destination_name"`
	Departures      []domain.Departure   `json:"departures"`
	Hotels          []domain.Hotel       `json:"hotels"`
	CanNext         bool                 `json:"can_next"`
	CanBack         bool                 `json:"can_back"`
}

func newView(sess *workflow.Session) *View {
	return &View{
		State:           sess.State,
		Quote:           sess.Quote(),
		DestinationName: sess.Destination.Name,
		Departures:      sess.Destination.SelectableDepartures(),
		Hotels:          sess.Destination.Hotels,
		CanNext:         sess.CanNext(),
		CanBack:         sess.CanBack(),
	}
}

type Started struct {
	Token string `json:"session_token"`
	View  *View  `json:"session"`
}

type StepResult struct {
	Advanced bool               `json:"advanced"`
	Issues   []validation.Issue `json:"issues"`
	Warnings []validation.Issue `json:"warnings,omitempty"`
	View     *View              `json:"session"`
}

func newStepResult(t workflow.Transition, sess *workflow.Session) *StepResult {
	issues := t.Validation.Issues
	if issues == nil {
		issues = []validation.Issue{}
	}
	return &StepResult{
		Advanced: t.Moved,
		Issues:   issues,
		Warnings: t.Validation.Warnings,
		View:     newView(sess),
	}
}

type SubmitResult struct {
	Status       domain.SubmissionStatus `json:"status"`
	RedirectURL  string                  `json:"redirect_url,omitempty"`
	Confirmation map[string]any          `json:"confirmation,omitempty"`
	Error        string                  `json:"error,omitempty"`
	View         *View                   `json:"session"`
}

func newSubmitResult(sess *workflow.Session) *SubmitResult {
	sub := sess.State.Submission
	return &SubmitResult{
		Status:       sub.Status,
		RedirectURL:  sub.RedirectURL,
		Confirmation: sub.Confirmation,
		Error:        sub.Error,
		View:         newView(sess),
	}
}
