// Package workflow is the booking step machine. A Session wraps one
// BookingState together with the read-only catalog and tenant policy it is
// evaluated against; every command mutates the state synchronously.
package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/pricing"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/roster"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/validation"
)

type Session struct {
	State       *domain.BookingState
	Destination *domain.Destination
	Config      domain.BookingConfig

	now    func() time.Time
	newKey func() string
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithKeyGenerator(gen func() string) Option {
	return func(s *Session) { s.newKey = gen }
}

func New(state *domain.BookingState, dest *domain.Destination, cfg domain.BookingConfig, opts ...Option) *Session {
	s := &Session{
		State:       state,
		Destination: dest,
		Config:      cfg,
		now:         time.Now,
		newKey:      func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transition reports the outcome of a navigation command.
type Transition struct {
	From       domain.Step       `json:"from"`
	To         domain.Step       `json:"to"`
	Moved      bool              `json:"moved"`
	Validation validation.Result `json:"validation"`
}

// Next advances one step when the current step's gate holds. A failed gate
// is not an error: the session stays put and the issues are returned.
func (s *Session) Next() (Transition, error) {
	st := s.State
	t := Transition{From: st.Step, To: st.Step}
	if err := s.guardNavigation(); err != nil {
		return t, err
	}
	if st.Step == domain.StepSummary {
		return t, domain.ErrSubmitRequired
	}

	t.Validation = validation.Gate(st.Step, st, s.Destination)
	if !t.Validation.OK {
		return t, nil
	}

	s.enter(st.Step + 1)
	t.To, t.Moved = st.Step, true
	return t, nil
}

// Back returns to the previous step without clearing anything entered.
func (s *Session) Back() (Transition, error) {
	st := s.State
	t := Transition{From: st.Step, To: st.Step}
	if err := s.guardNavigation(); err != nil {
		return t, err
	}
	if st.Step == domain.StepSelection {
		return t, domain.ErrNoPreviousStep
	}

	st.Step--
	s.touch()
	t.To, t.Moved = st.Step, true
	return t, nil
}

func (s *Session) CanNext() bool {
	if s.guardNavigation() != nil || s.State.Step >= domain.StepSummary {
		return false
	}
	return validation.Gate(s.State.Step, s.State, s.Destination).OK
}

func (s *Session) CanBack() bool {
	return s.guardNavigation() == nil && s.State.Step > domain.StepSelection
}

// Quote prices the current selection.
func (s *Session) Quote() pricing.Quote {
	return pricing.ForState(s.Destination, s.State, s.Config, s.now())
}

func (s *Session) Model() domain.BookingModel {
	return s.Config.ResolvedModel()
}

func (s *Session) enter(step domain.Step) {
	st := s.State
	st.Step = step
	switch step {
	case domain.StepPassengerIntake:
		roster.Sync(st)
	case domain.StepSummary:
		if st.IdempotencyKey == "" {
			st.IdempotencyKey = s.newKey()
		}
	}
	s.touch()
}

func (s *Session) guardNavigation() error {
	st := s.State
	switch {
	case st.Submission.Status == domain.SubmissionSubmitting:
		return domain.ErrSubmissionInFlight
	case st.Step == domain.StepConfirmation, st.Submission.Status == domain.SubmissionSubmitted:
		return domain.ErrSessionComplete
	}
	return nil
}

func (s *Session) guardEdit(step domain.Step) error {
	if err := s.guardNavigation(); err != nil {
		return err
	}
	if s.State.Step != step {
		return domain.ErrWrongStep
	}
	return nil
}

func (s *Session) touch() {
	s.State.UpdatedAt = s.now()
}
