package workflow

import "github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"

// BeginSubmit marks the session as submitting. started is false when the
// call must be ignored: a submission is already in flight or has succeeded.
func (s *Session) BeginSubmit() (started bool, err error) {
	sub := &s.State.Submission
	switch sub.Status {
	case domain.SubmissionSubmitting, domain.SubmissionSubmitted:
		return false, nil
	}
	if s.State.Step != domain.StepSummary {
		return false, domain.ErrNotOnSummary
	}
	if s.State.IdempotencyKey == "" {
		s.State.IdempotencyKey = s.newKey()
	}
	sub.Status = domain.SubmissionSubmitting
	sub.Error = ""
	sub.Attempts++
	s.touch()
	return true, nil
}

// CompleteRequest records an accepted request-only booking and moves the
// session to its terminal confirmation step.
func (s *Session) CompleteRequest(confirmation map[string]any) {
	sub := &s.State.Submission
	sub.Status = domain.SubmissionSubmitted
	sub.Kind = domain.ConfirmationRequestSent
	sub.Confirmation = confirmation
	s.State.Step = domain.StepConfirmation
	s.touch()
}

// CompleteCheckout records the payment redirect. The session stays on the
// summary step; confirmation happens after the payment provider returns.
func (s *Session) CompleteCheckout(redirectURL string) {
	sub := &s.State.Submission
	sub.Status = domain.SubmissionSubmitted
	sub.Kind = domain.ConfirmationCheckoutRedirected
	sub.RedirectURL = redirectURL
	s.touch()
}

// FailSubmission keeps every entered value so the traveler can retry.
func (s *Session) FailSubmission(message string) {
	sub := &s.State.Submission
	sub.Status = domain.SubmissionFailed
	sub.Error = message
	s.touch()
}

// RecoverSubmission turns a submitting marker whose flight is gone into a
// failure, so the traveler can retry with the same idempotency key.
func (s *Session) RecoverSubmission(message string) bool {
	if s.State.Submission.Status != domain.SubmissionSubmitting {
		return false
	}
	s.FailSubmission(message)
	return true
}
