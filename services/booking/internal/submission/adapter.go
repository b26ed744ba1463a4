// Package submission turns a summary-step booking session into a request
// against the checkout or request-only endpoint and folds the answer back
// into the session.
package submission

import (
	"context"
	"errors"

	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/workflow"
)

type Endpoint string

const (
	EndpointCheckout Endpoint = "checkout"
	EndpointRequest  Endpoint = "book"
)

// EndpointFor picks the target of a resolved booking model.
func EndpointFor(m domain.BookingModel) Endpoint {
	if m.TakesPayment() {
		return EndpointCheckout
	}
	return EndpointRequest
}

// Request is a prepared, not yet sent, submission.
type Request struct {
	Endpoint Endpoint
	Payload  Payload
}

type Outcome struct {
	Endpoint     Endpoint
	RedirectURL  string
	Confirmation map[string]any
}

type Adapter struct {
	client Client
}

func NewAdapter(client Client) *Adapter {
	return &Adapter{client: client}
}

// Prepare marks the session as submitting and builds the request. ok is
// false when a submission is already in flight or done; nothing must be
// sent then.
func (a *Adapter) Prepare(sess *workflow.Session) (req Request, ok bool, err error) {
	started, err := sess.BeginSubmit()
	if err != nil || !started {
		return Request{}, false, err
	}
	payload, err := BuildPayload(sess.State, sess.Destination, sess.Quote())
	if err != nil {
		sess.FailSubmission(UserMessage(err))
		return Request{}, false, err
	}
	return Request{Endpoint: EndpointFor(sess.Model()), Payload: payload}, true, nil
}

// Send performs the network call. It does not touch any session.
func (a *Adapter) Send(ctx context.Context, req Request) (Outcome, error) {
	out := Outcome{Endpoint: req.Endpoint}
	var err error
	switch req.Endpoint {
	case EndpointCheckout:
		out.RedirectURL, err = a.client.Checkout(ctx, req.Payload)
	default:
		out.Confirmation, err = a.client.RequestBooking(ctx, req.Payload)
	}
	return out, err
}

// Apply folds the result of Send into the session.
func (a *Adapter) Apply(sess *workflow.Session, out Outcome, err error) {
	if err != nil {
		sess.FailSubmission(UserMessage(err))
		return
	}
	if out.Endpoint == EndpointCheckout {
		sess.CompleteCheckout(out.RedirectURL)
		return
	}
	sess.CompleteRequest(out.Confirmation)
}

// Submit runs Prepare, Send and Apply against an in-memory session.
func (a *Adapter) Submit(ctx context.Context, sess *workflow.Session) (Outcome, bool, error) {
	req, ok, err := a.Prepare(sess)
	if err != nil || !ok {
		return Outcome{}, false, err
	}
	out, err := a.Send(ctx, req)
	a.Apply(sess, out, err)
	return out, true, err
}

// UserMessage is the text shown to the traveler for a failed submission.
func UserMessage(err error) string {
	var remote *RemoteError
	switch {
	case errors.As(err, &remote) && remote.Message != "":
		return remote.Message
	case errors.As(err, &remote):
		return "The booking could not be processed. Please try again."
	case errors.Is(err, ErrInterrupted):
		return "The previous booking attempt was interrupted. Please try again."
	case errors.Is(err, ErrNoDeparture):
		return "Select a departure before booking."
	case errors.Is(err, ErrMalformedResponse):
		return "The payment page could not be opened. Please try again."
	default:
		return "Could not reach the booking service. Please try again."
	}
}
