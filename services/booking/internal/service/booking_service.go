package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DRBagency/travel-agency-next-sub000/pkg/auth"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/config"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/events"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/repository"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/submission"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/workflow"
)

// ErrSubmissionFailed wraps every remote failure of Submit. The result is
// still returned so the client can show the stored error and retry.
var ErrSubmissionFailed = errors.New("booking submission failed")

type BookingService interface {
	Start(ctx context.Context, tenantID, destinationID string) (*Started, error)
	Get(ctx context.Context, sessionID string) (*View, error)

	SelectDeparture(ctx context.Context, sessionID, departureID string) (*View, error)
	SetTravelers(ctx context.Context, sessionID string, adults, children int) (*View, error)
	SelectHotel(ctx context.Context, sessionID, hotelID string) (*View, error)
	SelectRoom(ctx context.Context, sessionID, roomID string) (*View, error)
	UpdateContact(ctx context.Context, sessionID string, patch workflow.ContactPatch) (*View, error)
	UpdatePassenger(ctx context.Context, sessionID string, index int, patch workflow.PassengerPatch) (*View, error)

	Next(ctx context.Context, sessionID string) (*StepResult, error)
	Back(ctx context.Context, sessionID string) (*StepResult, error)
	Submit(ctx context.Context, sessionID string) (*SubmitResult, error)
	Close(ctx context.Context, sessionID string) error
}

type Option func(*bookingService)

func WithClock(now func() time.Time) Option {
	return func(s *bookingService) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *bookingService) { s.newID = gen }
}

// WithSubmissionGuard replaces the in-process guard, e.g. with the Redis one
// shared by every replica.
func WithSubmissionGuard(g repository.SubmissionGuard) Option {
	return func(s *bookingService) { s.guard = g }
}

const defaultFlightTTL = 2 * time.Minute

type bookingService struct {
	catalog  repository.CatalogRepository
	sessions repository.SessionStore
	adapter  *submission.Adapter
	eventBus events.EventBus
	config   *config.Config

	locks     *sessionLocks
	guard     repository.SubmissionGuard
	flightTTL time.Duration
	now       func() time.Time
	newID     func() string
}

func NewBookingService(
	catalog repository.CatalogRepository,
	sessions repository.SessionStore,
	client submission.Client,
	eventBus events.EventBus,
	config *config.Config,
	opts ...Option,
) BookingService {
	s := &bookingService{
		catalog:   catalog,
		sessions:  sessions,
		adapter:   submission.NewAdapter(client),
		eventBus:  eventBus,
		config:    config,
		locks:     newSessionLocks(),
		guard:     repository.NewMemorySubmissionGuard(),
		flightTTL: config.Booking.SubmissionLockTTL,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if s.flightTTL <= 0 {
		s.flightTTL = defaultFlightTTL
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bookingService) Start(ctx context.Context, tenantID, destinationID string) (*Started, error) {
	dest, err := s.catalog.GetDestination(ctx, tenantID, destinationID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.catalog.GetBookingConfig(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	st := domain.NewBookingState(s.newID(), tenantID, dest.ID, now)
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, err
	}

	token, err := auth.NewSessionToken(st.SessionID, tenantID, s.config.Auth.JWTSecret, s.config.Auth.SessionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session token: %w", err)
	}

	ctx = logger.WithSession(ctx, st.SessionID, tenantID)
	logger.InfoContext(ctx, "Booking session started", "destination_id", dest.ID)

	event := events.SessionStartedEvent{
		SessionID:     st.SessionID,
		TenantID:      tenantID,
		DestinationID: dest.ID,
		StartedAt:     now,
	}
	if err := s.eventBus.Publish(ctx, events.SessionStarted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish session started event", "error", err)
	}

	return &Started{Token: token, View: newView(s.session(st, dest, cfg))}, nil
}

func (s *bookingService) Get(ctx context.Context, sessionID string) (*View, error) {
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return newView(sess), nil
}

func (s *bookingService) SelectDeparture(ctx context.Context, sessionID, departureID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(sess *workflow.Session) error {
		return sess.SelectDeparture(departureID)
	})
}

func (s *bookingService) SetTravelers(ctx context.Context, sessionID string, adults, children int) (*View, error) {
	return s.mutate(ctx, sessionID, func(sess *workflow.Session) error {
		return sess.SetTravelers(adults, children)
	})
}

func (s *bookingService) SelectHotel(ctx context.Context, sessionID, hotelID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(sess *workflow.Session) error {
		return sess.SelectHotel(hotelID)
	})
}

func (s *bookingService) SelectRoom(ctx context.Context, sessionID, roomID string) (*View, error) {
	return s.mutate(ctx, sessionID, func(sess *workflow.Session) error {
		return sess.SelectRoom(roomID)
	})
}

func (s *bookingService) UpdateContact(ctx context.Context, sessionID string, patch workflow.ContactPatch) (*View, error) {
	return s.mutate(ctx, sessionID, func(sess *workflow.Session) error {
		return sess.UpdateContact(patch)
	})
}

func (s *bookingService) UpdatePassenger(ctx context.Context, sessionID string, index int, patch workflow.PassengerPatch) (*View, error) {
	return s.mutate(ctx, sessionID, func(sess *workflow.Session) error {
		return sess.UpdatePassenger(index, patch)
	})
}

func (s *bookingService) Next(ctx context.Context, sessionID string) (*StepResult, error) {
	return s.navigate(ctx, sessionID, (*workflow.Session).Next)
}

func (s *bookingService) Back(ctx context.Context, sessionID string) (*StepResult, error) {
	return s.navigate(ctx, sessionID, (*workflow.Session).Back)
}

func (s *bookingService) navigate(ctx context.Context, sessionID string, move func(*workflow.Session) (workflow.Transition, error)) (*StepResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	t, err := move(sess)
	if err != nil {
		return nil, err
	}
	if t.Moved {
		if err := s.sessions.Save(ctx, sess.State); err != nil {
			return nil, err
		}
		logger.DebugContext(s.logContext(ctx, sess), "Booking step changed", "from", t.From.String(), "to", t.To.String())
	}
	return newStepResult(t, sess), nil
}

// Submit takes the submission guard, persists the submitting marker, calls
// the booking endpoint without holding the session lock, then folds the
// answer into a fresh copy of the state. A second Submit arriving meanwhile,
// on this replica or another, fails to take the guard and returns the
// current status without sending anything.
func (s *bookingService) Submit(ctx context.Context, sessionID string) (*SubmitResult, error) {
	unlock := s.locks.lock(sessionID)
	sess, err := s.load(ctx, sessionID)
	if err != nil {
		unlock()
		return nil, err
	}
	ctx = s.logContext(ctx, sess)

	token, acquired, err := s.guard.Acquire(ctx, sessionID, s.flightTTL)
	if err != nil {
		unlock()
		return nil, err
	}
	if !acquired {
		unlock()
		logger.InfoContext(ctx, "Duplicate submission ignored", "status", sess.State.Submission.Status)
		res := newSubmitResult(sess)
		if res.Status != domain.SubmissionSubmitted {
			res.Status = domain.SubmissionSubmitting
		}
		return res, nil
	}
	release := func() {
		if err := s.guard.Release(context.WithoutCancel(ctx), sessionID, token); err != nil {
			logger.WarnContext(ctx, "Failed to release submission guard", "error", err)
		}
	}
	// The guard was free, so a stored marker belongs to a dead flight.
	s.recoverInterrupted(ctx, sess)

	req, ok, err := s.adapter.Prepare(sess)
	if err != nil {
		if sess.State.Submission.Status == domain.SubmissionFailed {
			if saveErr := s.sessions.Save(ctx, sess.State); saveErr != nil {
				logger.ErrorContext(ctx, "Failed to save failed submission", "error", saveErr)
			}
		}
		release()
		unlock()
		return nil, err
	}
	if !ok {
		release()
		unlock()
		logger.InfoContext(ctx, "Duplicate submission ignored", "status", sess.State.Submission.Status)
		return newSubmitResult(sess), nil
	}
	if err := s.sessions.Save(ctx, sess.State); err != nil {
		release()
		unlock()
		return nil, err
	}
	prepared := sess.State
	dest, cfg := sess.Destination, sess.Config
	attempt := sess.State.Submission.Attempts
	unlock()

	logger.InfoContext(ctx, "Submitting booking", "endpoint", req.Endpoint, "attempt", attempt, "total", req.Payload.Total)
	out, sendErr := s.adapter.Send(context.WithoutCancel(ctx), req)

	unlock = s.locks.lock(sessionID)
	defer unlock()
	defer release()

	ctx = context.WithoutCancel(ctx)
	st, err := s.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		logger.WarnContext(ctx, "Session closed during submission", "send_error", sendErr)
		return nil, err
	case err != nil:
		logger.ErrorContext(ctx, "Failed to reload session after submission", "error", err)
		st = prepared
	}
	sess = s.session(st, dest, cfg)
	s.adapter.Apply(sess, out, sendErr)
	res := newSubmitResult(sess)

	if err := s.saveResult(ctx, sess.State); err != nil {
		// The stored marker is recovered as interrupted once the guard is
		// released; the idempotency key keeps a retry safe.
		logger.ErrorContext(ctx, "Failed to store submission result", "error", err, "endpoint", req.Endpoint, "send_error", sendErr)
	}

	if sendErr != nil {
		logger.ErrorContext(ctx, "Booking submission failed", "error", sendErr, "endpoint", req.Endpoint, "attempt", attempt)
		s.publishFailure(ctx, sess, req.Endpoint, attempt, sendErr)
		return res, fmt.Errorf("%w: %s", ErrSubmissionFailed, sess.State.Submission.Error)
	}

	s.publishSuccess(ctx, sess, req)
	return res, nil
}

func (s *bookingService) saveResult(ctx context.Context, st *domain.BookingState) error {
	err := s.sessions.Save(ctx, st)
	if err == nil {
		return nil
	}
	logger.WarnContext(ctx, "Retrying submission result save", "error", err)
	return s.sessions.Save(ctx, st)
}

// recoverInterrupted fails a submitting marker left by a flight that no
// longer runs. Callers must have checked the guard is free.
func (s *bookingService) recoverInterrupted(ctx context.Context, sess *workflow.Session) {
	if sess.RecoverSubmission(submission.UserMessage(submission.ErrInterrupted)) {
		logger.WarnContext(ctx, "Recovered interrupted submission", "attempt", sess.State.Submission.Attempts)
	}
}

func (s *bookingService) publishSuccess(ctx context.Context, sess *workflow.Session, req submission.Request) {
	st, p := sess.State, req.Payload
	subject := events.RequestSent
	var event any
	switch req.Endpoint {
	case submission.EndpointCheckout:
		subject = events.CheckoutStarted
		event = events.CheckoutStartedEvent{
			SessionID:     st.SessionID,
			TenantID:      st.TenantID,
			DestinationID: st.DestinationID,
			BookingModel:  p.BookingModel,
			Total:         p.Total,
			Deposit:       p.DepositAmount,
			StartedAt:     s.now(),
		}
		logger.InfoContext(ctx, "Checkout started", "booking_model", p.BookingModel, "deposit", p.DepositAmount)
	default:
		event = events.RequestSentEvent{
			SessionID:       st.SessionID,
			TenantID:        st.TenantID,
			DestinationID:   st.DestinationID,
			DestinationName: p.DestinoNombre,
			ContactName:     p.Nombre,
			ContactEmail:    p.Email,
			DepartureDate:   p.FechaSalida,
			Travelers:       p.Personas,
			Total:           p.Total,
			SentAt:          s.now(),
		}
		logger.InfoContext(ctx, "Booking request sent")
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish submission event", "error", err, "subject", subject)
	}
}

func (s *bookingService) publishFailure(ctx context.Context, sess *workflow.Session, endpoint submission.Endpoint, attempt int, cause error) {
	event := events.SubmissionFailedEvent{
		SessionID: sess.State.SessionID,
		TenantID:  sess.State.TenantID,
		Endpoint:  string(endpoint),
		Error:     cause.Error(),
		Attempt:   attempt,
		FailedAt:  s.now(),
	}
	var remote *submission.RemoteError
	if errors.As(cause, &remote) {
		event.StatusCode = remote.StatusCode
	}
	if err := s.eventBus.Publish(ctx, events.SubmissionFailed, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish submission failed event", "error", err)
	}
}

func (s *bookingService) Close(ctx context.Context, sessionID string) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	st, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}

	ctx = logger.WithSession(ctx, st.SessionID, st.TenantID)
	logger.InfoContext(ctx, "Booking session closed", "step", st.Step.String())

	event := events.SessionClosedEvent{
		SessionID: st.SessionID,
		TenantID:  st.TenantID,
		Step:      int(st.Step),
		ClosedAt:  s.now(),
	}
	if err := s.eventBus.Publish(ctx, events.SessionClosed, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish session closed event", "error", err)
	}
	return nil
}

// mutate applies one command under the session lock and saves the result.
// A rejected command leaves the stored state untouched.
func (s *bookingService) mutate(ctx context.Context, sessionID string, apply func(*workflow.Session) error) (*View, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	sess, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := apply(sess); err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, sess.State); err != nil {
		return nil, err
	}
	return newView(sess), nil
}

// load reads the state and the current catalog snapshot it is evaluated
// against. A submitting marker with no live flight comes back as failed.
func (s *bookingService) load(ctx context.Context, sessionID string) (*workflow.Session, error) {
	st, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	dest, err := s.catalog.GetDestination(ctx, st.TenantID, st.DestinationID)
	if err != nil {
		return nil, err
	}
	cfg, err := s.catalog.GetBookingConfig(ctx, st.TenantID)
	if err != nil {
		return nil, err
	}
	sess := s.session(st, dest, cfg)

	if st.Submission.Status == domain.SubmissionSubmitting {
		held, err := s.guard.Held(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !held {
			s.recoverInterrupted(s.logContext(ctx, sess), sess)
		}
	}
	return sess, nil
}

func (s *bookingService) session(st *domain.BookingState, dest *domain.Destination, cfg domain.BookingConfig) *workflow.Session {
	return workflow.New(st, dest, cfg, workflow.WithClock(s.now))
}

func (s *bookingService) logContext(ctx context.Context, sess *workflow.Session) context.Context {
	return logger.WithSession(ctx, sess.State.SessionID, sess.State.TenantID)
}
