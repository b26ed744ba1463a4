package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/DRBagency/travel-agency-next-sub000/internal/http/response"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/auth"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/config"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/logger"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/service"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/submission"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/workflow"
)

type Handlers struct {
	bookingService service.BookingService
	config         *config.Config
}

func New(bookingService service.BookingService, config *config.Config) *Handlers {
	return &Handlers{bookingService: bookingService, config: config}
}

// Routes mounts under /v1/booking/sessions. startLimits only guard session
// creation.
func (h *Handlers) Routes(startLimits ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.With(startLimits...).Post("/", h.StartSession)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Get("/", h.GetSession)
		r.Delete("/", h.CloseSession)

		r.Put("/departure", h.SelectDeparture)
		r.Put("/travelers", h.SetTravelers)
		r.Put("/hotel", h.SelectHotel)
		r.Put("/room", h.SelectRoom)
		r.Patch("/contact", h.UpdateContact)
		r.Patch("/passengers/{index}", h.UpdatePassenger)

		r.Post("/next", h.Next)
		r.Post("/back", h.Back)
		r.Post("/submit", h.Submit)
	})
	return r
}

// RequireSession accepts only a session token minted for the session in the
// URL.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.WriteError(w, http.StatusUnauthorized, "Missing or invalid authorization header", response.CodeUnauthorized)
			return
		}

		claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.config.Auth.JWTSecret)
		if err != nil {
			code := response.CodeInvalidToken
			if auth.IsExpired(err) {
				code = response.CodeExpiredToken
			}
			response.WriteError(w, http.StatusUnauthorized, "Invalid session token", code)
			return
		}
		if claims.SessionID != chi.URLParam(r, "id") {
			response.Forbidden(w, "Session token does not match this session")
			return
		}

		ctx := logger.WithSession(r.Context(), claims.SessionID, claims.TenantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type startRequest struct {
	TenantID      string `json:"tenant_id"`
	DestinationID string `json:"destination_id"`
}

func (h *Handlers) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.DestinationID = strings.TrimSpace(req.DestinationID)
	if req.TenantID == "" || req.DestinationID == "" {
		response.BadRequest(w, "tenant_id and destination_id are required")
		return
	}

	started, err := h.bookingService.Start(r.Context(), req.TenantID, req.DestinationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, started)
}

func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.bookingService.Get(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, view)
}

func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.bookingService.Close(r.Context(), sessionID(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SelectDeparture(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DepartureID string `json:"departure_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.DepartureID == "" {
		response.BadRequest(w, "departure_id is required")
		return
	}
	h.respondView(w, r)(h.bookingService.SelectDeparture(r.Context(), sessionID(r), req.DepartureID))
}

func (h *Handlers) SetTravelers(w http.ResponseWriter, r *http.Request) {
	var req domain.TravelerCounts
	if !decode(w, r, &req) {
		return
	}
	h.respondView(w, r)(h.bookingService.SetTravelers(r.Context(), sessionID(r), req.Adults, req.Children))
}

// SelectHotel clears the hotel when hotel_id is empty.
func (h *Handlers) SelectHotel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HotelID string `json:"hotel_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.respondView(w, r)(h.bookingService.SelectHotel(r.Context(), sessionID(r), req.HotelID))
}

func (h *Handlers) SelectRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string `json:"room_id"`
	}
	if !decode(w, r, &req) {
		return
	}
	h.respondView(w, r)(h.bookingService.SelectRoom(r.Context(), sessionID(r), req.RoomID))
}

func (h *Handlers) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var patch workflow.ContactPatch
	if !decode(w, r, &patch) {
		return
	}
	h.respondView(w, r)(h.bookingService.UpdateContact(r.Context(), sessionID(r), patch))
}

func (h *Handlers) UpdatePassenger(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		response.BadRequest(w, "Invalid passenger index")
		return
	}
	var patch workflow.PassengerPatch
	if !decode(w, r, &patch) {
		return
	}
	h.respondView(w, r)(h.bookingService.UpdatePassenger(r.Context(), sessionID(r), index, patch))
}

func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookingService.Next(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) Back(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookingService.Back(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

// Submit answers 202 while another submission of the same session is in
// flight and 502 when the booking endpoint failed.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.bookingService.Submit(r.Context(), sessionID(r))
	switch {
	case errors.Is(err, service.ErrSubmissionFailed) && res != nil:
		response.JSON(w, http.StatusBadGateway, res)
	case err != nil:
		writeServiceError(w, r, err)
	case res.Status == domain.SubmissionSubmitting:
		response.JSON(w, http.StatusAccepted, res)
	default:
		response.JSON(w, http.StatusOK, res)
	}
}

func (h *Handlers) respondView(w http.ResponseWriter, r *http.Request) func(*service.View, error) {
	return func(view *service.View, err error) {
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		response.JSON(w, http.StatusOK, view)
	}
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.WriteErrorWithDetails(w, http.StatusBadRequest, "Invalid JSON format", response.CodeInvalidInput, err.Error())
		return false
	}
	return true
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrDestinationNotFound):
		response.NotFound(w, err.Error())

	case errors.Is(err, domain.ErrInvalidTravelers),
		errors.Is(err, domain.ErrInvalidDocumentType),
		errors.Is(err, domain.ErrPassengerIndex),
		errors.Is(err, domain.ErrUnknownDeparture),
		errors.Is(err, domain.ErrUnknownHotel),
		errors.Is(err, domain.ErrUnknownRoom):
		response.BadRequest(w, err.Error())

	case errors.Is(err, domain.ErrDepartureSoldOut), errors.Is(err, domain.ErrNotEnoughSpots):
		response.Conflict(w, err.Error(), response.CodeUnavailable)
	case errors.Is(err, domain.ErrSubmissionInFlight):
		response.Conflict(w, err.Error(), response.CodeSubmissionPending)
	case errors.Is(err, domain.ErrSessionComplete):
		response.Conflict(w, err.Error(), response.CodeSessionComplete)
	case errors.Is(err, domain.ErrWrongStep),
		errors.Is(err, domain.ErrNoPreviousStep),
		errors.Is(err, domain.ErrSubmitRequired),
		errors.Is(err, domain.ErrNotOnSummary),
		errors.Is(err, domain.ErrHotelRequired),
		errors.Is(err, submission.ErrNoDeparture):
		response.Conflict(w, err.Error(), response.CodeWrongStep)

	default:
		logger.ErrorContext(r.Context(), "Booking request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Internal server error")
	}
}
