package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DRBagency/travel-agency-next-sub000/internal/http/response"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/auth"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/config"
	"github.com/DRBagency/travel-agency-next-sub000/pkg/events"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/domain"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/handlers"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/repository"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/service"
	"github.com/DRBagency/travel-agency-next-sub000/services/booking/internal/submission"
)

// ---------- Mocks ----------

type mockCatalog struct {
	cfg domain.BookingConfig
}

func (m *mockCatalog) GetDestination(_ context.Context, tenantID, destinationID string) (*domain.Destination, error) {
	if tenantID != "tenant-1" || destinationID != "dest-1" {
		return nil, domain.ErrDestinationNotFound
	}
	return &domain.Destination{
		ID:        "dest-1",
		TenantID:  "tenant-1",
		Name:      "Japón",
		BasePrice: 1200,
		Departures: []domain.Departure{
			{ID: "d1", Date: time.Date(2027, 3, 20, 0, 0, 0, 0, time.UTC), Status: domain.DepartureConfirmed},
		},
	}, nil
}

func (m *mockCatalog) GetBookingConfig(context.Context, string) (domain.BookingConfig, error) {
	return m.cfg, nil
}

// ---------- Helpers ----------

const secret = "handler-test-secret"

type testServer struct {
	router *chi.Mux
	hits   *atomic.Int32
	status *atomic.Int32
}

func setup(t *testing.T, cfg domain.BookingConfig) *testServer {
	t.Helper()

	hits := &atomic.Int32{}
	status := &atomic.Int32{}
	status.Store(http.StatusOK)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		code := int(status.Load())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		switch {
		case code != http.StatusOK:
			w.Write([]byte(`{"error":"Payments unavailable"}`))
		case r.URL.Path == "/api/stripe/connect/checkout":
			w.Write([]byte(`{"url":"https://checkout.example.com/pay"}`))
		default:
			w.Write([]byte(`{"success":true}`))
		}
	}))
	t.Cleanup(remote.Close)

	appCfg := &config.Config{Auth: config.AuthConfig{JWTSecret: secret, SessionTokenTTL: time.Hour}}
	client := submission.NewHTTPClient(remote.URL, "/api/stripe/connect/checkout", "/api/stripe/connect/book", 0)
	svc := service.NewBookingService(&mockCatalog{cfg: cfg}, repository.NewMemorySessionStore(time.Hour), client, events.NopBus{}, appCfg)

	r := chi.NewRouter()
	r.Mount("/v1/booking/sessions", handlers.New(svc, appCfg).Routes())
	return &testServer{router: r, hits: hits, status: status}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type startResponse struct {
	Token   string `json:"session_token"`
	Session struct {
		State domain.BookingState `json:"state"`
	} `json:"session"`
}

func (s *testServer) start(t *testing.T) (id, token string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/v1/booking/sessions/", "", map[string]string{
		"tenant_id":      "tenant-1",
		"destination_id": "dest-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var res startResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Session.State.SessionID, res.Token
}

func (s *testServer) toSummary(t *testing.T, id, token string) {
	t.Helper()
	base := "/v1/booking/sessions/" + id

	rec := s.do(t, http.MethodPut, base+"/departure", token, map[string]string{"departure_id": "d1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPatch, base+"/contact", token, map[string]string{
		"name": "Ana Ruiz", "email": "ana@example.com", "phone": "+34600111222",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPatch, base+"/passengers/0", token, map[string]string{"document_number": "12345678Z"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Advanced bool `json:"advanced"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Advanced, rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ---------- Tests ----------

func TestStartSession_Validation(t *testing.T) {
	s := setup(t, domain.BookingConfig{})

	rec := s.do(t, http.MethodPost, "/v1/booking/sessions/", "", map[string]string{"tenant_id": "tenant-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/v1/booking/sessions/", "", map[string]string{
		"tenant_id": "tenant-1", "destination_id": "missing",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, response.CodeNotFound, decodeError(t, rec).Code)
}

func TestRequireSession(t *testing.T) {
	s := setup(t, domain.BookingConfig{})
	id, token := s.start(t)
	otherID, _ := s.start(t)

	rec := s.do(t, http.MethodGet, "/v1/booking/sessions/"+id, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/booking/sessions/"+id, "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeInvalidToken, decodeError(t, rec).Code)

	expired, err := auth.NewSessionToken(id, "tenant-1", secret, -time.Minute)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/v1/booking/sessions/"+id, expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, response.CodeExpiredToken, decodeError(t, rec).Code)

	rec = s.do(t, http.MethodGet, "/v1/booking/sessions/"+otherID, token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/booking/sessions/"+id, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetSession_View(t *testing.T) {
	s := setup(t, domain.BookingConfig{})
	id, token := s.start(t)

	rec := s.do(t, http.MethodGet, "/v1/booking/sessions/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	for _, key := range []string{"state", "quote", "departures", "can_next", "can_back"} {
		assert.Contains(t, view, key)
	}
	assert.Equal(t, false, view["can_next"])
}

func TestCommandErrors(t *testing.T) {
	s := setup(t, domain.BookingConfig{})
	id, token := s.start(t)
	base := "/v1/booking/sessions/" + id

	rec := s.do(t, http.MethodPut, base+"/departure", token, map[string]string{"departure_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, base+"/travelers", token, map[string]int{"adults": 0, "children": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/contact", token, map[string]string{"name": "Ana"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, response.CodeWrongStep, decodeError(t, rec).Code)

	rec = s.do(t, http.MethodPost, base+"/back", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, base+"/passengers/abc", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPut, base+"/hotel", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNext_ReturnsIssues(t *testing.T) {
	s := setup(t, domain.BookingConfig{})
	id, token := s.start(t)

	rec := s.do(t, http.MethodPost, "/v1/booking/sessions/"+id+"/next", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Advanced bool `json:"advanced"`
		Issues   []struct {
			Field string `json:"field"`
			Code  string `json:"code"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Advanced)
	require.NotEmpty(t, res.Issues)
	assert.Equal(t, "required", res.Issues[0].Code)
}

func TestSubmit_RequestOnly(t *testing.T) {
	s := setup(t, domain.BookingConfig{BookingModel: domain.ModelRequestOnly})
	id, token := s.start(t)
	s.toSummary(t, id, token)

	rec := s.do(t, http.MethodPost, "/v1/booking/sessions/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Status  string `json:"status"`
		Session struct {
			State domain.BookingState `json:"state"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "submitted", res.Status)
	assert.Equal(t, domain.StepConfirmation, res.Session.State.Step)
	assert.Equal(t, int32(1), s.hits.Load())
}

func TestSubmit_CheckoutRedirect(t *testing.T) {
	s := setup(t, domain.BookingConfig{BookingModel: domain.ModelFullPayment, ChargesEnabled: true})
	id, token := s.start(t)
	s.toSummary(t, id, token)

	rec := s.do(t, http.MethodPost, "/v1/booking/sessions/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		RedirectURL string `json:"redirect_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "https://checkout.example.com/pay", res.RedirectURL)

	rec = s.do(t, http.MethodPost, "/v1/booking/sessions/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), s.hits.Load(), "resubmitting a completed checkout must not call the endpoint")
}

func TestSubmit_RemoteFailure(t *testing.T) {
	s := setup(t, domain.BookingConfig{BookingModel: domain.ModelDeposit, ChargesEnabled: true, DepositType: domain.DepositPercentage, DepositValue: 20})
	id, token := s.start(t)
	s.toSummary(t, id, token)
	s.status.Store(http.StatusBadRequest)

	rec := s.do(t, http.MethodPost, "/v1/booking/sessions/"+id+"/submit", token, nil)
	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())

	var res struct {
		Status  string `json:"status"`
		Error   string `json:"error"`
		Session struct {
			State domain.BookingState `json:"state"`
		} `json:"session"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "failed", res.Status)
	assert.Equal(t, "Payments unavailable", res.Error)
	assert.Equal(t, domain.StepSummary, res.Session.State.Step)

	s.status.Store(http.StatusOK)
	rec = s.do(t, http.MethodPost, "/v1/booking/sessions/"+id+"/submit", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(2), s.hits.Load())
}

func TestCloseSession(t *testing.T) {
	s := setup(t, domain.BookingConfig{})
	id, token := s.start(t)

	rec := s.do(t, http.MethodDelete, "/v1/booking/sessions/"+id, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/v1/booking/sessions/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
