package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dirwa-booking/config"
	"dirwa-booking/internal/delivery/dto"
	"dirwa-booking/internal/delivery/http/handler"
	"dirwa-booking/internal/delivery/http/middleware"
	"dirwa-booking/internal/domain/entity"
	"dirwa-booking/internal/domain/repository"
	"dirwa-booking/internal/usecase"
	"dirwa-booking/pkg/jwt"
	"dirwa-booking/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFactory struct {
	err      error
	response *dto.CreateBookingResponse
	userID   uuid.UUID
}

func (s *stubFactory) result(ctx context.Context) (*dto.CreateBookingResponse, error) {
	if id, ok := middleware.GetUserIDFromContext(ctx); ok {
		s.userID = id
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubFactory) CreateGeneric(ctx context.Context, _ *dto.CreateBookingRequest) (*dto.CreateBookingResponse, error) {
	return s.result(ctx)
}

func (s *stubFactory) CreateRest(ctx context.Context, _ *dto.CreateRestBookingRequest) (*dto.CreateBookingResponse, error) {
	return s.result(ctx)
}

func (s *stubFactory) CreateHorseTraining(ctx context.Context, _ *dto.CreateHorseTrainingBookingRequest) (*dto.CreateBookingResponse, error) {
	return s.result(ctx)
}

func (s *stubFactory) CreatePlantOrder(ctx context.Context, _ *dto.CreatePlantOrderRequest) (*dto.CreateBookingResponse, error) {
	return s.result(ctx)
}

type stubBookings struct {
	err         error
	called      string
	cancelledBy string
}

func (s *stubBookings) ListBookings(_ context.Context, filter repository.BookingFilter, _, _ int) (*dto.BookingListResponse, error) {
	s.called = "list:" + string(filter.Variant)
	return &dto.BookingListResponse{Bookings: []dto.BookingResponse{{ID: uuid.New()}}, Total: 41}, s.err
}

func (s *stubBookings) GetBooking(_ context.Context, id uuid.UUID) (*dto.BookingResponse, error) {
	s.called = "get"
	return &dto.BookingResponse{ID: id}, s.err
}

func (s *stubBookings) UpdateBooking(_ context.Context, id uuid.UUID, _ *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	s.called = "update"
	return &dto.BookingResponse{ID: id}, s.err
}

func (s *stubBookings) CancelBooking(ctx context.Context, id uuid.UUID, reason string) (*dto.BookingResponse, error) {
	s.called = "cancel"
	s.cancelledBy = reason
	if s.err != nil {
		return nil, s.err
	}
	return &dto.BookingResponse{ID: id, BookingStatus: "cancelled", CancellationReason: reason}, nil
}

func (s *stubBookings) DeleteBooking(_ context.Context, _ uuid.UUID) error {
	s.called = "delete"
	return s.err
}

func (s *stubBookings) Finance(_ context.Context, from, to string) (*dto.FinanceResponse, error) {
	s.called = "finance:" + from + ".." + to
	return &dto.FinanceResponse{From: from, To: to}, s.err
}

type stubCalendar struct {
	usecase.CalendarUsecase
	err error
}

func (s *stubCalendar) GetCalendar(_ context.Context, entityID uuid.UUID, month string) (*dto.CalendarResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dto.CalendarResponse{EntityID: entityID, Month: month}, nil
}

func (s *stubCalendar) CheckDate(_ context.Context, _ uuid.UUID, date string) (*dto.DateCheckResponse, error) {
	return &dto.DateCheckResponse{Date: date, Available: true}, s.err
}

type stubPayments struct {
	usecase.PaymentUsecase
	err       error
	reference string
}

func (s *stubPayments) HandleCallback(_ context.Context, req *dto.PaymentCallbackRequest) (*dto.PaymentStatusResponse, error) {
	s.reference = req.PaymentReference()
	return &dto.PaymentStatusResponse{Reference: s.reference}, s.err
}

func (s *stubPayments) Reconcile(_ context.Context, reference string) (*dto.PaymentStatusResponse, error) {
	s.reference = reference
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PaymentStatusResponse{Reference: reference, PaymentStatus: "paid"}, nil
}

type stubAuditLogs struct{}

func (stubAuditLogs) GetAllAuditLogs(_ context.Context, _, _ int) (*dto.AuditLogListResponse, error) {
	return &dto.AuditLogListResponse{Logs: []dto.AuditLogResponse{{ID: 1, Action: entity.AuditActionBookingDelete}}, Total: 1}, nil
}

func (stubAuditLogs) GetAuditLog(_ context.Context, _ int64) (*dto.AuditLogResponse, error) {
	return nil, usecase.ErrAuditLogNotFound
}

type testServer struct {
	router   *mux.Router
	jwt      *jwt.JWTService
	factory  *stubFactory
	bookings *stubBookings
	calendar *stubCalendar
	payments *stubPayments
}

func newTestServer() *testServer {
	log := logrus.New()
	log.SetOutput(io.Discard)
	v := validator.NewValidator()

	s := &testServer{
		jwt:      jwt.NewJWTService(config.JWTConfig{Secret: "router-test", AccessExpiry: time.Minute}),
		factory:  &stubFactory{response: &dto.CreateBookingResponse{Bookings: []dto.BookingResponse{{ID: uuid.New()}}}},
		bookings: &stubBookings{},
		calendar: &stubCalendar{},
		payments: &stubPayments{},
	}

	s.router = NewRouter(
		handler.NewBookingHandler(s.factory, s.bookings, v),
		handler.NewCalendarHandler(s.calendar, v),
		handler.NewPaymentHandler(s.payments, v),
		handler.NewAuditLogHandler(stubAuditLogs{}),
		middleware.NewAuthMiddleware(s.jwt, log),
		middleware.NewCORSMiddleware(),
	).Setup()
	return s
}

func (s *testServer) token(t *testing.T, roleID int) (string, uuid.UUID) {
	userID := uuid.New()
	token, err := s.jwt.GenerateAccessToken(userID, roleID, "+966500000000", "Tester")
	require.NoError(t, err)
	return "Bearer " + token, userID
}

func (s *testServer) do(method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Meta    *struct {
		Total      int64 `json:"total"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func horseBody() map[string]interface{} {
	return map[string]interface{}{
		"fullName":   "Sara",
		"phone":      "0551112233",
		"categoryId": uuid.New(),
		"courseId":   uuid.New(),
		"appointments": []map[string]string{
			{"date": "2025-08-10", "timeSlot": "16:00-17:00"},
		},
	}
}

func TestRouter_CreateBooking(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		s := newTestServer()
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", "", horseBody())
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.True(t, decode(t, rec).Success)
		assert.Equal(t, uuid.Nil, s.factory.userID)
	})

	t.Run("Session User Attached", func(t *testing.T) {
		s := newTestServer()
		auth, userID := s.token(t, entity.RoleIDCustomer)
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", auth, horseBody())
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, userID, s.factory.userID)
	})

	t.Run("Contact Support Message", func(t *testing.T) {
		s := newTestServer()
		s.factory.response.Message = usecase.MessageContactSupport
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", "", horseBody())
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, usecase.MessageContactSupport, decode(t, rec).Message)
	})

	t.Run("Missing Field", func(t *testing.T) {
		s := newTestServer()
		body := horseBody()
		delete(body, "phone")
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "phone is required", decode(t, rec).Message)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		s := newTestServer()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Slot Conflict", func(t *testing.T) {
		s := newTestServer()
		s.factory.err = &usecase.SlotConflictError{Slot: entity.Slot{Date: "2025-08-10", TimeSlot: "16:00-17:00"}}
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", "", horseBody())
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, string(decode(t, rec).Error), "16:00-17:00")
	})

	t.Run("Course Not In Category", func(t *testing.T) {
		s := newTestServer()
		s.factory.err = &usecase.CourseNotFoundError{
			CategoryID:   uuid.New(),
			ValidCourses: []entity.TrainingCourse{{ID: uuid.New(), Name: "Beginner riding", Price: decimal.NewFromInt(250)}},
		}
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", "", horseBody())
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, string(decode(t, rec).Error), "Beginner riding")
	})

	t.Run("Disabled Date", func(t *testing.T) {
		s := newTestServer()
		s.factory.err = &usecase.DisabledDateError{Date: "2025-08-15", Reason: "maintenance"}
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", "", horseBody())
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Internal Error Is Not Leaked", func(t *testing.T) {
		s := newTestServer()
		s.factory.err = errors.New("pq: relation \"bookings\" does not exist")
		rec := s.do(http.MethodPost, "/api/v1/bookings/horse", "", horseBody())
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "relation")
	})
}

func TestRouter_CancelRequiresAuthentication(t *testing.T) {
	s := newTestServer()
	path := "/api/v1/bookings/" + uuid.New().String() + "/cancel"
	body := map[string]string{"reason": "plans changed"}

	rec := s.do(http.MethodPatch, path, "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, s.bookings.called)

	auth, _ := s.token(t, entity.RoleIDCustomer)
	rec = s.do(http.MethodPatch, path, auth, body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plans changed", s.bookings.cancelledBy)

	rec = s.do(http.MethodPatch, path, auth, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.bookings.err = usecase.ErrForbidden
	rec = s.do(http.MethodPatch, path, auth, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_AdminRoutes(t *testing.T) {
	s := newTestServer()
	customer, _ := s.token(t, entity.RoleIDCustomer)
	admin, _ := s.token(t, entity.RoleIDAdmin)

	rec := s.do(http.MethodGet, "/api/v1/bookings", customer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/bookings?variant=rest&page=2&limit=10", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(41), env.Meta.Total)
	assert.Equal(t, 5, env.Meta.TotalPages)
	assert.Equal(t, "list:rest", s.bookings.called)

	rec = s.do(http.MethodGet, "/api/v1/bookings/finance?from=2025-08-01&to=2025-08-31", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "finance:2025-08-01..2025-08-31", s.bookings.called)

	staff, _ := s.token(t, entity.RoleIDStaff)
	rec = s.do(http.MethodGet, "/api/v1/bookings/"+uuid.New().String(), staff, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "get", s.bookings.called)

	rec = s.do(http.MethodDelete, "/api/v1/bookings/"+uuid.New().String(), staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "get", s.bookings.called)

	rec = s.do(http.MethodGet, "/api/v1/bookings/not-a-uuid", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.bookings.err = usecase.ErrBookingNotFound
	rec = s.do(http.MethodDelete, "/api/v1/bookings/"+uuid.New().String(), admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/audit-logs", admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/audit-logs/7", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Calendar(t *testing.T) {
	s := newTestServer()
	entityID := uuid.New()

	rec := s.do(http.MethodGet, "/api/v1/calendar/"+entityID.String()+"?month=2025-08", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var calendar dto.CalendarResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &calendar))
	assert.Equal(t, "2025-08", calendar.Month)

	rec = s.do(http.MethodGet, "/api/v1/calendar/"+entityID.String()+"/check-date/2025-08-15", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/api/v1/calendar", "", map[string]interface{}{"entityId": entityID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	s.calendar.err = &usecase.ValidationError{Field: "month", Message: "must be formatted as YYYY-MM"}
	rec = s.do(http.MethodGet, "/api/v1/calendar/"+entityID.String()+"?month=Aug", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Payments(t *testing.T) {
	t.Run("Callback Redirect", func(t *testing.T) {
		s := newTestServer()
		rec := s.do(http.MethodGet, "/api/v1/payment/callback?ReferenceNo=DIRW-abc123-1", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "DIRW-abc123-1", s.payments.reference)
	})

	t.Run("Callback Post", func(t *testing.T) {
		s := newTestServer()
		rec := s.do(http.MethodPost, "/api/v1/payment/callback", "", map[string]string{"ClientReference": "REF-1", "status": "paid"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "REF-1", s.payments.reference)
	})

	t.Run("Verify Gateway Down", func(t *testing.T) {
		s := newTestServer()
		s.payments.err = usecase.ErrGatewayUnavailable
		rec := s.do(http.MethodGet, "/api/v1/payment/verify/REF-1", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Verify Unknown Reference", func(t *testing.T) {
		s := newTestServer()
		s.payments.err = usecase.ErrPaymentNotFound
		rec := s.do(http.MethodGet, "/api/v1/payment/verify/REF-1", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Refund Requires Admin", func(t *testing.T) {
		s := newTestServer()
		rec := s.do(http.MethodPost, "/api/v1/payment/REF-1/refund", "", map[string]string{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRouter_HealthAndCORS(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
