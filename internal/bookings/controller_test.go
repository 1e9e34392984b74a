package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticketpoint/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateBooking(ctx context.Context, input CreateBookingInput) (*Booking, error) {
	args := m.Called(ctx, input)
	b, _ := args.Get(0).(*Booking)
	return b, args.Error(1)
}

func (m *mockService) ConfirmPayment(ctx context.Context, n PaymentNotification) (*PaymentResult, error) {
	args := m.Called(ctx, n)
	r, _ := args.Get(0).(*PaymentResult)
	return r, args.Error(1)
}

func (m *mockService) IssueCredential(ctx context.Context, bookingID uuid.UUID) (string, error) {
	args := m.Called(ctx, bookingID)
	return args.String(0), args.Error(1)
}

func (m *mockService) CancelBooking(ctx context.Context, operatorID, bookingID uuid.UUID, reason string) error {
	return m.Called(ctx, operatorID, bookingID, reason).Error(0)
}

func (m *mockService) GetBooking(ctx context.Context, operatorID, bookingID uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, operatorID, bookingID)
	b, _ := args.Get(0).(*Booking)
	return b, args.Error(1)
}

func (m *mockService) ResendTicket(ctx context.Context, bookingID uuid.UUID) error {
	return m.Called(ctx, bookingID).Error(0)
}

func (m *mockService) ExpireReservations(ctx context.Context, ttl time.Duration) (int, error) {
	args := m.Called(ctx, ttl)
	return args.Int(0), args.Error(1)
}

func (m *mockService) ResumeStalled(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

func openRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	jakarta := time.FixedZone("WIB", 7*3600)
	denyAll := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	SetupBookingRoutes(r.Group("/api/v1"), NewController(svc, jakarta), denyAll)
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bookingBody(tierID uuid.UUID) string {
	return `{"tier_id":"` + tierID.String() + `","order_id":"order-77","email":"ayu@example.com","first_name":"Ayu","last_name":"Lestari"}`
}

func TestCreateBookingEndpoint(t *testing.T) {
	tierID := uuid.New()
	booking := &Booking{ID: uuid.New(), TierID: tierID, OrderID: "order-77", State: StateReserved}

	tests := []struct {
		name    string
		booking *Booking
		err     error
		status  int
	}{
		{"created", booking, nil, http.StatusCreated},
		{"duplicate order", booking, ErrDuplicateOrder, http.StatusOK},
		{"sold out", nil, ErrCapacityExceeded, http.StatusConflict},
		{"unknown tier", nil, ErrTierNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			svc.On("CreateBooking", mock.Anything, mock.MatchedBy(func(in CreateBookingInput) bool {
				return in.TierID == tierID && in.OrderID == "order-77" && in.Attendee.FirstName == "Ayu"
			})).Return(tt.booking, tt.err)

			w := post(openRouter(svc), "/api/v1/tickets/booking", bookingBody(tierID))
			assert.Equal(t, tt.status, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc := new(mockService)
	w := post(openRouter(svc), "/api/v1/tickets/booking", `{"tier_id":"nope","order_id":"o","email":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestPaymentNotificationEndpoint(t *testing.T) {
	bookingID := uuid.New()
	body := `{"order_id":"order-77","payment_type":"qris","transaction_status":"settlement","fraud_status":"accept","transaction_time":"2026-10-14 19:30:00"}`

	svc := new(mockService)
	svc.On("ConfirmPayment", mock.Anything, mock.MatchedBy(func(n PaymentNotification) bool {
		return n.OrderID == "order-77" && n.TransactionTime != nil &&
			n.TransactionTime.Equal(time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC))
	})).Return(&PaymentResult{BookingID: bookingID, State: StatePaid, Duplicate: true}, nil)

	w := post(openRouter(svc), "/api/v1/payments/notifications", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Message string        `json:"message"`
		Data    PaymentResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Payment already processed", resp.Message)
	assert.Equal(t, bookingID, resp.Data.BookingID)
	svc.AssertExpectations(t)
}

func TestPaymentNotificationErrors(t *testing.T) {
	body := `{"order_id":"order-77","transaction_status":"deny","fraud_status":"accept"}`

	for err, status := range map[error]int{
		ErrPaymentRejected:   http.StatusBadRequest,
		ErrBookingNotFound:   http.StatusNotFound,
		ErrIllegalTransition: http.StatusConflict,
	} {
		svc := new(mockService)
		svc.On("ConfirmPayment", mock.Anything, mock.Anything).Return(nil, err)

		w := post(openRouter(svc), "/api/v1/payments/notifications", body)
		assert.Equal(t, status, w.Code, err.Error())
	}
}

func TestResendTicketEndpoint(t *testing.T) {
	bookingID := uuid.New()
	svc := new(mockService)
	svc.On("ResendTicket", mock.Anything, bookingID).Return(nil)

	r := openRouter(svc)
	assert.Equal(t, http.StatusAccepted, post(r, "/api/v1/tickets/booking/"+bookingID.String(), "").Code)
	assert.Equal(t, http.StatusBadRequest, post(r, "/api/v1/tickets/booking/abc", "").Code)
	svc.AssertExpectations(t)
}

func TestOperatorRoutesRequireAuth(t *testing.T) {
	svc := new(mockService)
	w := post(openRouter(svc), "/api/v1/bookings/"+uuid.NewString()+"/cancel", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// asOperator stands in for JWTAuth with a fixed operator
func asOperator(operatorID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", operatorID.String())
		c.Set("user_role", middleware.RoleOrganizer)
		c.Next()
	}
}

func TestBookingManagementByForeignOperator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	operatorID, bookingID := uuid.New(), uuid.New()

	svc := new(mockService)
	svc.On("CancelBooking", mock.Anything, operatorID, bookingID, "cancelled by operator").Return(ErrForbidden)
	svc.On("GetBooking", mock.Anything, operatorID, bookingID).Return(nil, ErrForbidden)

	r := gin.New()
	SetupBookingRoutes(r.Group("/api/v1"), NewController(svc, time.UTC), asOperator(operatorID))

	w := post(r, "/api/v1/bookings/"+bookingID.String()+"/cancel", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+bookingID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	svc.AssertExpectations(t)
}
