package checkin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ticketpoint/internal/shared/config"
	"ticketpoint/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Validate(ctx context.Context, operatorID, bookingID uuid.UUID, credential string) (*Result, error) {
	args := m.Called(ctx, operatorID, bookingID, credential)
	if r := args.Get(0); r != nil {
		return r.(*Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) GetAttendeeByCredential(ctx context.Context, operatorID uuid.UUID, credential string) (*AttendeeResponse, error) {
	args := m.Called(ctx, operatorID, credential)
	if r := args.Get(0); r != nil {
		return r.(*AttendeeResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) ListAttendances(ctx context.Context, operatorID, eventID uuid.UUID) (*AttendancesResponse, error) {
	args := m.Called(ctx, operatorID, eventID)
	if r := args.Get(0); r != nil {
		return r.(*AttendancesResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

const testSecret = "checkin-test-secret"

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}

	r := gin.New()
	SetupCheckinRoutes(r.Group("/api/v1"), NewController(svc), middleware.JWTAuth(cfg))
	return r
}

func token(t *testing.T, operatorID uuid.UUID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": operatorID.String(),
		"role":    role,
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func perform(r http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateTicketEndpoint(t *testing.T) {
	operator, bookingID := uuid.New(), uuid.New()
	credential := uuid.NewString()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"success", nil, http.StatusOK},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"mismatch", ErrCredentialMismatch, http.StatusBadRequest},
		{"replay", ErrAlreadyCheckedIn, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockService)
			var result *Result
			if tt.err == nil {
				result = &Result{BookingID: bookingID, CheckedIn: true, CheckinTime: time.Now()}
			}
			svc.On("Validate", mock.Anything, operator, bookingID, credential).Return(result, tt.err)

			w := perform(setupRouter(svc), http.MethodPatch, "/api/v1/tickets/booking/"+bookingID.String(),
				token(t, operator, middleware.RoleStaff), `{"credential":"`+credential+`"}`)

			assert.Equal(t, tt.status, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestValidateTicketRequiresAuth(t *testing.T) {
	svc := new(mockService)
	r := setupRouter(svc)

	w := perform(r, http.MethodPatch, "/api/v1/tickets/booking/"+uuid.NewString(), "", `{"credential":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodPatch, "/api/v1/tickets/booking/"+uuid.NewString(), token(t, uuid.New(), "ATTENDEE"), `{"credential":"x"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	svc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestValidateTicketRejectsBadInput(t *testing.T) {
	svc := new(mockService)
	r := setupRouter(svc)
	auth := token(t, uuid.New(), middleware.RoleOrganizer)

	w := perform(r, http.MethodPatch, "/api/v1/tickets/booking/not-a-uuid", auth, `{"credential":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = perform(r, http.MethodPatch, "/api/v1/tickets/booking/"+uuid.NewString(), auth, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetAttendeeAndAttendancesEndpoints(t *testing.T) {
	operator, eventID := uuid.New(), uuid.New()
	credential := uuid.NewString()

	svc := new(mockService)
	svc.On("GetAttendeeByCredential", mock.Anything, operator, credential).
		Return(&AttendeeResponse{FirstName: "Dewi", Tier: TierSummary{Name: "VIP"}}, nil)
	svc.On("ListAttendances", mock.Anything, operator, eventID).
		Return(&AttendancesResponse{EventID: eventID, Total: 1}, nil)

	r := setupRouter(svc)
	auth := token(t, operator, middleware.RoleOrganizer)

	w := perform(r, http.MethodGet, "/api/v1/tickets/"+credential, auth, "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data AttendeeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Dewi", body.Data.FirstName)
	assert.Equal(t, "VIP", body.Data.Tier.Name)

	w = perform(r, http.MethodGet, "/api/v1/tickets/attendances/"+eventID.String(), auth, "")
	assert.Equal(t, http.StatusOK, w.Code)

	svc.AssertExpectations(t)
}
