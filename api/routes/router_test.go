package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"ticketpoint/internal/bookings"
	"ticketpoint/internal/checkin"
	"ticketpoint/internal/events"
	"ticketpoint/internal/notifications"
	"ticketpoint/internal/shared/config"
	"ticketpoint/internal/shared/database"
	"ticketpoint/internal/shared/database/dbtest"
	"ticketpoint/internal/shared/middleware"
	"ticketpoint/internal/tickets"
	"ticketpoint/internal/tiers"
	"ticketpoint/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type app struct {
	engine   *gin.Engine
	bookings bookings.Repository
	tiers    tiers.Repository
	mailer   *notifications.MockMailer
	pool     *notifications.WorkerPool
	event    *events.Event
	tier     *tiers.Tier
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Load()
	cfg.JWT.Secret = testSecret
	cfg.Storage.Backend = "none"

	db := dbtest.Open(t)
	log := logger.Discard()

	eventRepo := events.NewRepository(db)
	tierRepo := tiers.NewRepository(db)
	bookingRepo := bookings.NewRepository(db)
	issuer := tickets.NewIssuer(tickets.Config{})
	mailer := notifications.NewMockMailer(log)

	delivery := notifications.NewDeliveryService(notifications.DeliveryDeps{
		Bookings: bookingRepo,
		Tiers:    tierRepo,
		Events:   eventRepo,
		Renderer: issuer,
		Mailer:   mailer,
		Logger:   log,
	})
	pool := notifications.NewWorkerPool(delivery, notifications.WorkerPoolConfig{
		Workers:   1,
		QueueSize: 8,
		Retry:     notifications.RetryPolicy{MaxRetries: 0, Backoff: time.Millisecond},
	}, log)
	pool.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = pool.Stop(ctx)
	})

	tierService := tiers.NewService(tierRepo, eventRepo, nil, log)
	services := Services{
		Tiers:    tierService,
		Bookings: bookings.NewService(bookingRepo, tierService, database.NewTransactor(db), issuer, pool, log),
		Checkin:  checkin.NewService(checkin.NewRepository(db), eventRepo, log),
	}

	engine := gin.New()
	NewRouter(cfg, &database.DB{PostgreSQL: db}, services).SetupRoutes(engine)

	event := &events.Event{
		OwnerID:     uuid.New(),
		Title:       "Surabaya Music Fest",
		StartsAt:    time.Date(2026, 12, 5, 11, 0, 0, 0, time.UTC),
		Timezone:    "Asia/Jakarta",
		Format:      events.FormatOnsite,
		VenueName:   "Grand City Convex",
		IsPublished: true,
	}
	require.NoError(t, eventRepo.Create(context.Background(), event))

	tier := &tiers.Tier{
		EventID:   event.ID,
		Name:      "Festival",
		Price:     decimal.NewFromInt(350000),
		Currency:  "IDR",
		Format:    events.FormatOnsite,
		Capacity:  2,
		Remaining: 2,
	}
	require.NoError(t, tierRepo.Create(context.Background(), tier))

	return &app{
		engine:   engine,
		bookings: bookingRepo,
		tiers:    tierRepo,
		mailer:   mailer,
		pool:     pool,
		event:    event,
		tier:     tier,
	}
}

func (a *app) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var payload map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &payload)
	}
	return w, payload
}

func accessToken(t *testing.T, operatorID uuid.UUID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": operatorID.String(),
		"role":    role,
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestProbes(t *testing.T) {
	a := newApp(t)

	for _, path := range []string{"/health", "/ping", "/status", "/metrics"} {
		w, _ := a.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	// Purchase
	w, body := a.do(t, http.MethodPost, "/api/v1/tickets/booking", `{
		"tier_id": "`+a.tier.ID.String()+`",
		"order_id": "ORD-7781",
		"email": "dimas@example.com",
		"first_name": "Dimas",
		"last_name": "Prasetyo"
	}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := body["data"].(map[string]interface{})
	bookingID := uuid.MustParse(data["id"].(string))
	assert.Equal(t, string(bookings.StateReserved), data["state"])

	tier, err := a.tiers.GetByID(ctx, a.tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, tier.Remaining)

	// Availability is public
	w, _ = a.do(t, http.MethodGet, "/api/v1/events/"+a.event.ID.String()+"/tiers", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Gateway webhook, then a replay
	notification := `{"order_id":"ORD-7781","transaction_status":"settlement","fraud_status":"accept","payment_type":"qris","transaction_time":"2026-10-14 10:00:00"}`
	w, _ = a.do(t, http.MethodPost, "/api/v1/payments/notifications", notification, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, body = a.do(t, http.MethodPost, "/api/v1/payments/notifications", notification, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Payment already processed", body["message"])

	booking, err := a.bookings.GetByID(ctx, bookingID)
	require.NoError(t, err)
	require.Equal(t, bookings.StateIssued, booking.State)
	require.NotNil(t, booking.Credential)

	// Delivery runs on the pool
	assert.Eventually(t, func() bool { return len(a.mailer.Sent()) == 1 }, 5*time.Second, 10*time.Millisecond)
	sent := a.mailer.Sent()[0]
	assert.Equal(t, "dimas@example.com", sent.To)
	require.Len(t, sent.Attachments, 1)

	// Check-in by the event owner, once
	owner := accessToken(t, a.event.OwnerID, middleware.RoleOrganizer)
	scan := `{"credential":"` + *booking.Credential + `"}`
	w, _ = a.do(t, http.MethodPatch, "/api/v1/tickets/booking/"+bookingID.String(), scan, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = a.do(t, http.MethodPatch, "/api/v1/tickets/booking/"+bookingID.String(), scan, owner)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = a.do(t, http.MethodGet, "/api/v1/tickets/attendances/"+a.event.ID.String(), "", owner)
	require.Equal(t, http.StatusOK, w.Code)
	attendances := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, attendances["checked_in"])

	// Another organizer cannot scan this event
	stranger := accessToken(t, uuid.New(), middleware.RoleOrganizer)
	w, _ = a.do(t, http.MethodGet, "/api/v1/tickets/"+*booking.Credential, "", stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Nor manage its bookings
	w, _ = a.do(t, http.MethodGet, "/api/v1/bookings/"+bookingID.String(), "", stranger)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = a.do(t, http.MethodGet, "/api/v1/bookings/"+bookingID.String(), "", owner)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperatorRoutesRequireToken(t *testing.T) {
	a := newApp(t)

	w, _ := a.do(t, http.MethodGet, "/api/v1/tickets/attendances/"+a.event.ID.String(), "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/v1/bookings/"+uuid.NewString()+"/cancel", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/v1/events/"+a.event.ID.String()+"/tiers", `{}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
