package notifications

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ticketpoint/internal/bookings"
	"ticketpoint/internal/events"
	"ticketpoint/internal/tickets"
	"ticketpoint/internal/tiers"
	"ticketpoint/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deliveryRecord struct {
	ticketURL string
	err       error
}

type stubBookings struct {
	mu       sync.Mutex
	booking  *bookings.Booking
	recorded []deliveryRecord
}

func (s *stubBookings) GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	if s.booking == nil || s.booking.ID != id {
		return nil, bookings.ErrBookingNotFound
	}
	b := *s.booking
	return &b, nil
}

func (s *stubBookings) RecordDelivery(ctx context.Context, id uuid.UUID, ticketURL string, deliveryErr error, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, deliveryRecord{ticketURL: ticketURL, err: deliveryErr})
	return nil
}

type stubTiers struct{ tier *tiers.Tier }

func (s stubTiers) GetByID(ctx context.Context, id uuid.UUID) (*tiers.Tier, error) {
	return s.tier, nil
}

type stubEvents struct{ event *events.Event }

func (s stubEvents) GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error) {
	return s.event, nil
}

type deliveryFixture struct {
	service  *DeliveryService
	bookings *stubBookings
	mailer   *MockMailer
	storage  string
}

func newDeliveryFixture(t *testing.T, state bookings.State) *deliveryFixture {
	t.Helper()

	event := &events.Event{
		ID:        uuid.New(),
		Title:     "Bali Jazz Night",
		StartsAt:  time.Date(2026, 12, 5, 12, 0, 0, 0, time.UTC),
		Timezone:  "Asia/Makassar",
		Format:    events.FormatOnsite,
		VenueName: "Garuda Wisnu Kencana",
		Address:   "Jl. Raya Uluwatu, Bali",
	}
	tier := &tiers.Tier{ID: uuid.New(), EventID: event.ID, Name: "Festival"}

	booking := &bookings.Booking{
		ID:         uuid.New(),
		BookingRef: "TP-20261014-QWERTY23",
		TierID:     tier.ID,
		OrderID:    "order-1",
		State:      state,
		Attendee: bookings.Attendee{
			Email:     "wayan@example.com",
			FirstName: "Wayan",
			LastName:  "Sudirta",
		},
	}
	if state == bookings.StateIssued {
		cred := uuid.NewString()
		booking.Credential = &cred
	}

	storage := t.TempDir()
	blobs, err := NewLocalBlobStore(storage, "https://cdn.ticketpoint.test/tickets")
	require.NoError(t, err)

	store := &stubBookings{booking: booking}
	mailer := NewMockMailer(nil)
	svc := NewDeliveryService(DeliveryDeps{
		Bookings: store,
		Tiers:    stubTiers{tier: tier},
		Events:   stubEvents{event: event},
		Renderer: tickets.NewIssuer(tickets.Config{}),
		Blobs:    blobs,
		Mailer:   mailer,
		Logger:   logger.Discard(),
	})

	return &deliveryFixture{service: svc, bookings: store, mailer: mailer, storage: storage}
}

func TestHandleDeliverySendsIssuedTicket(t *testing.T) {
	f := newDeliveryFixture(t, bookings.StateIssued)

	status, err := f.service.HandleDelivery(context.Background(), NewDeliveryTask(f.bookings.booking.ID))
	require.NoError(t, err)
	assert.Equal(t, DeliveryStatusSent, status)

	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "wayan@example.com", msg.To)
	assert.Equal(t, "Wayan Sudirta", msg.ToName)
	assert.Equal(t, tickets.EmailSubject, msg.Subject)
	assert.Contains(t, msg.HTMLBody, "Bali Jazz Night")
	assert.Contains(t, msg.HTMLBody, "GMT+08:00", "dates are shown in the event zone")

	require.Len(t, msg.Attachments, 1)
	att := msg.Attachments[0]
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.True(t, bytes.HasPrefix(att.Data, []byte("%PDF-")))

	stored, err := os.ReadFile(filepath.Join(f.storage, att.FileName))
	require.NoError(t, err)
	assert.Equal(t, att.Data, stored)

	require.Len(t, f.bookings.recorded, 1)
	assert.NoError(t, f.bookings.recorded[0].err)
	assert.Equal(t, "https://cdn.ticketpoint.test/tickets/"+att.FileName, f.bookings.recorded[0].ticketURL)
}

func TestHandleDeliverySkipsUnissued(t *testing.T) {
	for _, state := range []bookings.State{bookings.StateReserved, bookings.StatePaid, bookings.StateCancelled} {
		t.Run(state.String(), func(t *testing.T) {
			f := newDeliveryFixture(t, state)

			status, err := f.service.HandleDelivery(context.Background(), NewDeliveryTask(f.bookings.booking.ID))
			require.NoError(t, err)
			assert.Equal(t, DeliveryStatusSkipped, status)
			assert.Empty(t, f.mailer.Sent())
			assert.Empty(t, f.bookings.recorded)
		})
	}
}

func TestHandleDeliveryRecordsMailFailure(t *testing.T) {
	f := newDeliveryFixture(t, bookings.StateIssued)
	f.mailer.Err = errors.New("connection refused")

	before := *f.bookings.booking
	status, err := f.service.HandleDelivery(context.Background(), NewDeliveryTask(f.bookings.booking.ID))

	require.Error(t, err)
	assert.Equal(t, DeliveryStatusFailed, status)
	require.Len(t, f.bookings.recorded, 1)
	assert.EqualError(t, f.bookings.recorded[0].err, "connection refused")
	assert.Equal(t, before.State, f.bookings.booking.State, "delivery never changes booking state")
	assert.Equal(t, before.Credential, f.bookings.booking.Credential)
}

func TestHandleDeliveryUnknownBooking(t *testing.T) {
	f := newDeliveryFixture(t, bookings.StateIssued)

	_, err := f.service.HandleDelivery(context.Background(), NewDeliveryTask(uuid.New()))
	assert.ErrorIs(t, err, bookings.ErrBookingNotFound)
}
