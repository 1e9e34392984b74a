package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ticketpoint/internal/bookings"
	"ticketpoint/internal/events"
	"ticketpoint/internal/tickets"
	"ticketpoint/internal/tiers"
	"ticketpoint/pkg/logger"
	"ticketpoint/pkg/metrics"

	"github.com/google/uuid"
)

// BookingStore is the part of the booking repository delivery needs
type BookingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	RecordDelivery(ctx context.Context, id uuid.UUID, ticketURL string, deliveryErr error, at time.Time) error
}

type TierReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tiers.Tier, error)
}

type EventReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// Renderer draws ticket documents and confirmation mails
type Renderer interface {
	RenderArtifact(in tickets.ArtifactInput) (*tickets.Document, error)
	RenderEmail(in tickets.ArtifactInput, ticketURL string) (string, error)
}

// TaskHandler performs one delivery attempt
type TaskHandler interface {
	HandleDelivery(ctx context.Context, task DeliveryTask) (DeliveryStatus, error)
}

// DeliveryService renders an issued ticket, stores it and mails it to the
// attendee. It only reads booking state; a failed attempt is recorded on the
// booking and never changes it.
type DeliveryService struct {
	bookings        BookingStore
	tiers           TierReader
	events          EventReader
	renderer        Renderer
	blobs           BlobStore
	mailer          Mailer
	defaultTimezone string
	log             *logger.Logger
	now             func() time.Time
}

type DeliveryDeps struct {
	Bookings        BookingStore
	Tiers           TierReader
	Events          EventReader
	Renderer        Renderer
	Blobs           BlobStore // optional
	Mailer          Mailer
	DefaultTimezone string
	Logger          *logger.Logger
}

func NewDeliveryService(deps DeliveryDeps) *DeliveryService {
	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	tz := deps.DefaultTimezone
	if tz == "" {
		tz = events.DefaultTimezone
	}
	return &DeliveryService{
		bookings:        deps.Bookings,
		tiers:           deps.Tiers,
		events:          deps.Events,
		renderer:        deps.Renderer,
		blobs:           deps.Blobs,
		mailer:          deps.Mailer,
		defaultTimezone: tz,
		log:             log.WithComponent("delivery"),
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *DeliveryService) HandleDelivery(ctx context.Context, task DeliveryTask) (DeliveryStatus, error) {
	start := time.Now()

	booking, err := s.bookings.GetByID(ctx, task.BookingID)
	if err != nil {
		metrics.RecordDelivery("failed", time.Since(start))
		return DeliveryStatusFailed, err
	}
	if booking.State != bookings.StateIssued || booking.Credential == nil {
		metrics.RecordDelivery("skipped", time.Since(start))
		s.log.DebugWithContext(ctx, "Skipping delivery of unissued booking", map[string]interface{}{
			"booking_id": booking.ID.String(),
			"state":      booking.State.String(),
		})
		return DeliveryStatusSkipped, nil
	}

	ticketURL, err := s.deliver(ctx, booking)
	if recErr := s.bookings.RecordDelivery(ctx, booking.ID, ticketURL, err, s.now()); recErr != nil {
		s.log.ErrorWithContext(ctx, "Failed to record delivery outcome", recErr, map[string]interface{}{
			"booking_id": booking.ID.String(),
		})
	}
	if err != nil {
		metrics.RecordDelivery("failed", time.Since(start))
		s.log.LogDeliveryFailed(ctx, booking.ID.String(), booking.DeliveryAttempts+1, err)
		return DeliveryStatusFailed, err
	}

	metrics.RecordDelivery("sent", time.Since(start))
	s.log.InfoWithContext(ctx, "Ticket delivered", map[string]interface{}{
		"booking_id": booking.ID.String(),
		"ticket_url": ticketURL,
	})
	return DeliveryStatusSent, nil
}

func (s *DeliveryService) deliver(ctx context.Context, booking *bookings.Booking) (string, error) {
	if strings.TrimSpace(booking.Attendee.Email) == "" {
		return "", ErrNoRecipient
	}

	in, err := s.artifactInput(ctx, booking)
	if err != nil {
		return "", err
	}

	doc, err := s.renderer.RenderArtifact(in)
	if err != nil {
		return "", err
	}

	var ticketURL string
	if s.blobs != nil {
		ticketURL, err = s.blobs.Put(ctx, doc.FileName, doc.ContentType, doc.PDF)
		if err != nil {
			return "", err
		}
	}

	body, err := s.renderer.RenderEmail(in, ticketURL)
	if err != nil {
		return ticketURL, fmt.Errorf("failed to render email: %w", err)
	}

	_, err = s.mailer.Send(ctx, &MailMessage{
		To:       booking.Attendee.Email,
		ToName:   booking.Attendee.FullName(),
		Subject:  tickets.EmailSubject,
		HTMLBody: body,
		Attachments: []Attachment{{
			FileName:    doc.FileName,
			ContentType: doc.ContentType,
			Data:        doc.PDF,
		}},
	})
	return ticketURL, err
}

func (s *DeliveryService) artifactInput(ctx context.Context, booking *bookings.Booking) (tickets.ArtifactInput, error) {
	tier, err := s.tiers.GetByID(ctx, booking.TierID)
	if err != nil {
		return tickets.ArtifactInput{}, err
	}
	event, err := s.events.GetByID(ctx, tier.EventID)
	if err != nil {
		return tickets.ArtifactInput{}, err
	}

	return tickets.ArtifactInput{
		BookingID:    booking.ID,
		BookingRef:   booking.BookingRef,
		Credential:   *booking.Credential,
		AttendeeName: booking.Attendee.FullName(),
		TierName:     tier.Name,
		Event: tickets.EventDetails{
			Title:       event.Title,
			StartsAt:    event.StartsAt,
			Location:    event.Location(s.defaultTimezone),
			Online:      event.Format.HasPlatform(),
			Onsite:      event.Format.HasVenue(),
			VenueName:   event.VenueName,
			Address:     event.Address,
			Platform:    event.Platform,
			PlatformURL: event.PlatformURL,
		},
	}, nil
}
