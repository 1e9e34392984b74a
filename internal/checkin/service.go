package checkin

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"ticketpoint/internal/events"
	"ticketpoint/pkg/logger"
	"ticketpoint/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type Service interface {
	Validate(ctx context.Context, operatorID, bookingID uuid.UUID, presentedCredential string) (*Result, error)
	GetAttendeeByCredential(ctx context.Context, operatorID uuid.UUID, credential string) (*AttendeeResponse, error)
	ListAttendances(ctx context.Context, operatorID, eventID uuid.UUID) (*AttendancesResponse, error)
}

type EventLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type service struct {
	repo   Repository
	events EventLookup
	log    *logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, eventLookup EventLookup, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:   repo,
		events: eventLookup,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Validate redeems a presented credential. Of two concurrent scans exactly
// one wins the conditional update; the other sees ErrAlreadyCheckedIn.
func (s *service) Validate(ctx context.Context, operatorID, bookingID uuid.UUID, presentedCredential string) (*Result, error) {
	result, err := s.validate(ctx, operatorID, bookingID, presentedCredential)
	s.record(ctx, bookingID, operatorID, err)
	return result, err
}

func (s *service) validate(ctx context.Context, operatorID, bookingID uuid.UUID, presented string) (*Result, error) {
	ticket, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if ticket.Credential == nil {
		return nil, ErrNotFound
	}
	if ticket.OwnerID != operatorID {
		return nil, ErrForbidden
	}
	if subtle.ConstantTimeCompare([]byte(*ticket.Credential), []byte(presented)) != 1 {
		return nil, ErrCredentialMismatch
	}
	if ticket.CheckedIn {
		return nil, ErrAlreadyCheckedIn
	}

	at := s.now()
	applied, err := s.repo.MarkCheckedIn(ctx, bookingID, at)
	if err != nil {
		return nil, err
	}
	if !applied {
		// A credential only exists on ISSUED bookings, so the guard lost to a concurrent scan
		return nil, ErrAlreadyCheckedIn
	}

	return &Result{BookingID: bookingID, CheckedIn: true, CheckinTime: at}, nil
}

func (s *service) record(ctx context.Context, bookingID, operatorID uuid.UUID, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyCheckedIn):
		outcome = "already_checked_in"
	case errors.Is(err, ErrCredentialMismatch):
		outcome = "mismatch"
	case errors.Is(err, ErrForbidden):
		outcome = "forbidden"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	metrics.RecordCheckin(outcome)
	s.log.LogCheckin(ctx, bookingID.String(), operatorID.String(), outcome)
}

func (s *service) GetAttendeeByCredential(ctx context.Context, operatorID uuid.UUID, credential string) (*AttendeeResponse, error) {
	ticket, err := s.repo.FindByCredential(ctx, credential)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != operatorID {
		return nil, ErrForbidden
	}

	resp, err := toAttendeeResponse(ticket)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *service) ListAttendances(ctx context.Context, operatorID, eventID uuid.UUID) (*AttendancesResponse, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, events.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if event.OwnerID != operatorID {
		return nil, ErrForbidden
	}

	tickets, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	out := &AttendancesResponse{
		EventID:     eventID,
		Total:       len(tickets),
		Attendances: make([]AttendeeResponse, 0, len(tickets)),
	}
	for i := range tickets {
		resp, err := toAttendeeResponse(&tickets[i])
		if err != nil {
			return nil, err
		}
		if resp.CheckedIn {
			out.CheckedIn++
		}
		out.Attendances = append(out.Attendances, resp)
	}
	return out, nil
}

func toAttendeeResponse(t *TicketView) (AttendeeResponse, error) {
	var resp AttendeeResponse
	if err := copier.Copy(&resp, t); err != nil {
		return AttendeeResponse{}, err
	}
	resp.Tier = TierSummary{Name: t.TierName}
	return resp, nil
}
