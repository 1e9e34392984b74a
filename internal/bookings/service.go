package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"ticketpoint/internal/shared/database"
	"ticketpoint/internal/tiers"
	"ticketpoint/pkg/logger"
	"ticketpoint/pkg/metrics"

	"github.com/google/uuid"
)

// Ledger is the seat counter the workflow reserves against (to avoid circular dependency)
type Ledger interface {
	Reserve(ctx context.Context, tierID uuid.UUID, count int) (*tiers.ReservationToken, error)
	Release(ctx context.Context, tierID uuid.UUID, count int) error
}

// CredentialMinter produces unguessable ticket credentials
type CredentialMinter interface {
	Mint() (string, error)
}

// DeliveryDispatcher hands an issued booking to the rendering and mail workers
type DeliveryDispatcher interface {
	DispatchTicket(ctx context.Context, bookingID uuid.UUID) error
}

// Service interface defines the contract for booking business logic
type Service interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*Booking, error)
	ConfirmPayment(ctx context.Context, n PaymentNotification) (*PaymentResult, error)
	IssueCredential(ctx context.Context, bookingID uuid.UUID) (string, error)
	CancelBooking(ctx context.Context, operatorID, bookingID uuid.UUID, reason string) error
	GetBooking(ctx context.Context, operatorID, bookingID uuid.UUID) (*Booking, error)
	ResendTicket(ctx context.Context, bookingID uuid.UUID) error

	// Lifecycle jobs
	ExpireReservations(ctx context.Context, ttl time.Duration) (int, error)
	ResumeStalled(ctx context.Context, olderThan time.Duration) (int, error)
}

// Option customizes the service
type Option func(*service)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// WithReferenceGenerator replaces the booking reference generator
func WithReferenceGenerator(gen func(now time.Time) (string, error)) Option {
	return func(s *service) { s.newRef = gen }
}

// WithBatchSize bounds how many bookings one lifecycle sweep touches
func WithBatchSize(n int) Option {
	return func(s *service) { s.batchSize = n }
}

const (
	seatsPerBooking  = 1
	mintAttempts     = 3
	refAttempts      = 3
	defaultBatchSize = 100
	reasonExpired    = "expired"
)

// service implements the Service interface
type service struct {
	repo       Repository
	ledger     Ledger
	tx         database.Transactor
	minter     CredentialMinter
	dispatcher DeliveryDispatcher
	log        *logger.Logger
	now        func() time.Time
	newRef     func(now time.Time) (string, error)
	batchSize  int
}

func NewService(repo Repository, ledger Ledger, tx database.Transactor, minter CredentialMinter, dispatcher DeliveryDispatcher, log *logger.Logger, opts ...Option) Service {
	s := &service{
		repo:       repo,
		ledger:     ledger,
		tx:         tx,
		minter:     minter,
		dispatcher: dispatcher,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newRef:     generateBookingReference,
		batchSize:  defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking reserves one seat and records a RESERVED booking in the same
// transaction, so a failed insert never consumes a seat.
func (s *service) CreateBooking(ctx context.Context, input CreateBookingInput) (*Booking, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidAttendee)
	}
	if err := input.Attendee.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByOrderID(ctx, orderID); err == nil {
		return existing, ErrDuplicateOrder
	} else if !errors.Is(err, ErrBookingNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < refAttempts; attempt++ {
		booking, err := s.insertReserved(ctx, input, orderID)
		if err == nil {
			metrics.RecordBooking("reserved")
			s.log.LogBookingCreated(ctx, booking.ID.String(), booking.TierID.String(), booking.OrderID)
			return booking, nil
		}

		switch {
		case errors.Is(err, errDuplicateBooking):
			// Either the order raced in, or the generated reference collided
			existing, gerr := s.repo.GetByOrderID(ctx, orderID)
			if gerr == nil {
				metrics.RecordBooking("duplicate")
				return existing, ErrDuplicateOrder
			}
			if !errors.Is(gerr, ErrBookingNotFound) {
				return nil, gerr
			}
			continue
		case errors.Is(err, ErrCapacityExceeded):
			metrics.RecordBooking("sold_out")
			return nil, err
		}
		metrics.RecordBooking("error")
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.RecordBooking("error")
	return nil, fmt.Errorf("failed to generate a unique booking reference after %d attempts", refAttempts)
}

// insertReserved takes the seat and inserts the booking in one transaction
func (s *service) insertReserved(ctx context.Context, input CreateBookingInput, orderID string) (*Booking, error) {
	ref, err := s.newRef(s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &Booking{
		BookingRef: ref,
		TierID:     input.TierID,
		OrderID:    orderID,
		Attendee:   input.Attendee,
		State:      StateReserved,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.Reserve(ctx, input.TierID, seatsPerBooking); err != nil {
			return err
		}
		return s.repo.Create(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ConfirmPayment applies a gateway notification. Replays of an applied
// payment succeed without side effects.
func (s *service) ConfirmPayment(ctx context.Context, n PaymentNotification) (*PaymentResult, error) {
	if strings.TrimSpace(n.OrderID) == "" {
		return nil, ErrBookingNotFound
	}

	booking, err := s.repo.GetByOrderID(ctx, n.OrderID)
	if err != nil {
		metrics.RecordPayment("unknown_order")
		return nil, err
	}

	if result, done, err := s.settled(booking); done {
		if err == nil {
			metrics.RecordPayment("duplicate")
			s.log.LogPaymentConfirmed(ctx, n.OrderID, "duplicate")
		}
		return result, err
	}

	if !n.Accepted() {
		metrics.RecordPayment("rejected")
		s.log.LogPaymentConfirmed(ctx, n.OrderID, "rejected")
		return nil, fmt.Errorf("%w: transaction_status=%s fraud_status=%s", ErrPaymentRejected, n.TransactionStatus, n.FraudStatus)
	}

	applied, err := s.repo.MarkPaid(ctx, booking.ID, n, s.now())
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race: report whatever the winner left behind
		current, err := s.repo.GetByID(ctx, booking.ID)
		if err != nil {
			return nil, err
		}
		result, done, err := s.settled(current)
		if !done {
			return nil, fmt.Errorf("%w: booking is %s", ErrIllegalTransition, current.State)
		}
		if err == nil {
			metrics.RecordPayment("duplicate")
		}
		return result, err
	}

	metrics.RecordPayment("applied")
	s.log.LogPaymentConfirmed(ctx, n.OrderID, "applied")

	if _, err := s.IssueCredential(ctx, booking.ID); err != nil {
		return nil, fmt.Errorf("payment recorded but issuance failed: %w", err)
	}

	return &PaymentResult{BookingID: booking.ID, State: StateIssued}, nil
}

// settled reports whether the booking no longer accepts a payment, and with what outcome
func (s *service) settled(b *Booking) (*PaymentResult, bool, error) {
	switch b.State {
	case StatePaid, StateIssued:
		return &PaymentResult{BookingID: b.ID, State: b.State, Duplicate: true}, true, nil
	case StateCancelled:
		return nil, true, fmt.Errorf("%w: booking is cancelled", ErrIllegalTransition)
	}
	return nil, false, nil
}

// IssueCredential mints and stores the credential of a PAID booking. Once
// stored it is returned unchanged to every later caller.
func (s *service) IssueCredential(ctx context.Context, bookingID uuid.UUID) (string, error) {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if booking.State == StateIssued && booking.Credential != nil {
		return *booking.Credential, nil
	}
	if booking.State != StatePaid {
		return "", fmt.Errorf("%w: booking is %s", ErrIllegalTransition, booking.State)
	}

	var credential string
	for attempt := 0; attempt < mintAttempts; attempt++ {
		credential, err = s.minter.Mint()
		if err != nil {
			return "", fmt.Errorf("failed to mint credential: %w", err)
		}

		applied, err := s.repo.MarkIssued(ctx, bookingID, credential, s.now())
		if errors.Is(err, errDuplicateCredential) {
			continue
		}
		if err != nil {
			return "", err
		}
		if !applied {
			current, err := s.repo.GetByID(ctx, bookingID)
			if err != nil {
				return "", err
			}
			if current.State == StateIssued && current.Credential != nil {
				return *current.Credential, nil
			}
			return "", fmt.Errorf("%w: booking is %s", ErrIllegalTransition, current.State)
		}

		metrics.RecordCredentialIssued()
		s.log.LogCredentialIssued(ctx, bookingID.String())
		s.dispatch(ctx, bookingID)
		return credential, nil
	}

	return "", fmt.Errorf("failed to mint a unique credential after %d attempts", mintAttempts)
}

// dispatch hands delivery off; failures are retried by ResendTicket, never rolled back
func (s *service) dispatch(ctx context.Context, bookingID uuid.UUID) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.DispatchTicket(ctx, bookingID); err != nil {
		s.log.Warn("Failed to dispatch ticket delivery",
			slog.String("booking_id", bookingID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// CancelBooking moves a RESERVED or PAID booking of the operator's event to
// CANCELLED and returns its seat to the ledger in one transaction.
func (s *service) CancelBooking(ctx context.Context, operatorID, bookingID uuid.UUID, reason string) error {
	if err := s.authorize(ctx, operatorID, bookingID); err != nil {
		return err
	}

	applied, err := s.cancel(ctx, bookingID, []State{StateReserved, StatePaid}, reason)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: booking changed concurrently", ErrIllegalTransition)
	}
	return nil
}

// cancel applies from -> CANCELLED and releases the seat. It reports false,
// releasing nothing, when the booking has left the from states.
func (s *service) cancel(ctx context.Context, bookingID uuid.UUID, from []State, reason string) (bool, error) {
	var (
		tierID  uuid.UUID
		applied bool
	)

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		booking, err := s.repo.GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if !booking.State.CanBeCancelled() {
			return fmt.Errorf("%w: booking is %s", ErrIllegalTransition, booking.State)
		}

		applied, err = s.repo.MarkCancelled(ctx, bookingID, from, reason, s.now())
		if err != nil || !applied {
			return err
		}

		tierID = booking.TierID
		return s.ledger.Release(ctx, booking.TierID, seatsPerBooking)
	})
	if err != nil || !applied {
		return false, err
	}

	metrics.RecordBooking("cancelled")
	s.log.LogBookingCancelled(ctx, bookingID.String(), tierID.String(), reason)
	return true, nil
}

func (s *service) GetBooking(ctx context.Context, operatorID, bookingID uuid.UUID) (*Booking, error) {
	if err := s.authorize(ctx, operatorID, bookingID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, bookingID)
}

// authorize checks that the operator owns the event of the booking
func (s *service) authorize(ctx context.Context, operatorID, bookingID uuid.UUID) error {
	owner, err := s.repo.EventOwner(ctx, bookingID)
	if err != nil {
		return err
	}
	if owner != operatorID {
		return ErrForbidden
	}
	return nil
}

// ResendTicket re-enqueues delivery of an issued ticket. It never mints.
func (s *service) ResendTicket(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.State != StateIssued {
		return fmt.Errorf("%w: booking is %s", ErrIllegalTransition, booking.State)
	}
	if s.dispatcher == nil {
		return errors.New("ticket delivery is not configured")
	}
	if err := s.dispatcher.DispatchTicket(ctx, bookingID); err != nil {
		return fmt.Errorf("failed to dispatch ticket: %w", err)
	}
	return nil
}

// ExpireReservations cancels RESERVED bookings older than ttl
func (s *service) ExpireReservations(ctx context.Context, ttl time.Duration) (int, error) {
	stale, err := s.repo.ListExpiredReservations(ctx, s.now().Add(-ttl), s.batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, b := range stale {
		applied, err := s.cancel(ctx, b.ID, []State{StateReserved}, reasonExpired)
		switch {
		case err == nil && applied:
			expired++
		case err == nil, errors.Is(err, ErrIllegalTransition):
			// Paid or cancelled since the scan
		default:
			s.log.ErrorWithContext(ctx, "Failed to expire reservation", err, map[string]interface{}{
				"booking_id": b.ID.String(),
			})
		}
	}
	return expired, nil
}

// ResumeStalled issues credentials for PAID bookings whose issuance was interrupted
func (s *service) ResumeStalled(ctx context.Context, olderThan time.Duration) (int, error) {
	stalled, err := s.repo.ListStalledPayments(ctx, s.now().Add(-olderThan), s.batchSize)
	if err != nil {
		return 0, err
	}

	resumed := 0
	for _, b := range stalled {
		if _, err := s.IssueCredential(ctx, b.ID); err != nil {
			s.log.ErrorWithContext(ctx, "Failed to resume issuance", err, map[string]interface{}{
				"booking_id": b.ID.String(),
			})
			continue
		}
		resumed++
	}
	return resumed, nil
}

// generateBookingReference generates a human-friendly booking reference
func generateBookingReference(now time.Time) (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	randomPart := make([]byte, 8)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("TP-%s-%s", now.Format("20060102"), string(randomPart)), nil
}
