package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketpoint/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	errDuplicateCredential = errors.New("credential already in use")

	// errDuplicateBooking is any unique violation on insert: the order id or
	// the generated booking reference
	errDuplicateBooking = errors.New("booking violates a unique key")
)

// Repository persists bookings. State transitions are compare-and-set updates
// that report whether this caller applied them.
type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByOrderID(ctx context.Context, orderID string) (*Booking, error)

	MarkPaid(ctx context.Context, id uuid.UUID, n PaymentNotification, paidAt time.Time) (bool, error)
	MarkIssued(ctx context.Context, id uuid.UUID, credential string, issuedAt time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, from []State, reason string, cancelledAt time.Time) (bool, error)
	EventOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	RecordDelivery(ctx context.Context, id uuid.UUID, ticketURL string, deliveryErr error, at time.Time) error

	ListExpiredReservations(ctx context.Context, createdBefore time.Time, limit int) ([]Booking, error)
	ListStalledPayments(ctx context.Context, paidBefore time.Time, limit int) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	if err := database.Conn(ctx, r.db).Create(booking).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return errDuplicateBooking
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetByOrderID(ctx context.Context, orderID string) (*Booking, error) {
	var booking Booking
	err := database.Conn(ctx, r.db).Where("order_id = ?", orderID).First(&booking).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return &booking, nil
}

// MarkPaid applies RESERVED -> PAID once
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, n PaymentNotification, paidAt time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&Booking{}).
		Where("id = ? AND state = ?", id, StateReserved).
		Updates(map[string]interface{}{
			"state":              StatePaid,
			"payment_type":       n.PaymentType,
			"transaction_status": n.TransactionStatus,
			"fraud_status":       n.FraudStatus,
			"transaction_time":   n.TransactionTime,
			"paid_at":            paidAt,
			"updated_at":         paidAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark booking paid: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// MarkIssued applies PAID -> ISSUED once, storing the credential
func (r *repository) MarkIssued(ctx context.Context, id uuid.UUID, credential string, issuedAt time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&Booking{}).
		Where("id = ? AND state = ? AND credential IS NULL", id, StatePaid).
		Updates(map[string]interface{}{
			"state":      StateIssued,
			"credential": credential,
			"issued_at":  issuedAt,
			"updated_at": issuedAt,
		})
	if result.Error != nil {
		if database.IsDuplicateKey(result.Error) {
			return false, errDuplicateCredential
		}
		return false, fmt.Errorf("failed to issue credential: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// MarkCancelled applies from -> CANCELLED once. It reports false when the
// booking is no longer in one of the from states.
func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, from []State, reason string, cancelledAt time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	result := database.Conn(ctx, r.db).Model(&Booking{}).
		Where("id = ? AND state IN ?", id, from).
		Updates(map[string]interface{}{
			"state":         StateCancelled,
			"cancel_reason": reason,
			"cancelled_at":  cancelledAt,
			"updated_at":    cancelledAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel booking: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// EventOwner resolves the operator who owns the event a booking belongs to
func (r *repository) EventOwner(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var row struct {
		OwnerID uuid.UUID
	}
	err := database.Conn(ctx, r.db).Table("bookings").
		Select("events.owner_id").
		Joins("JOIN tiers ON tiers.id = bookings.tier_id").
		Joins("JOIN events ON events.id = tiers.event_id").
		Where("bookings.id = ?", id).
		Take(&row).Error
	if err != nil {
		if database.IsNotFound(err) {
			return uuid.Nil, ErrBookingNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve booking owner: %w", err)
	}
	return row.OwnerID, nil
}

// RecordDelivery stores the outcome of one delivery attempt
func (r *repository) RecordDelivery(ctx context.Context, id uuid.UUID, ticketURL string, deliveryErr error, at time.Time) error {
	fields := map[string]interface{}{
		"delivery_attempts": gorm.Expr("delivery_attempts + 1"),
	}
	if ticketURL != "" {
		fields["ticket_url"] = ticketURL
	}
	if deliveryErr != nil {
		fields["last_delivery_error"] = deliveryErr.Error()
	} else {
		fields["last_delivery_error"] = ""
		fields["delivered_at"] = at
	}

	result := database.Conn(ctx, r.db).Model(&Booking{}).
		Where("id = ?", id).
		UpdateColumns(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to record delivery: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func (r *repository) ListExpiredReservations(ctx context.Context, createdBefore time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := database.Conn(ctx, r.db).
		Where("state = ? AND created_at < ?", StateReserved, createdBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired reservations: %w", err)
	}
	return bookings, nil
}

func (r *repository) ListStalledPayments(ctx context.Context, paidBefore time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := database.Conn(ctx, r.db).
		Where("state = ? AND credential IS NULL AND updated_at < ?", StatePaid, paidBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stalled payments: %w", err)
	}
	return bookings, nil
}
