package checkin

import (
	"context"
	"fmt"
	"time"

	"ticketpoint/internal/bookings"
	"ticketpoint/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*TicketView, error)
	FindByCredential(ctx context.Context, credential string) (*TicketView, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketView, error)
	MarkCheckedIn(ctx context.Context, bookingID uuid.UUID, at time.Time) (bool, error)
}

const ticketColumns = `bookings.id AS booking_id, bookings.booking_ref, bookings.state, bookings.credential,
	bookings.checked_in, bookings.checkin_time, bookings.email, bookings.first_name, bookings.last_name,
	bookings.phone, bookings.organization, bookings.position,
	tiers.id AS tier_id, tiers.name AS tier_name,
	events.id AS event_id, events.title AS event_title, events.owner_id`

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) tickets(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db).
		Table("bookings").
		Select(ticketColumns).
		Joins("JOIN tiers ON tiers.id = bookings.tier_id").
		Joins("JOIN events ON events.id = tiers.event_id")
}

func (r *repository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*TicketView, error) {
	var view TicketView
	if err := r.tickets(ctx).Where("bookings.id = ?", bookingID).Take(&view).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	return &view, nil
}

func (r *repository) FindByCredential(ctx context.Context, credential string) (*TicketView, error) {
	var view TicketView
	if err := r.tickets(ctx).Where("bookings.credential = ?", credential).Take(&view).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	return &view, nil
}

// ListByEvent returns the issued tickets of an event
func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketView, error) {
	var views []TicketView
	err := r.tickets(ctx).
		Where("events.id = ? AND bookings.state = ?", eventID, bookings.StateIssued).
		Order("bookings.last_name ASC, bookings.first_name ASC").
		Scan(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	return views, nil
}

// MarkCheckedIn flips checked_in once. It never touches state.
func (r *repository) MarkCheckedIn(ctx context.Context, bookingID uuid.UUID, at time.Time) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&bookings.Booking{}).
		Where("id = ? AND checked_in = ? AND state = ?", bookingID, false, bookings.StateIssued).
		Updates(map[string]interface{}{
			"checked_in":   true,
			"checkin_time": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to check in ticket: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
