package tiers

import (
	"context"
	"fmt"
	"time"

	"ticketpoint/internal/events"
	"ticketpoint/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Every mutation below is a single conditional UPDATE/DELETE. A false result
// means the guard did not match; callers classify why by re-reading the row.
type Repository interface {
	Create(ctx context.Context, tier *Tier) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tier, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Tier, error)
	ExistsByNameFormat(ctx context.Context, eventID uuid.UUID, name string, format events.Format, excludeID uuid.UUID) (bool, error)

	DecrementRemaining(ctx context.Context, id uuid.UUID, n int) (bool, error)
	IncrementRemaining(ctx context.Context, id uuid.UUID, n int) (bool, error)
	ResizeCapacity(ctx context.Context, id uuid.UUID, newCapacity int) (bool, error)
	LowerRemaining(ctx context.Context, id uuid.UUID, newRemaining int) (bool, error)
	UpdateContent(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error)
	DeleteUnreferenced(ctx context.Context, id uuid.UUID) (bool, error)
}

const (
	eventUnpublished = "NOT EXISTS (SELECT 1 FROM events WHERE events.id = tiers.event_id AND events.is_published = ?)"
	tierUnreferenced = "NOT EXISTS (SELECT 1 FROM bookings WHERE bookings.tier_id = tiers.id)"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tier *Tier) error {
	if err := database.Conn(ctx, r.db).Create(tier).Error; err != nil {
		return fmt.Errorf("failed to create tier: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Tier, error) {
	var tier Tier
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&tier).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrTierNotFound
		}
		return nil, fmt.Errorf("failed to load tier: %w", err)
	}
	return &tier, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]Tier, error) {
	var tiers []Tier
	err := database.Conn(ctx, r.db).
		Where("event_id = ?", eventID).
		Order("price ASC, name ASC").
		Find(&tiers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tiers: %w", err)
	}
	return tiers, nil
}

func (r *repository) ExistsByNameFormat(ctx context.Context, eventID uuid.UUID, name string, format events.Format, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := database.Conn(ctx, r.db).Model(&Tier{}).
		Where("event_id = ? AND LOWER(name) = LOWER(?) AND format = ?", eventID, name, format)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check tier uniqueness: %w", err)
	}
	return count > 0, nil
}

// DecrementRemaining takes n seats when at least n remain
func (r *repository) DecrementRemaining(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&Tier{}).
		Where("id = ? AND remaining >= ?", id, n).
		Updates(map[string]interface{}{
			"remaining":  gorm.Expr("remaining - ?", n),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reserve seats: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IncrementRemaining returns n seats without exceeding capacity
func (r *repository) IncrementRemaining(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&Tier{}).
		Where("id = ? AND remaining + ? <= capacity", id, n).
		Updates(map[string]interface{}{
			"remaining":  gorm.Expr("remaining + ?", n),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to release seats: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ResizeCapacity moves capacity and remaining by the same delta so committed
// seats are preserved. Both SET expressions read the pre-update row.
func (r *repository) ResizeCapacity(ctx context.Context, id uuid.UUID, newCapacity int) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&Tier{}).
		Where("id = ? AND capacity - remaining <= ?", id, newCapacity).
		Where(eventUnpublished, true).
		Updates(map[string]interface{}{
			"remaining":  gorm.Expr("remaining + (? - capacity)", newCapacity),
			"capacity":   newCapacity,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to resize tier: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// LowerRemaining withholds seats: remaining may only go down
func (r *repository) LowerRemaining(ctx context.Context, id uuid.UUID, newRemaining int) (bool, error) {
	result := database.Conn(ctx, r.db).Model(&Tier{}).
		Where("id = ? AND remaining >= ?", id, newRemaining).
		Updates(map[string]interface{}{
			"remaining":  newRemaining,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to adjust remaining seats: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) UpdateContent(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	fields["updated_at"] = time.Now().UTC()
	result := database.Conn(ctx, r.db).Model(&Tier{}).
		Where("id = ?", id).
		Where(eventUnpublished, true).
		Updates(fields)
	if result.Error != nil {
		if database.IsDuplicateKey(result.Error) {
			return false, ErrDuplicateTier
		}
		return false, fmt.Errorf("failed to update tier: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) DeleteUnreferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	result := database.Conn(ctx, r.db).
		Where("id = ?", id).
		Where(eventUnpublished, true).
		Where(tierUnreferenced).
		Delete(&Tier{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete tier: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
