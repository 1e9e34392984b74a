package events

import (
	"context"
	"errors"
	"fmt"

	"ticketpoint/internal/shared/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrEventNotFound = errors.New("event not found")

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	if !event.Format.IsValid() {
		return fmt.Errorf("invalid event format %q", event.Format)
	}
	return database.Conn(ctx, r.db).Create(event).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := database.Conn(ctx, r.db).Where("id = ?", id).First(&event).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	return &event, nil
}

func (r *repository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	result := database.Conn(ctx, r.db).Model(&Event{}).
		Where("id = ?", id).
		Update("is_published", published)
	if result.Error != nil {
		return fmt.Errorf("failed to update event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrEventNotFound
	}
	return nil
}
