package tiers

import (
	"time"

	"ticketpoint/internal/events"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Tier is a priced ticket category of an event with its own seat counter.
// Remaining only moves through the ledger's conditional updates.
type Tier struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	EventID   uuid.UUID       `json:"event_id" gorm:"type:uuid;not null;index"`
	Name      string          `json:"name" gorm:"not null;size:100"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	Currency  string          `json:"currency" gorm:"size:3;not null;default:'IDR'"`
	Format    events.Format   `json:"format" gorm:"type:varchar(16);not null"`
	Icon      string          `json:"icon" gorm:"size:64"`
	IconColor string          `json:"icon_color" gorm:"size:32"`
	Capacity  int             `json:"capacity" gorm:"not null;check:capacity >= 0"`
	Remaining int             `json:"remaining" gorm:"not null;check:remaining >= 0 AND remaining <= capacity"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Tier) TableName() string {
	return "tiers"
}

// BeforeCreate assigns the primary key
func (t *Tier) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Committed is the number of seats held by reservations, payments and tickets
func (t *Tier) Committed() int {
	return t.Capacity - t.Remaining
}

// ReservationToken is returned by a successful Reserve
type ReservationToken struct {
	ID         uuid.UUID `json:"id"`
	TierID     uuid.UUID `json:"tier_id"`
	Count      int       `json:"count"`
	ReservedAt time.Time `json:"reserved_at"`
}

// CreateTierInput describes a new tier
type CreateTierInput struct {
	Name      string
	Price     decimal.Decimal
	Currency  string
	Format    events.Format
	Icon      string
	IconColor string
	Capacity  int
}

// TierResponse is the public availability view of a tier
type TierResponse struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Format    events.Format   `json:"format"`
	Icon      string          `json:"icon"`
	IconColor string          `json:"icon_color"`
	Capacity  int             `json:"capacity"`
	Remaining int             `json:"remaining"`
	SoldOut   bool            `json:"sold_out"`
}

func (t *Tier) ToResponse() TierResponse {
	return TierResponse{
		ID:        t.ID.String(),
		EventID:   t.EventID.String(),
		Name:      t.Name,
		Price:     t.Price,
		Currency:  t.Currency,
		Format:    t.Format,
		Icon:      t.Icon,
		IconColor: t.IconColor,
		Capacity:  t.Capacity,
		Remaining: t.Remaining,
		SoldOut:   t.Remaining == 0,
	}
}
