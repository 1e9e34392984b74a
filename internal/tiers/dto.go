package tiers

import (
	"fmt"

	"ticketpoint/internal/events"

	"github.com/shopspring/decimal"
)

type CreateTierRequest struct {
	Name      string          `json:"name" binding:"required,min=1,max=100"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency" binding:"omitempty,len=3"`
	Format    events.Format   `json:"format" binding:"required,oneof=ONLINE ONSITE HYBRID"`
	Icon      string          `json:"icon" binding:"max=64"`
	IconColor string          `json:"icon_color" binding:"max=32"`
	Capacity  int             `json:"capacity" binding:"required,min=1,max=1000000"`
}

func (r CreateTierRequest) ToInput() CreateTierInput {
	return CreateTierInput{
		Name:      r.Name,
		Price:     r.Price,
		Currency:  r.Currency,
		Format:    r.Format,
		Icon:      r.Icon,
		IconColor: r.IconColor,
		Capacity:  r.Capacity,
	}
}

// UpdateTierRequest is the wire form of a TierCommand. Type selects the
// variant and only that variant's fields are read.
type UpdateTierRequest struct {
	Type string `json:"type" binding:"required,oneof=capacity content remaining"`

	Capacity  *int `json:"capacity" binding:"omitempty,min=1"`
	Remaining *int `json:"remaining" binding:"omitempty,min=0"`

	Name      *string          `json:"name" binding:"omitempty,min=1,max=100"`
	Price     *decimal.Decimal `json:"price"`
	Currency  *string          `json:"currency" binding:"omitempty,len=3"`
	Format    *events.Format   `json:"format" binding:"omitempty,oneof=ONLINE ONSITE HYBRID"`
	Icon      *string          `json:"icon" binding:"omitempty,max=64"`
	IconColor *string          `json:"icon_color" binding:"omitempty,max=32"`
}

func (r UpdateTierRequest) ToCommand() (TierCommand, error) {
	switch r.Type {
	case "capacity":
		if r.Capacity == nil {
			return nil, fmt.Errorf("%w: capacity is required", ErrInvalidCommand)
		}
		return CapacityEdit{Capacity: *r.Capacity}, nil
	case "remaining":
		if r.Remaining == nil {
			return nil, fmt.Errorf("%w: remaining is required", ErrInvalidCommand)
		}
		return RemainingEdit{Remaining: *r.Remaining}, nil
	case "content":
		return ContentEdit{
			Name:      r.Name,
			Price:     r.Price,
			Currency:  r.Currency,
			Format:    r.Format,
			Icon:      r.Icon,
			IconColor: r.IconColor,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidCommand, r.Type)
}
