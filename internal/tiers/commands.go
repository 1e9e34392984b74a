package tiers

import (
	"fmt"
	"strings"

	"ticketpoint/internal/events"

	"github.com/shopspring/decimal"
)

// TierCommand is one kind of tier edit. Each variant carries only the fields
// it is allowed to change and validates them before touching storage.
type TierCommand interface {
	Validate() error
	isTierCommand()
}

// CapacityEdit resizes a tier of an unpublished event
type CapacityEdit struct {
	Capacity int
}

// ContentEdit changes descriptive fields of a tier of an unpublished event.
// Nil fields are left untouched.
type ContentEdit struct {
	Name      *string
	Price     *decimal.Decimal
	Currency  *string
	Format    *events.Format
	Icon      *string
	IconColor *string
}

// RemainingEdit withholds seats. It may only lower remaining.
type RemainingEdit struct {
	Remaining int
}

func (CapacityEdit) isTierCommand()  {}
func (ContentEdit) isTierCommand()   {}
func (RemainingEdit) isTierCommand() {}

func (c CapacityEdit) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidCommand)
	}
	return nil
}

func (c ContentEdit) Validate() error {
	if c.Name == nil && c.Price == nil && c.Currency == nil &&
		c.Format == nil && c.Icon == nil && c.IconColor == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidCommand)
	}
	if c.Name != nil && strings.TrimSpace(*c.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidCommand)
	}
	if c.Price != nil && c.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidCommand)
	}
	if c.Currency != nil && len(*c.Currency) != 3 {
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrInvalidCommand)
	}
	if c.Format != nil && !c.Format.IsValid() {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidCommand, *c.Format)
	}
	return nil
}

func (c RemainingEdit) Validate() error {
	if c.Remaining < 0 {
		return fmt.Errorf("%w: remaining cannot be negative", ErrInvalidCommand)
	}
	return nil
}

// updates turns the edit into a column map
func (c ContentEdit) updates() map[string]interface{} {
	fields := map[string]interface{}{}
	if c.Name != nil {
		fields["name"] = strings.TrimSpace(*c.Name)
	}
	if c.Price != nil {
		fields["price"] = *c.Price
	}
	if c.Currency != nil {
		fields["currency"] = strings.ToUpper(*c.Currency)
	}
	if c.Format != nil {
		fields["format"] = *c.Format
	}
	if c.Icon != nil {
		fields["icon"] = *c.Icon
	}
	if c.IconColor != nil {
		fields["icon_color"] = *c.IconColor
	}
	return fields
}

func (in CreateTierInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCommand)
	}
	if in.Capacity < 1 {
		return fmt.Errorf("%w: capacity must be at least 1", ErrInvalidCommand)
	}
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", ErrInvalidCommand)
	}
	if !in.Format.IsValid() {
		return fmt.Errorf("%w: unknown format %q", ErrInvalidCommand, in.Format)
	}
	if in.Currency != "" && len(in.Currency) != 3 {
		return fmt.Errorf("%w: currency must be an ISO 4217 code", ErrInvalidCommand)
	}
	return nil
}
