package tiers

import "errors"

var (
	ErrTierNotFound           = errors.New("tier not found")
	ErrCapacityExceeded       = errors.New("not enough seats remaining in tier")
	ErrCapacityBelowCommitted = errors.New("capacity cannot go below committed seats")
	ErrEventPublished         = errors.New("event is already published")
	ErrInvariantViolation     = errors.New("release would exceed tier capacity")
	ErrInvalidCount           = errors.New("seat count must be at least 1")
	ErrInvalidCommand         = errors.New("invalid tier command")
	ErrDuplicateTier          = errors.New("tier with this name and format already exists")
	ErrTierInUse              = errors.New("tier is referenced by bookings")
	ErrForbidden              = errors.New("only the event owner can manage its tiers")
)
