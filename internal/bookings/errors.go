package bookings

import (
	"errors"

	"ticketpoint/internal/tiers"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrDuplicateOrder    = errors.New("a booking already exists for this order")
	ErrIllegalTransition = errors.New("booking cannot make this transition")
	ErrPaymentRejected   = errors.New("payment was not accepted by the gateway")
	ErrInvalidAttendee   = errors.New("attendee details are incomplete")
	ErrForbidden         = errors.New("operator does not manage this event")

	// Ledger errors surface unchanged through the workflow
	ErrCapacityExceeded = tiers.ErrCapacityExceeded
	ErrTierNotFound     = tiers.ErrTierNotFound
)
