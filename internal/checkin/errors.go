package checkin

import "errors"

var (
	ErrNotFound           = errors.New("ticket not found")
	ErrForbidden          = errors.New("operator does not manage this event")
	ErrCredentialMismatch = errors.New("invalid ticket credentials")
	ErrAlreadyCheckedIn   = errors.New("ticket already checked in")
	ErrEventNotFound      = errors.New("event not found")
)
