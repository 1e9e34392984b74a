package bookings

// State is the booking lifecycle position.
// RESERVED -> PAID -> ISSUED, and RESERVED/PAID -> CANCELLED.
type State string

const (
	StateReserved  State = "RESERVED"
	StatePaid      State = "PAID"
	StateIssued    State = "ISSUED"
	StateCancelled State = "CANCELLED"
)

// IsValid checks if the booking state is valid
func (s State) IsValid() bool {
	switch s {
	case StateReserved, StatePaid, StateIssued, StateCancelled:
		return true
	}
	return false
}

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// CanBeCancelled checks if a booking in this state still holds a seat that can be released
func (s State) CanBeCancelled() bool {
	return s == StateReserved || s == StatePaid
}

// IsPaid reports whether payment has been applied
func (s State) IsPaid() bool {
	return s == StatePaid || s == StateIssued
}

// IsTerminal reports whether no further transition is possible
func (s State) IsTerminal() bool {
	return s == StateIssued || s == StateCancelled
}
