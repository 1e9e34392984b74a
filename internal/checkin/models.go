package checkin

import (
	"time"

	"ticketpoint/internal/bookings"

	"github.com/google/uuid"
)

// TicketView is a booking joined with its tier and event, as seen at the door
type TicketView struct {
	BookingID    uuid.UUID
	BookingRef   string
	State        bookings.State
	Credential   *string
	CheckedIn    bool
	CheckinTime  *time.Time
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Organization string
	Position     string
	TierID       uuid.UUID
	TierName     string
	EventID      uuid.UUID
	EventTitle   string
	OwnerID      uuid.UUID
}

// Result is a successful check-in
type Result struct {
	BookingID   uuid.UUID `json:"booking_id"`
	CheckedIn   bool      `json:"checked_in"`
	CheckinTime time.Time `json:"checkin_time"`
}

type TierSummary struct {
	Name string `json:"name"`
}

// AttendeeResponse is the attendee printed on a scanner screen
type AttendeeResponse struct {
	BookingID    uuid.UUID   `json:"booking_id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Organization string      `json:"organization,omitempty"`
	Position     string      `json:"position,omitempty"`
	CheckedIn    bool        `json:"checked_in"`
	CheckinTime  *time.Time  `json:"checkin_time,omitempty"`
	Tier         TierSummary `json:"tier" copier:"-"`
}

type AttendancesResponse struct {
	EventID     uuid.UUID          `json:"event_id"`
	Total       int                `json:"total"`
	CheckedIn   int                `json:"checked_in"`
	Attendances []AttendeeResponse `json:"attendances"`
}

// ValidateTicketRequest is the body of a door scan
type ValidateTicketRequest struct {
	Credential string `json:"credential" binding:"required,max=64"`
}
