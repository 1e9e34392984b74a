package bookings

import "time"

type BookingResponse struct {
	ID          string     `json:"id"`
	BookingRef  string     `json:"booking_ref"`
	TierID      string     `json:"tier_id"`
	OrderID     string     `json:"order_id"`
	State       State      `json:"state"`
	Attendee    Attendee   `json:"attendee"`
	CheckedIn   bool       `json:"checked_in"`
	CheckinTime *time.Time `json:"checkin_time,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	IssuedAt    *time.Time `json:"issued_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (b *Booking) ToResponse() BookingResponse {
	return BookingResponse{
		ID:          b.ID.String(),
		BookingRef:  b.BookingRef,
		TierID:      b.TierID.String(),
		OrderID:     b.OrderID,
		State:       b.State,
		Attendee:    b.Attendee,
		CheckedIn:   b.CheckedIn,
		CheckinTime: b.CheckinTime,
		PaidAt:      b.PaidAt,
		IssuedAt:    b.IssuedAt,
		CancelledAt: b.CancelledAt,
		DeliveredAt: b.DeliveredAt,
		CreatedAt:   b.CreatedAt,
	}
}
