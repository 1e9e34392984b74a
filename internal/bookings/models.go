package bookings

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendee is the person the ticket is issued to
type Attendee struct {
	Email        string `json:"email" gorm:"size:255;not null"`
	FirstName    string `json:"first_name" gorm:"size:100;not null"`
	LastName     string `json:"last_name" gorm:"size:100;not null"`
	Phone        string `json:"phone" gorm:"size:32"`
	Organization string `json:"organization" gorm:"size:255"`
	Position     string `json:"position" gorm:"size:255"`
}

func (a Attendee) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

func (a Attendee) Validate() error {
	if strings.TrimSpace(a.FirstName) == "" || strings.TrimSpace(a.LastName) == "" {
		return ErrInvalidAttendee
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return ErrInvalidAttendee
	}
	return nil
}

// Booking is one attendee's claim on one seat of a tier.
// Credential is set exactly when State is ISSUED.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BookingRef string    `gorm:"size:32;uniqueIndex;not null" json:"booking_ref"`
	TierID     uuid.UUID `gorm:"type:uuid;index;not null" json:"tier_id"`
	OrderID    string    `gorm:"size:100;uniqueIndex;not null" json:"order_id"`
	Attendee   Attendee  `gorm:"embedded" json:"attendee"`
	State      State     `gorm:"type:varchar(16);index;not null;default:'RESERVED'" json:"state"`

	Credential  *string    `gorm:"size:64;uniqueIndex" json:"-"`
	IssuedAt    *time.Time `json:"issued_at,omitempty"`
	CheckedIn   bool       `gorm:"not null;default:false" json:"checked_in"`
	CheckinTime *time.Time `json:"checkin_time,omitempty"`

	// Payment marker fields from the gateway notification
	PaymentType       string     `gorm:"size:50" json:"payment_type,omitempty"`
	TransactionStatus string     `gorm:"size:50" json:"transaction_status,omitempty"`
	FraudStatus       string     `gorm:"size:50" json:"fraud_status,omitempty"`
	TransactionTime   *time.Time `json:"transaction_time,omitempty"`
	PaidAt            *time.Time `json:"paid_at,omitempty"`

	CancelReason string     `gorm:"size:255" json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`

	// Delivery bookkeeping, never consulted for state
	DeliveryAttempts  int        `gorm:"not null;default:0" json:"delivery_attempts"`
	DeliveredAt       *time.Time `json:"delivered_at,omitempty"`
	LastDeliveryError string     `gorm:"type:text" json:"-"`
	TicketURL         string     `gorm:"size:500" json:"ticket_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// BeforeCreate assigns the primary key
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// PaymentNotification is the gateway webhook payload
type PaymentNotification struct {
	OrderID           string
	PaymentType       string
	TransactionStatus string
	FraudStatus       string
	TransactionTime   *time.Time
}

// Accepted reports whether the gateway settled the payment
func (n PaymentNotification) Accepted() bool {
	if n.FraudStatus != "accept" {
		return false
	}
	return n.TransactionStatus == "settlement" || n.TransactionStatus == "capture"
}

// PaymentResult is what the webhook reports back to the gateway
type PaymentResult struct {
	BookingID uuid.UUID `json:"booking_id"`
	State     State     `json:"state"`
	Duplicate bool      `json:"duplicate"`
}

// CreateBookingInput describes a new reservation
type CreateBookingInput struct {
	TierID   uuid.UUID
	OrderID  string
	Attendee Attendee
}
