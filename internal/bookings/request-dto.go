package bookings

import (
	"time"

	"github.com/google/uuid"
)

// gateway timestamps arrive in local wall time without a zone
const gatewayTimeLayout = "2006-01-02 15:04:05"

type CreateBookingRequest struct {
	TierID       string `json:"tier_id" binding:"required,uuid"`
	OrderID      string `json:"order_id" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	FirstName    string `json:"first_name" binding:"required,max=100"`
	LastName     string `json:"last_name" binding:"required,max=100"`
	Phone        string `json:"phone" binding:"omitempty,max=32"`
	Organization string `json:"organization" binding:"omitempty,max=255"`
	Position     string `json:"position" binding:"omitempty,max=255"`
}

func (r CreateBookingRequest) ToInput() CreateBookingInput {
	return CreateBookingInput{
		TierID:  uuid.MustParse(r.TierID),
		OrderID: r.OrderID,
		Attendee: Attendee{
			Email:        r.Email,
			FirstName:    r.FirstName,
			LastName:     r.LastName,
			Phone:        r.Phone,
			Organization: r.Organization,
			Position:     r.Position,
		},
	}
}

type PaymentNotificationRequest struct {
	OrderID           string `json:"order_id" binding:"required"`
	PaymentType       string `json:"payment_type"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	FraudStatus       string `json:"fraud_status"`
	TransactionTime   string `json:"transaction_time"`
}

func (r PaymentNotificationRequest) ToNotification(loc *time.Location) PaymentNotification {
	n := PaymentNotification{
		OrderID:           r.OrderID,
		PaymentType:       r.PaymentType,
		TransactionStatus: r.TransactionStatus,
		FraudStatus:       r.FraudStatus,
	}
	if t, err := time.ParseInLocation(gatewayTimeLayout, r.TransactionTime, loc); err == nil {
		utc := t.UTC()
		n.TransactionTime = &utc
	}
	return n
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=255"`
}
