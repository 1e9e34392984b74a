package notifications

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueFull   = errors.New("delivery queue is full")
	ErrPoolStopped = errors.New("delivery pool is stopped")
	ErrNoRecipient = errors.New("booking has no recipient address")
)

type DeliveryStatus string

const (
	DeliveryStatusQueued  DeliveryStatus = "QUEUED"
	DeliveryStatusSent    DeliveryStatus = "SENT"
	DeliveryStatusFailed  DeliveryStatus = "FAILED"
	DeliveryStatusSkipped DeliveryStatus = "SKIPPED"
)

// DeliveryTask asks a worker to render and mail the ticket of one issued booking.
// It carries no ticket data; workers re-read the booking so a replayed task
// always renders the stored credential.
type DeliveryTask struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

func NewDeliveryTask(bookingID uuid.UUID) DeliveryTask {
	return DeliveryTask{
		ID:         uuid.New(),
		BookingID:  bookingID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// PartitionKey routes every task of a booking to the same partition
func (t DeliveryTask) PartitionKey() string {
	return t.BookingID.String()
}

func (t DeliveryTask) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

func DecodeDeliveryTask(data []byte) (DeliveryTask, error) {
	var task DeliveryTask
	if err := json.Unmarshal(data, &task); err != nil {
		return DeliveryTask{}, err
	}
	if task.BookingID == uuid.Nil {
		return DeliveryTask{}, errors.New("delivery task has no booking id")
	}
	return task, nil
}

// Attachment is a file sent along with a mail
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// MailMessage is one outgoing mail
type MailMessage struct {
	To          string
	ToName      string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// SendResult describes an accepted mail
type SendResult struct {
	MessageID string
	SentAt    time.Time
}
