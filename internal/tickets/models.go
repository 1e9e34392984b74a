package tickets

import (
	"time"

	"github.com/google/uuid"
)

// EventDetails is the event data printed on a ticket
type EventDetails struct {
	Title       string
	StartsAt    time.Time
	Location    *time.Location
	Online      bool
	Onsite      bool
	VenueName   string
	Address     string
	Platform    string
	PlatformURL string
}

// ArtifactInput is everything a ticket document is rendered from
type ArtifactInput struct {
	BookingID    uuid.UUID
	BookingRef   string
	Credential   string
	AttendeeName string
	TierName     string
	Event        EventDetails
}

// Document is a rendered printable ticket
type Document struct {
	FileName    string
	ContentType string
	PDF         []byte
	QRCode      []byte
}
