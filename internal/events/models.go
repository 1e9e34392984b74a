package events

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultTimezone is used when an event carries no or an unknown zone
const DefaultTimezone = "Asia/Jakarta"

// Event is the read model the ticketing core needs from the event directory.
// Tier edits consult IsPublished; check-in consults OwnerID.
type Event struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null;index"`
	Title       string     `json:"title" gorm:"not null;size:255"`
	Description string     `json:"description" gorm:"type:text"`
	StartsAt    time.Time  `json:"starts_at" gorm:"not null"`
	EndsAt      *time.Time `json:"ends_at"`
	Timezone    string     `json:"timezone" gorm:"size:64;not null;default:'Asia/Jakarta'"`
	Format      Format     `json:"format" gorm:"type:varchar(16);not null;default:'ONSITE'"`
	VenueName   string     `json:"venue_name" gorm:"size:255"`
	Address     string     `json:"address" gorm:"size:500"`
	Platform    string     `json:"platform" gorm:"size:100"`
	PlatformURL string     `json:"platform_url" gorm:"size:500"`
	IsPublished bool       `json:"is_published" gorm:"not null;default:false"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Event) TableName() string {
	return "events"
}

// BeforeCreate assigns the primary key
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Location resolves the event timezone, falling back to fallback and then
// to DefaultTimezone when the stored name is empty or unknown.
func (e *Event) Location(fallback string) *time.Location {
	for _, name := range []string{e.Timezone, fallback, DefaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}
