package main

import (
	"context"
	"fmt"
	"log"
	"time"
	_ "time/tzdata"

	"ticketpoint/internal/events"
	"ticketpoint/internal/migrations"
	"ticketpoint/internal/shared/config"
	"ticketpoint/internal/shared/database"
	"ticketpoint/internal/shared/middleware"
	"ticketpoint/internal/tiers"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Seeder struct {
	db  *database.DB
	cfg *config.Config
}

func main() {
	fmt.Println("🌱 Starting TicketPoint Database Seeder...")

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := migrations.Migrate(db.PostgreSQL); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	seeder := &Seeder{db: db, cfg: cfg}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates the ticketing tables, dependents first
func (s *Seeder) CleanDatabase() error {
	tables := []string{"bookings", "tiers", "events"}

	return s.db.PostgreSQL.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			fmt.Printf("  Truncating table: %s\n", table)
			if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
				return fmt.Errorf("failed to truncate table %s: %w", table, err)
			}
		}
		return nil
	})
}

// SeedAll creates the events of one organizer and prints that organizer's token
func (s *Seeder) SeedAll() error {
	ctx := context.Background()
	organizerID := uuid.New()

	eventIDs, err := s.SeedEvents(ctx, organizerID)
	if err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	if err := s.SeedTiers(ctx, eventIDs); err != nil {
		return fmt.Errorf("failed to seed tiers: %w", err)
	}

	// Clear cached availability so the API serves the fresh counters
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	token, err := s.operatorToken(organizerID, middleware.RoleOrganizer)
	if err != nil {
		return err
	}
	fmt.Printf("\n  🔑 Organizer %s access token (24h):\n  %s\n", organizerID, token)

	return nil
}

// SeedEvents creates the published sample events
func (s *Seeder) SeedEvents(ctx context.Context, organizerID uuid.UUID) (map[string]uuid.UUID, error) {
	fmt.Println("  📅 Seeding events...")

	repo := events.NewRepository(s.db.PostgreSQL)
	eventIDs := make(map[string]uuid.UUID)

	eventsData := []struct {
		key   string
		event events.Event
	}{
		{"summit", events.Event{
			Title:       "Jakarta Tech Summit 2026",
			Description: "Two days of talks on cloud, data and product engineering.",
			StartsAt:    time.Date(2026, 11, 20, 9, 0, 0, 0, time.UTC),
			Timezone:    "Asia/Jakarta",
			Format:      events.FormatHybrid,
			VenueName:   "Jakarta Convention Center",
			Address:     "Jl. Gatot Subroto, Senayan, Jakarta 10270",
			Platform:    "Zoom",
			PlatformURL: "https://zoom.us/j/9876543210",
		}},
		{"workshop", events.Event{
			Title:       "Bali Data Workshop",
			Description: "Hands-on analytics engineering workshop.",
			StartsAt:    time.Date(2026, 12, 3, 1, 30, 0, 0, time.UTC),
			Timezone:    "Asia/Makassar",
			Format:      events.FormatOnsite,
			VenueName:   "Bali Nusa Dua Convention Center",
			Address:     "Kawasan Pariwisata Nusa Dua, Bali 80363",
		}},
		{"webinar", events.Event{
			Title:       "Payments in Southeast Asia",
			Description: "Online panel on QRIS, e-wallets and virtual accounts.",
			StartsAt:    time.Date(2026, 10, 28, 6, 0, 0, 0, time.UTC),
			Timezone:    "Asia/Jakarta",
			Format:      events.FormatOnline,
			Platform:    "Google Meet",
			PlatformURL: "https://meet.google.com/abc-defg-hij",
		}},
	}

	for _, data := range eventsData {
		event := data.event
		event.OwnerID = organizerID
		event.IsPublished = true

		if err := repo.Create(ctx, &event); err != nil {
			return nil, fmt.Errorf("failed to create event %s: %w", event.Title, err)
		}

		eventIDs[data.key] = event.ID
		fmt.Printf("    ✅ Created event: %s (%s)\n", event.Title, event.ID)
	}

	return eventIDs, nil
}

// SeedTiers creates priced seat categories for every seeded event
func (s *Seeder) SeedTiers(ctx context.Context, eventIDs map[string]uuid.UUID) error {
	fmt.Println("  🎫 Seeding tiers...")

	repo := tiers.NewRepository(s.db.PostgreSQL)

	tiersData := []struct {
		eventKey string
		name     string
		price    int64
		format   events.Format
		capacity int
		icon     string
	}{
		{"summit", "Early Bird", 350000, events.FormatOnsite, 100, "ticket"},
		{"summit", "Regular", 500000, events.FormatOnsite, 400, "ticket"},
		{"summit", "VIP", 1500000, events.FormatOnsite, 30, "crown"},
		{"summit", "Livestream", 150000, events.FormatOnline, 1000, "video"},
		{"workshop", "Participant", 750000, events.FormatOnsite, 40, "laptop"},
		{"webinar", "Free Pass", 0, events.FormatOnline, 500, "video"},
	}

	for _, data := range tiersData {
		tier := &tiers.Tier{
			EventID:   eventIDs[data.eventKey],
			Name:      data.name,
			Price:     decimal.NewFromInt(data.price),
			Currency:  "IDR",
			Format:    data.format,
			Icon:      data.icon,
			Capacity:  data.capacity,
			Remaining: data.capacity,
		}
		if err := repo.Create(ctx, tier); err != nil {
			return fmt.Errorf("failed to create tier %s: %w", data.name, err)
		}
		fmt.Printf("    ✅ Created tier: %s / %s (%d seats)\n", data.eventKey, tier.Name, tier.Capacity)
	}

	return nil
}

// operatorToken signs an access token the operator endpoints accept
func (s *Seeder) operatorToken(operatorID uuid.UUID, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": operatorID.String(),
		"role":    role,
		"type":    "access",
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign operator token: %w", err)
	}
	return signed, nil
}
