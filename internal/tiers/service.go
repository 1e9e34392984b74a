package tiers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ticketpoint/internal/events"
	"ticketpoint/internal/shared/constants"
	"ticketpoint/pkg/cache"
	"ticketpoint/pkg/logger"

	"github.com/google/uuid"
)

// Ledger is the seat counter used by the booking workflow
type Ledger interface {
	Reserve(ctx context.Context, tierID uuid.UUID, count int) (*ReservationToken, error)
	Release(ctx context.Context, tierID uuid.UUID, count int) error
	SetCapacity(ctx context.Context, tierID uuid.UUID, newCapacity int) error
}

type Service interface {
	Ledger

	CreateTier(ctx context.Context, operatorID, eventID uuid.UUID, input CreateTierInput) (*Tier, error)
	Apply(ctx context.Context, operatorID, tierID uuid.UUID, cmd TierCommand) (*Tier, error)
	DeleteTier(ctx context.Context, operatorID, tierID uuid.UUID) error
	GetTier(ctx context.Context, tierID uuid.UUID) (*Tier, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TierResponse, error)
}

// EventLookup is the part of the event directory the ledger needs
type EventLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// resizeAttempts bounds the retry when a concurrent reserve/release moves the
// row between a failed conditional update and its classification
const resizeAttempts = 3

type service struct {
	repo   Repository
	events EventLookup
	cache  cache.Service
	log    *logger.Logger
}

// NewService creates the ledger. cacheService may be nil.
func NewService(repo Repository, eventLookup EventLookup, cacheService cache.Service, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		events: eventLookup,
		cache:  cacheService,
		log:    log,
	}
}

func (s *service) Reserve(ctx context.Context, tierID uuid.UUID, count int) (*ReservationToken, error) {
	if count < 1 {
		return nil, ErrInvalidCount
	}

	ok, err := s.repo.DecrementRemaining(ctx, tierID, count)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.repo.GetByID(ctx, tierID); err != nil {
			return nil, err
		}
		return nil, ErrCapacityExceeded
	}

	s.invalidate(ctx, tierID)

	return &ReservationToken{
		ID:         uuid.New(),
		TierID:     tierID,
		Count:      count,
		ReservedAt: time.Now().UTC(),
	}, nil
}

func (s *service) Release(ctx context.Context, tierID uuid.UUID, count int) error {
	if count < 1 {
		return ErrInvalidCount
	}

	ok, err := s.repo.IncrementRemaining(ctx, tierID, count)
	if err != nil {
		return err
	}
	if !ok {
		tier, err := s.repo.GetByID(ctx, tierID)
		if err != nil {
			return err
		}
		s.log.Error("Release would exceed capacity",
			slog.String("tier_id", tierID.String()),
			slog.Int("count", count),
			slog.Int("remaining", tier.Remaining),
			slog.Int("capacity", tier.Capacity),
		)
		return ErrInvariantViolation
	}

	s.invalidate(ctx, tierID)
	return nil
}

func (s *service) SetCapacity(ctx context.Context, tierID uuid.UUID, newCapacity int) error {
	if err := (CapacityEdit{Capacity: newCapacity}).Validate(); err != nil {
		return err
	}

	for attempt := 0; attempt < resizeAttempts; attempt++ {
		ok, err := s.repo.ResizeCapacity(ctx, tierID, newCapacity)
		if err != nil {
			return err
		}
		if ok {
			s.invalidate(ctx, tierID)
			return nil
		}

		tier, event, err := s.load(ctx, tierID)
		if err != nil {
			return err
		}
		if event.IsPublished {
			return ErrEventPublished
		}
		if newCapacity < tier.Committed() {
			return fmt.Errorf("%w: %d seats are committed", ErrCapacityBelowCommitted, tier.Committed())
		}
	}

	return fmt.Errorf("tier %s changed concurrently, retry", tierID)
}

func (s *service) CreateTier(ctx context.Context, operatorID, eventID uuid.UUID, input CreateTierInput) (*Tier, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != operatorID {
		return nil, ErrForbidden
	}
	if event.IsPublished {
		return nil, ErrEventPublished
	}

	name := strings.TrimSpace(input.Name)
	exists, err := s.repo.ExistsByNameFormat(ctx, eventID, name, input.Format, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateTier
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = "IDR"
	}

	tier := &Tier{
		EventID:   eventID,
		Name:      name,
		Price:     input.Price,
		Currency:  currency,
		Format:    input.Format,
		Icon:      input.Icon,
		IconColor: input.IconColor,
		Capacity:  input.Capacity,
		Remaining: input.Capacity,
	}
	if err := s.repo.Create(ctx, tier); err != nil {
		return nil, err
	}

	s.invalidateEvent(ctx, eventID)
	return tier, nil
}

// Apply dispatches a tagged tier command
func (s *service) Apply(ctx context.Context, operatorID, tierID uuid.UUID, cmd TierCommand) (*Tier, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tier, event, err := s.load(ctx, tierID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID != operatorID {
		return nil, ErrForbidden
	}

	switch c := cmd.(type) {
	case CapacityEdit:
		err = s.SetCapacity(ctx, tierID, c.Capacity)
	case ContentEdit:
		err = s.applyContent(ctx, tier, event, c)
	case RemainingEdit:
		err = s.applyRemaining(ctx, tier, event, c)
	default:
		err = fmt.Errorf("%w: %T", ErrInvalidCommand, cmd)
	}
	if err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, tierID)
}

func (s *service) applyContent(ctx context.Context, tier *Tier, event *events.Event, c ContentEdit) error {
	if event.IsPublished {
		return ErrEventPublished
	}

	if c.Name != nil || c.Format != nil {
		name, format := tier.Name, tier.Format
		if c.Name != nil {
			name = strings.TrimSpace(*c.Name)
		}
		if c.Format != nil {
			format = *c.Format
		}
		exists, err := s.repo.ExistsByNameFormat(ctx, tier.EventID, name, format, tier.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateTier
		}
	}

	ok, err := s.repo.UpdateContent(ctx, tier.ID, c.updates())
	if err != nil {
		return err
	}
	if !ok {
		// The only guard besides the id is publication
		return ErrEventPublished
	}

	s.invalidate(ctx, tier.ID)
	return nil
}

func (s *service) applyRemaining(ctx context.Context, tier *Tier, event *events.Event, c RemainingEdit) error {
	if c.Remaining > tier.Remaining {
		if event.IsPublished {
			return ErrEventPublished
		}
		return fmt.Errorf("%w: raise capacity to add seats", ErrInvalidCommand)
	}

	ok, err := s.repo.LowerRemaining(ctx, tier.ID, c.Remaining)
	if err != nil {
		return err
	}
	if !ok {
		// Seats were sold in between; the edit would now add seats
		return fmt.Errorf("%w: only %d seats remain", ErrInvalidCommand, tier.Remaining)
	}

	s.invalidate(ctx, tier.ID)
	return nil
}

func (s *service) DeleteTier(ctx context.Context, operatorID, tierID uuid.UUID) error {
	tier, event, err := s.load(ctx, tierID)
	if err != nil {
		return err
	}
	if event.OwnerID != operatorID {
		return ErrForbidden
	}
	if event.IsPublished {
		return ErrEventPublished
	}

	ok, err := s.repo.DeleteUnreferenced(ctx, tierID)
	if err != nil {
		return err
	}
	if !ok {
		if _, err := s.repo.GetByID(ctx, tierID); errors.Is(err, ErrTierNotFound) {
			return ErrTierNotFound
		}
		return ErrTierInUse
	}

	s.invalidateEvent(ctx, tier.EventID)
	return nil
}

func (s *service) GetTier(ctx context.Context, tierID uuid.UUID) (*Tier, error) {
	return s.repo.GetByID(ctx, tierID)
}

func (s *service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TierResponse, error) {
	fetch := func() (interface{}, error) {
		tiers, err := s.repo.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		out := make([]TierResponse, 0, len(tiers))
		for i := range tiers {
			out = append(out, tiers[i].ToResponse())
		}
		return out, nil
	}

	if s.cache == nil {
		data, err := fetch()
		if err != nil {
			return nil, err
		}
		return data.([]TierResponse), nil
	}

	var out []TierResponse
	key := constants.BuildEventTiersKey(eventID.String())
	if err := s.cache.GetOrSet(ctx, key, constants.TTL_REALTIME_SHORT, fetch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) load(ctx context.Context, tierID uuid.UUID) (*Tier, *events.Event, error) {
	tier, err := s.repo.GetByID(ctx, tierID)
	if err != nil {
		return nil, nil, err
	}
	event, err := s.events.GetByID(ctx, tier.EventID)
	if err != nil {
		return nil, nil, err
	}
	return tier, event, nil
}

// invalidate drops the cached availability of the tier's event
func (s *service) invalidate(ctx context.Context, tierID uuid.UUID) {
	if s.cache == nil {
		return
	}
	tier, err := s.repo.GetByID(ctx, tierID)
	if err != nil {
		return
	}
	s.invalidateEvent(ctx, tier.EventID)
}

func (s *service) invalidateEvent(ctx context.Context, eventID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, constants.BuildEventTiersKey(eventID.String())); err != nil {
		s.log.Warn("Failed to invalidate tier cache",
			slog.String("event_id", eventID.String()),
			slog.String("error", err.Error()),
		)
	}
}
