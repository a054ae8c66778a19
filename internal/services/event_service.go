package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/oops"

	"github.com/VJYGOUR/auth-system/internal/models"
)

const (
	defaultEventLimit = 20
	maxEventLimit     = 100
)

// EventRepository is the storage collaborator for audit events.
type EventRepository interface {
	Insert(ctx context.Context, event models.Event) error
	RecentForUser(ctx context.Context, userID string, limit int) ([]models.Event, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventPublisher receives every event after it is stored.
type EventPublisher interface {
	PublishEvent(event models.Event)
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	Record(ctx context.Context, eventType string, userID *string, remoteAddr string)
	Recent(ctx context.Context, userID string, limit int) ([]models.Event, error)
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// EventService records and queries the authentication audit log.
type EventService struct {
	events    EventRepository
	publisher EventPublisher
	now       func() time.Time
}

// NewEventService creates a new EventService. publisher may be nil.
func NewEventService(events EventRepository, publisher EventPublisher) *EventService {
	return &EventService{events: events, publisher: publisher, now: time.Now}
}

// Record appends an event. Failures are logged and swallowed; the audit
// log never blocks authentication.
func (s *EventService) Record(ctx context.Context, eventType string, userID *string, remoteAddr string) {
	event := models.Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		UserID:     userID,
		RemoteAddr: remoteAddr,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.events.Insert(ctx, event); err != nil {
		log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to record audit event")
		return
	}
	if s.publisher != nil {
		s.publisher.PublishEvent(event)
	}
}

// Recent returns the newest events for a user. limit is clamped to
// [1, 100] and defaults to 20 when not positive.
func (s *EventService) Recent(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	events, err := s.events.RecentForUser(ctx, userID, limit)
	if err != nil {
		return nil, oops.Code("EVENTS_QUERY_FAILED").With("user_id", userID).Wrap(err)
	}
	return events, nil
}

// Prune deletes events older than retention.
func (s *EventService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, oops.Code("EVENTS_PRUNE_INVALID").Errorf("retention must be positive, got %s", retention)
	}

	cutoff := s.now().Add(-retention)
	n, err := s.events.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, oops.Code("EVENTS_PRUNE_FAILED").With("cutoff", cutoff).Wrap(err)
	}
	return n, nil
}
