package store

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/VJYGOUR/auth-system/internal/database"
	"github.com/VJYGOUR/auth-system/internal/models"
)

// EventStore reads and writes audit events.
type EventStore struct {
	db *database.DB
}

// NewEventStore creates a new EventStore.
func NewEventStore(db *database.DB) *EventStore {
	return &EventStore{db: db}
}

// Insert stores a single event.
func (s *EventStore) Insert(ctx context.Context, event models.Event) error {
	query := s.db.Dialect.Rebind("INSERT INTO auth_events (id, type, user_id, remote_addr, created_at) VALUES (?, ?, ?, ?, ?)")

	_, err := s.db.ExecContext(ctx, query, event.ID, event.Type, event.UserID, event.RemoteAddr, event.CreatedAt.UTC())
	if err != nil {
		return oops.Code("STORE_INSERT_FAILED").With("event_type", event.Type).Wrap(err)
	}
	return nil
}

// RecentForUser returns up to limit events for userID, newest first.
func (s *EventStore) RecentForUser(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	query := s.db.Dialect.Rebind(`
		SELECT id, type, user_id, remote_addr, created_at
		FROM auth_events WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`)

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, oops.Code("STORE_QUERY_FAILED").With("user_id", userID).Wrap(err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.UserID, &event.RemoteAddr, &event.CreatedAt); err != nil {
			return nil, oops.Code("STORE_SCAN_FAILED").Wrap(err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// DeleteBefore removes events created before cutoff and returns how many
// were deleted.
func (s *EventStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := s.db.Dialect.Rebind("DELETE FROM auth_events WHERE created_at < ?")

	res, err := s.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, oops.Code("STORE_DELETE_FAILED").Wrap(err)
	}
	return res.RowsAffected()
}
