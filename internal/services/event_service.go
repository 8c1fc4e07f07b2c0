package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/avikl/user-admin-be/internal/models"
	"github.com/google/uuid"
)

// EventServiceProvider defines the interface for activity event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, actorID *string) error
	GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// EventNotifier receives every recorded event for live delivery. The
// websocket hub implements it.
type EventNotifier interface {
	BroadcastJSON(action string, payload interface{})
}

// EventService provides business logic for the account activity log.
type EventService struct {
	db       *sql.DB
	notifier EventNotifier // nil disables live delivery
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, notifier EventNotifier) *EventService {
	return &EventService{db: db, notifier: notifier}
}

// CreateEvent logs a new event to the database and pushes it to connected
// feed clients.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, actorID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, actor_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.ActorID, event.CreatedAt)
	if err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.BroadcastJSON("event.created", event)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events, newest first.
func (s *EventService) GetRecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, type, level, message, actor_id, created_at FROM events ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.ActorID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// PruneOlderThan deletes events created before the cutoff and returns how
// many were removed.
func (s *EventService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
