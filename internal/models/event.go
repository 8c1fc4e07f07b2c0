package models

import "time"

// Event represents a loggable account action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.create", "auth.admin_signin"
	Level     string    `json:"level"` // e.g., "info", "warn"
	Message   string    `json:"message"`
	ActorID   *string   `json:"actorId,omitempty"` // Nullable for unauthenticated actions
	CreatedAt time.Time `json:"createdAt"`
}
