package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avikl/user-admin-be/internal/apierr"
	"github.com/avikl/user-admin-be/internal/auth"
	"github.com/avikl/user-admin-be/internal/models"
	"github.com/avikl/user-admin-be/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles self-service account requests.
type UserHandler struct {
	users  services.UserServiceProvider
	events services.EventServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, events services.EventServiceProvider) *UserHandler {
	return &UserHandler{users: users, events: events}
}

// Update applies a partial update to the caller's own account. The route
// is session-gated; ownership is checked here against the session id.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	callerID, ok := auth.UserIDFrom(r.Context())
	if !ok {
		apierr.Write(w, apierr.Unauthenticated("You are not authenticated!"))
		return
	}
	if callerID != id {
		apierr.Write(w, apierr.Forbidden("You can update only your own account!"))
		return
	}

	var patch models.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		apierr.Write(w, apierr.Validation("Invalid request body"))
		return
	}

	user, err := h.users.UpdateUser(r.Context(), id, patch)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to update account")
		apierr.Write(w, err)
		return
	}

	if err := h.events.CreateEvent(r.Context(), "user.update", "info", "User '"+user.Username+"' updated their profile.", &callerID); err != nil {
		log.Error().Err(err).Msg("Failed to record event")
	}

	writeJSON(w, http.StatusOK, user)
}
