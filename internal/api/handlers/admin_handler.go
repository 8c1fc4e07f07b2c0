package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/avikl/user-admin-be/internal/apierr"
	"github.com/avikl/user-admin-be/internal/auth"
	"github.com/avikl/user-admin-be/internal/models"
	"github.com/avikl/user-admin-be/internal/monitoring"
	"github.com/avikl/user-admin-be/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AdminHandler handles the admin-gated user management endpoints.
type AdminHandler struct {
	users   services.UserServiceProvider
	events  services.EventServiceProvider
	monitor *monitoring.StatUpdater
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(users services.UserServiceProvider, events services.EventServiceProvider, monitor *monitoring.StatUpdater) *AdminHandler {
	return &AdminHandler{users: users, events: events, monitor: monitor}
}

// userListResponse is the paginated listing envelope.
type userListResponse struct {
	Users       []models.User `json:"users"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
	TotalUsers  int           `json:"totalUsers"`
}

// ListUsers returns a page of non-admin users matching the search term.
// page and limit default to 1 and 5 when absent or non-numeric.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 5
	}
	search := r.URL.Query().Get("search")

	users, total, err := h.users.ListUsers(r.Context(), page, limit, search)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		apierr.Write(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}

	writeJSON(w, http.StatusOK, userListResponse{
		Users:       users,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
		TotalUsers:  total,
	})
}

// CreateUser creates a non-admin account on behalf of an admin and returns it.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apierr.Write(w, apierr.Validation("Invalid request body"))
		return
	}
	if err := validate.Struct(payload); err != nil {
		apierr.Write(w, apierr.Validation("username, email and password are required"))
		return
	}

	user, err := h.users.CreateUser(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to create user")
		apierr.Write(w, err)
		return
	}

	h.recordEvent(r, "user.create", "info", "User '"+user.Username+"' created by admin.")

	writeJSON(w, http.StatusCreated, user)
}

// UpdateUser applies a partial update to any account by id.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		apierr.Write(w, apierr.Validation("Invalid request body"))
		return
	}

	user, err := h.users.UpdateUser(r.Context(), id, patch)
	if err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("Failed to update user")
		apierr.Write(w, err)
		return
	}

	h.recordEvent(r, "user.update", "info", "User '"+user.Username+"' updated by admin.")

	writeJSON(w, http.StatusOK, user)
}

// DeleteUser removes an account by id. Deletion is idempotent: an unknown
// id still reports success.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to delete user")
		apierr.Write(w, err)
		return
	}

	h.recordEvent(r, "user.delete", "warn", "User "+id+" deleted by admin.")

	writeJSON(w, http.StatusOK, map[string]string{"message": "User has been deleted successfully"})
}

// GetRecentEvents returns the most recent activity events.
func (h *AdminHandler) GetRecentEvents(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20 // Default limit
	}

	events, err := h.events.GetRecentEvents(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retrieve events")
		apierr.Write(w, err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

// GetStats returns the latest host and account stats snapshot.
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

func (h *AdminHandler) recordEvent(r *http.Request, eventType, level, message string) {
	var actorID *string
	if id, ok := auth.UserIDFrom(r.Context()); ok {
		actorID = &id
	}
	if err := h.events.CreateEvent(r.Context(), eventType, level, message, actorID); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
