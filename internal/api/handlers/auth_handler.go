package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/avikl/user-admin-be/internal/apierr"
	"github.com/avikl/user-admin-be/internal/auth"
	"github.com/avikl/user-admin-be/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

// AuthHandler handles signup, signin and signout.
type AuthHandler struct {
	users         services.UserServiceProvider
	events        services.EventServiceProvider
	tokens        *auth.TokenManager
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies should be set in
// production so the session cookie is HTTPS-only.
func NewAuthHandler(users services.UserServiceProvider, events services.EventServiceProvider, tokens *auth.TokenManager, secureCookies bool) *AuthHandler {
	return &AuthHandler{users: users, events: events, tokens: tokens, secureCookies: secureCookies}
}

// CredentialsPayload defines the structure for signin requests. Email
// format is not checked here: the client validates format, the server only
// requires presence.
type CredentialsPayload struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterPayload defines the structure for signup and admin create requests.
type RegisterPayload struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Signup handles new user registration.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
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
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		apierr.Write(w, err)
		return
	}

	h.recordEvent(r, "auth.signup", "info", "User '"+user.Username+"' signed up.", nil)

	writeJSON(w, http.StatusCreated, map[string]string{"message": "User Created Successfully"})
}

// Signin handles user authentication and session cookie issuance.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apierr.Write(w, apierr.Validation("Invalid request body"))
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		apierr.Write(w, err)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate session token")
		apierr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// AdminSignin is Signin restricted to admin accounts.
func (h *AuthHandler) AdminSignin(w http.ResponseWriter, r *http.Request) {
	var payload CredentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		apierr.Write(w, apierr.Validation("Invalid request body"))
		return
	}

	user, err := h.users.AuthenticateAdmin(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed admin authentication attempt")
		apierr.Write(w, err)
		return
	}

	if err := h.issueSession(w, user.ID); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate session token")
		apierr.Write(w, err)
		return
	}

	h.recordEvent(r, "auth.admin_signin", "info", "Admin '"+user.Username+"' signed in.", &user.ID)

	writeJSON(w, http.StatusOK, user)
}

// Signout clears the session cookie. It succeeds whether or not a session
// existed.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signout Success!"})
}

// issueSession signs a token for the user and sets it as the http-only
// session cookie. No Expires: the cookie lives for the browser session.
func (h *AuthHandler) issueSession(w http.ResponseWriter, userID string) error {
	token, err := h.tokens.Issue(userID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
	return nil
}

func (h *AuthHandler) recordEvent(r *http.Request, eventType, level, message string, actorID *string) {
	if err := h.events.CreateEvent(r.Context(), eventType, level, message, actorID); err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
