package auth

import (
	"context"
	"net/http"

	"github.com/avikl/user-admin-be/internal/apierr"
	"github.com/avikl/user-admin-be/internal/models"
	"github.com/rs/zerolog/log"
)

// SessionCookie is the http-only cookie carrying the signed session token.
const SessionCookie = "access_token"

type contextKey string

// UserIDKey is the context key holding the authenticated user's id.
const UserIDKey = contextKey("userID")

// UserGetter is the slice of the user service the admin gate needs.
type UserGetter interface {
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserIDFrom extracts the authenticated user id attached by RequireSession.
func UserIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok
}

// RequireSession rejects requests without a valid session cookie and
// attaches the resolved user id to the request context. Missing and
// invalid tokens are both 401: 403 is reserved for callers we know who
// they are but who lack the right.
func RequireSession(tm *TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				apierr.Write(w, apierr.Unauthenticated("You are not authenticated!"))
				return
			}

			userID, err := tm.Validate(cookie.Value)
			if err != nil {
				log.Warn().Err(err).Msg("Rejected invalid session token")
				apierr.Write(w, apierr.Unauthenticated("Invalid session token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin runs after RequireSession and rejects callers whose account
// is missing or not an admin.
func RequireAdmin(users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserIDFrom(r.Context())
			if !ok {
				apierr.Write(w, apierr.Unauthenticated("You are not authenticated!"))
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || !user.IsAdmin {
				apierr.Write(w, apierr.Forbidden("You are not authorized as admin to perform this action!"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
