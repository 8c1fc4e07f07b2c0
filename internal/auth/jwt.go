package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the JWT claims structure. The user id lives in the "id"
// claim; tokens carry no expiry, the http-only session cookie bounds their
// lifetime.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates session tokens with a process-wide
// secret injected at startup.
type TokenManager struct {
	secret []byte
}

// NewTokenManager creates a TokenManager for the given signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret)}
}

// Issue creates a new signed token for a user id.
func (tm *TokenManager) Issue(userID string) (string, error) {
	claims := &Claims{UserID: userID}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Validate parses a token string and returns the embedded user id.
func (tm *TokenManager) Validate(tokenStr string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.UserID == "" {
		return "", fmt.Errorf("invalid token")
	}
	return claims.UserID, nil
}
