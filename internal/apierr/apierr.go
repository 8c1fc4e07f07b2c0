package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a typed API failure carrying the HTTP status it maps to.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a typed API error.
func New(statusCode int, message string) *Error {
	return &Error{StatusCode: statusCode, Message: message}
}

func Unauthenticated(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error       { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error        { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error        { return New(http.StatusConflict, message) }
func Validation(message string) *Error      { return New(http.StatusBadRequest, message) }

// envelope is the JSON error body the client expects.
type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Write is the single boundary that converts a failure into the HTTP error
// envelope. Anything that is not a typed *Error becomes a 500.
func Write(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	var apiErr *Error
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
		message = apiErr.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, StatusCode: status, Message: message})
}
