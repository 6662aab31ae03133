package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired is returned when the refresh protocol cannot produce a
// working access token. The credential pair has already been cleared when a
// caller sees this; routing back to the login flow is the caller's job.
var ErrSessionExpired = errors.New("session expired")

// Error is a non-401 HTTP failure with the server's message attached.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.Status)
}

// IsValidation reports whether err is a 4xx failure carrying a structured
// message meant for inline display.
func IsValidation(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusUnauthorized
}

// decodeError turns an error response body into an *Error. The backend
// answers either {"error": "..."} or a field->messages map.
func decodeError(status int, body []byte) error {
	var wrapped struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != "" {
		return &Error{Status: status, Message: wrapped.Error}
	}

	var fields map[string][]string
	if err := json.Unmarshal(body, &fields); err == nil {
		for field, msgs := range fields {
			if len(msgs) > 0 {
				return &Error{Status: status, Message: fmt.Sprintf("%s: %s", field, msgs[0])}
			}
		}
	}

	return &Error{Status: status}
}
