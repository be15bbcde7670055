package models

import (
	"fmt"
	"net/http"
)

// ValidationError is returned when caller input is rejected before it reaches a store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// Hint returns a user-friendly suggestion for resolving this error.
func (e *ValidationError) Hint() string {
	switch e.Field {
	case "priority":
		return "Use one of P1, P2 or P3."
	case "title":
		return fmt.Sprintf("Provide a non-empty title of at most %d characters.", MaxTitleLength)
	}
	return "Check your request body."
}
