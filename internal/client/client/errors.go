package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable wraps failures that happened before a response arrived:
	// connection errors, timeouts, cancelled contexts.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized matches any APIError with status 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// FieldDetail is one field-scoped message from a server validation failure.
type FieldDetail struct {
	Field   string
	Message string
}

// APIError is a response the server delivered but flagged as a failure,
// either with a non-2xx status or with success=false in the envelope.
type APIError struct {
	Status  int
	Type    string
	Message string
	Details []FieldDetail
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Type != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Type, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// DetailMessage joins the field details into one line, "field: message; ...".
func (e *APIError) DetailMessage() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		if d.Field == "" {
			parts = append(parts, d.Message)
			continue
		}
		parts = append(parts, d.Field+": "+d.Message)
	}
	return strings.Join(parts, "; ")
}
