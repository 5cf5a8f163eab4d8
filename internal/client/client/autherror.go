package client

import "errors"

// Kind classifies a failed session operation.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a local, field-scoped failure; nothing was sent.
	KindValidation
	KindInvalidCredentials
	KindUserExists
	KindServerValidation
	// KindSessionExpired is a 401 on an authenticated call. It is never retried.
	KindSessionExpired
	KindNetwork
	// KindSuperseded means another login or logout completed while the
	// operation was in flight, so its result was discarded.
	KindSuperseded
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUserExists:
		return "user_exists"
	case KindServerValidation:
		return "server_validation_error"
	case KindSessionExpired:
		return "session_expired"
	case KindNetwork:
		return "network_error"
	case KindSuperseded:
		return "superseded"
	default:
		return "unknown_error"
	}
}

// DefaultMessage is shown when the server gave no usable text.
func (k Kind) DefaultMessage() string {
	switch k {
	case KindValidation:
		return "Please correct the highlighted fields."
	case KindInvalidCredentials:
		return "Invalid email or password."
	case KindUserExists:
		return "A user with this email or username already exists."
	case KindServerValidation:
		return "The server rejected the submitted data."
	case KindSessionExpired:
		return "Your session has expired. Please sign in again."
	case KindNetwork:
		return "Unable to reach the server. Check your connection and try again."
	case KindSuperseded:
		return "The session changed while the request was in progress."
	default:
		return "Something went wrong. Please try again later."
	}
}

// AuthError is the single failure shape returned by the session layer.
// Message is always a human-readable sentence fit for display.
type AuthError struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for KindValidation.
	Fields map[string][]string
	Err    error
}

func NewAuthError(kind Kind, msg string, err error) *AuthError {
	if msg == "" {
		msg = kind.DefaultMessage()
	}
	return &AuthError{Kind: kind, Message: msg, Err: err}
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first AuthError in err's chain,
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
