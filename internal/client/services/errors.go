package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
)

// operation names the call being classified; the same status code means
// different things on different endpoints.
type operation string

const (
	opLogin    operation = "login"
	opRegister operation = "register"
	opRestore  operation = "restore"
	opProfile  operation = "profile"
	opSettings operation = "settings"
	opAvatar   operation = "avatar"
)

// ErrNotSignedIn is wrapped by failures of calls that need a session.
var ErrNotSignedIn = errors.New("not signed in")

// classify turns any failure from the gateway into an *client.AuthError.
func classify(op operation, err error) *client.AuthError {
	if err == nil {
		return nil
	}

	var ae *client.AuthError
	if errors.As(err, &ae) {
		return ae
	}

	if client.IsUnavailable(err) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return client.NewAuthError(client.KindNetwork, "", err)
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return client.NewAuthError(client.KindUnknown, "", err)
	}

	kind := kindByType(apiErr.Type)
	if kind == client.KindUnknown {
		kind = kindByStatus(op, apiErr)
	}

	msg := apiErr.Message
	if kind == client.KindServerValidation {
		if details := apiErr.DetailMessage(); details != "" {
			msg = details
		}
	}
	if kind == client.KindSessionExpired {
		// framework texts such as "Not authenticated" are not fit for display
		msg = ""
	}
	return client.NewAuthError(kind, msg, err)
}

func kindByType(t string) client.Kind {
	switch strings.ToLower(t) {
	case "invalid_credentials", "authentication_error":
		return client.KindInvalidCredentials
	case "user_exists", "email_exists", "username_exists", "conflict":
		return client.KindUserExists
	case "validation_error":
		return client.KindServerValidation
	case "token_expired", "unauthorized", "session_expired":
		return client.KindSessionExpired
	default:
		return client.KindUnknown
	}
}

func kindByStatus(op operation, e *client.APIError) client.Kind {
	switch e.Status {
	case http.StatusUnauthorized:
		if op == opLogin {
			return client.KindInvalidCredentials
		}
		return client.KindSessionExpired
	case http.StatusConflict:
		return client.KindUserExists
	case http.StatusUnprocessableEntity:
		return client.KindServerValidation
	case http.StatusBadRequest:
		switch op {
		case opLogin:
			return client.KindInvalidCredentials
		case opRegister:
			if mentionsExisting(e.Message) {
				return client.KindUserExists
			}
		}
		return client.KindServerValidation
	}
	if e.Status >= 400 && e.Status < 500 && e.Message != "" {
		return client.KindServerValidation
	}
	return client.KindUnknown
}

func mentionsExisting(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "exist") || strings.Contains(m, "already")
}
