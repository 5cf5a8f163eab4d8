// Package common contains small helpers and constants shared by the client
// packages.
package common

// Header names set on every outbound API request.
const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"
)
