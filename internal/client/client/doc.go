// Package client is the task-board backend API as used by the session core.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (Client) covering the auth and profile
//     endpoints: login, profile fetch, registration, existence probes,
//     profile/settings updates, avatar upload and the board list used for
//     post-login hydration.
//  2. HTTPClient, a JSON implementation that injects the bearer token from a
//     TokenSource (or a per-call override, see WithAccessToken), tags each
//     request with an X-Request-ID and decodes the uniform
//     {success, data, message, error} envelope.
//  3. The error vocabulary shared with the session layer: APIError for
//     responses flagged as failures, ErrUnavailable for requests that never
//     got a response, and AuthError/Kind for classified session failures.
//
// # Error Handling
//
// Match transport conditions with errors.Is(err, ErrUnavailable) and
// errors.Is(err, ErrUnauthorized); inspect server payloads with errors.As
// into *APIError. Nothing here retries: a 401 is returned to the caller.
package client
