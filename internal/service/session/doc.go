// Package session validates tracking sessions. A tracking link is the only
// credential a recipient ever presents, so lookups are treated as an
// authorization check: unknown and expired links both answer with
// ErrSessionNotFound and the API surfaces that as 403, never 404.
package session
