// Package httputil provides shared HTTP response/request utilities for the
// tracking endpoints.
//
// Handlers use these helpers instead of writing raw http.ResponseWriter
// calls so that error envelopes, content types, and internal-error logging
// stay consistent across the API surface.
package httputil
