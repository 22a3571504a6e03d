// Package outbox guarantees exactly-once publication of completion events
// over an at-least-once transport. Every winning score commit writes one
// durable outbound row keyed by (tracking link, role); delivery is
// attempted inline and any leftovers are retried by a background sweeper
// with capped exponential backoff. Rows that keep failing past the
// dead-letter threshold are escalated to an operator and kept retrying —
// an event is never silently dropped.
package outbox
