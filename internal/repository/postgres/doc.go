// Package postgres implements the service repository contracts against
// PostgreSQL. All concurrency-sensitive writes (set-if-null milestone
// marks, the conditional score commit, outbox enqueue) are expressed as
// single SQL statements so correctness never depends on application-side
// locking.
package postgres
