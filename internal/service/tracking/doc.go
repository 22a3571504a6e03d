// Package tracking owns the per-session milestone state. Status is the
// presence of a nullable timestamp — there is no parallel enum — and every
// mutator is set-if-null: the first write wins, repeats are silent no-ops.
// Duplicate and racing signals from the browser are therefore safe without
// any locking.
package tracking
