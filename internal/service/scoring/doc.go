// Package scoring commits at most one canonical score per (session, role).
//
// The governing rule is FirstWriteWinsExceptZero: a stored non-zero score
// is immutable and later submissions are accepted-but-discarded, while a
// stored 0 is provisional and may be replaced exactly once by any later
// submission. SCORM packages routinely write an initial 0 on launch before
// the recipient has answered anything, which is why 0 never counts as
// final. Duplicate submissions are a normal outcome, not an error: the
// caller gets the authoritative score back with a flag.
//
// Commit-or-discard is decided inside a single conditional database write,
// so two racing submissions cannot both win.
package scoring
