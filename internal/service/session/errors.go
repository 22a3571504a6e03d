package session

import "errors"

// ErrSessionNotFound covers both a tracking link that does not exist and
// one that has expired. The two cases are deliberately indistinguishable to
// callers so a probing client learns nothing about link validity.
var ErrSessionNotFound = errors.New("session not found")
