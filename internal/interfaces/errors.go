package interfaces

import "errors"

// ErrNotFound is returned by storage implementations when no record exists
// for the requested key. Callers treat it as a normal empty result, distinct
// from a store I/O failure.
var ErrNotFound = errors.New("record not found")
