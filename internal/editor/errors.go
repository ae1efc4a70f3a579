package editor

import "errors"

// Validation failures are detected locally and never reach the network.
var (
	ErrDuplicate  = errors.New("entity already in list")
	ErrCapacity   = errors.New("list is at capacity")
	ErrOutOfRange = errors.New("index out of range")
)

// ErrStale marks a response that was superseded by a newer request for the
// same scope. Callers should drop it silently rather than surface it.
var ErrStale = errors.New("superseded by a newer request")
