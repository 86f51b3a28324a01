package engine

import "errors"

// Sentinel errors surfaced by the engine. Validation errors are returned
// synchronously at submission time; detector failures are never returned from
// Submit — they are captured into the job's record as a failed status.
var (
	ErrNotFound        = errors.New("analysis not found")
	ErrUnknownFileKind = errors.New("unknown file kind")
	ErrUnknownPriority = errors.New("unknown priority tier")
	ErrWaitTimeout     = errors.New("timed out waiting for analysis completion")
	ErrShuttingDown    = errors.New("engine is shutting down")
	ErrNotStarted      = errors.New("engine not started")
	ErrAlreadyStarted  = errors.New("engine already started")
)
