package models

import "context"

// Detector is the opaque analysis capability the engine invokes per job.
// Implementations must be safe for concurrent use from worker goroutines and
// may be slow (seconds). Never call a concrete detector directly — always
// inject this interface.
type Detector interface {
	// Analyze runs deepfake analysis on the referenced file.
	Analyze(ctx context.Context, fileRef string, kind FileKind) (Detection, error)
	// Name returns the detector identifier (e.g., "mock", "remote").
	Name() string
}

// ModelLocator resolves a logical model name to a loadable path. It is
// invoked once at engine start, not per job.
type ModelLocator interface {
	Resolve(ctx context.Context, modelName string) (string, error)
}
