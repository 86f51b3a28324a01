// Package detector wires concrete Detector implementations and model
// location. The engine only ever sees the models.Detector interface.
package detector

import (
	"fmt"

	"github.com/bhanukaranwal/Satyashield/internal/config"
	"github.com/bhanukaranwal/Satyashield/internal/detector/mock"
	"github.com/bhanukaranwal/Satyashield/internal/detector/remote"
	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// NewDetector constructs the appropriate detector based on config.
// Called once at server startup.
func NewDetector(cfg config.DetectorConfig) (models.Detector, error) {
	switch cfg.Provider {
	case "mock":
		return mock.NewDetector(), nil
	case "remote":
		return remote.NewDetector(cfg.Remote), nil
	default:
		return nil, fmt.Errorf("unknown detector provider %q: must be one of mock, remote", cfg.Provider)
	}
}
