package detector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bhanukaranwal/Satyashield/pkg/models"
)

// PathLocator resolves logical model names to files under a base directory.
type PathLocator struct {
	BasePath string
}

// Resolve returns the on-disk path for modelName, failing if nothing exists
// there. Invoked once at engine start.
func (l *PathLocator) Resolve(_ context.Context, modelName string) (string, error) {
	path := filepath.Join(l.BasePath, modelName)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("model %q not found at %s: %w", modelName, path, err)
	}
	return path, nil
}

// StaticLocator resolves every model name to a fixed path. Useful for tests
// and for the mock detector, which loads nothing.
type StaticLocator struct {
	Path string
}

func (l *StaticLocator) Resolve(_ context.Context, _ string) (string, error) {
	return l.Path, nil
}

var (
	_ models.ModelLocator = (*PathLocator)(nil)
	_ models.ModelLocator = (*StaticLocator)(nil)
)
