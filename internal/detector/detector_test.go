package detector_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanukaranwal/Satyashield/internal/config"
	"github.com/bhanukaranwal/Satyashield/internal/detector"
)

func TestNewDetector(t *testing.T) {
	det, err := detector.NewDetector(config.DetectorConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", det.Name())

	det, err = detector.NewDetector(config.DetectorConfig{
		Provider: "remote",
		Remote:   config.RemoteDetectorConfig{BaseURL: "http://localhost:8501"},
	})
	require.NoError(t, err)
	assert.Equal(t, "remote", det.Name())

	_, err = detector.NewDetector(config.DetectorConfig{Provider: "onprem"})
	require.Error(t, err)
}

func TestPathLocator(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "deepfake_detector")
	require.NoError(t, os.WriteFile(modelPath, []byte("weights"), 0o644))

	loc := &detector.PathLocator{BasePath: dir}

	got, err := loc.Resolve(context.Background(), "deepfake_detector")
	require.NoError(t, err)
	assert.Equal(t, modelPath, got)

	_, err = loc.Resolve(context.Background(), "missing_model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_model")
}

func TestStaticLocator(t *testing.T) {
	loc := &detector.StaticLocator{Path: "mock"}
	got, err := loc.Resolve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "mock", got)
}
