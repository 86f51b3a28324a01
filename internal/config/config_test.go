package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhanukaranwal/Satyashield/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DETECTOR_PROVIDER", "mock")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)

	assert.Equal(t, 2, cfg.Engine.WorkersPerTier)
	assert.Equal(t, 100, cfg.Engine.NormalQueueCap)
	assert.Equal(t, 50, cfg.Engine.HighQueueCap)
	assert.Equal(t, 20, cfg.Engine.CriticalQueueCap)
	assert.Equal(t, 24*time.Hour, cfg.Engine.Retention)
	assert.Equal(t, time.Hour, cfg.Engine.CleanupInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.WaitPollInterval)

	assert.Equal(t, "deepfake_detector", cfg.Detector.ModelName)
	assert.Equal(t, 120*time.Second, cfg.Detector.Remote.Timeout)

	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 30*24*time.Hour, cfg.Database.ArchiveRetention)
	assert.Empty(t, cfg.Auth.APIKeyHashes)
	assert.Equal(t, 60, cfg.Auth.RequestsPerMin)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DETECTOR_PROVIDER", "remote")
	t.Setenv("DETECTOR_BASE_URL", "https://inference.internal:8501")
	t.Setenv("DETECTOR_TIMEOUT_SECS", "30")
	t.Setenv("SATYASHIELD_PORT", "9090")
	t.Setenv("ENGINE_WORKERS_PER_TIER", "4")
	t.Setenv("QUEUE_CRITICAL_CAPACITY", "5")
	t.Setenv("RESULT_RETENTION", "1h")
	t.Setenv("WAIT_POLL_INTERVAL", "100ms")
	t.Setenv("ARCHIVE_RETENTION", "168h")
	t.Setenv("API_KEY_HASHES", "hash-a, hash-b,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Engine.WorkersPerTier)
	assert.Equal(t, 5, cfg.Engine.CriticalQueueCap)
	assert.Equal(t, time.Hour, cfg.Engine.Retention)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.WaitPollInterval)
	assert.Equal(t, "https://inference.internal:8501", cfg.Detector.Remote.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Detector.Remote.Timeout)
	assert.Equal(t, 168*time.Hour, cfg.Database.ArchiveRetention)
	assert.Equal(t, []string{"hash-a", "hash-b"}, cfg.Auth.APIKeyHashes)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing provider",
			env:     map[string]string{},
			wantErr: "DETECTOR_PROVIDER is required",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"DETECTOR_PROVIDER": "onprem"},
			wantErr: "DETECTOR_PROVIDER must be one of",
		},
		{
			name: "remote without scheme",
			env: map[string]string{
				"DETECTOR_PROVIDER": "remote",
				"DETECTOR_BASE_URL": "inference.internal:8501",
			},
			wantErr: "DETECTOR_BASE_URL must start with",
		},
		{
			name: "zero workers",
			env: map[string]string{
				"DETECTOR_PROVIDER":       "mock",
				"ENGINE_WORKERS_PER_TIER": "0",
			},
			wantErr: "ENGINE_WORKERS_PER_TIER must be at least 1",
		},
		{
			name: "zero queue capacity",
			env: map[string]string{
				"DETECTOR_PROVIDER":   "mock",
				"QUEUE_HIGH_CAPACITY": "0",
			},
			wantErr: "queue capacities must be at least 1",
		},
		{
			name: "negative retention",
			env: map[string]string{
				"DETECTOR_PROVIDER": "mock",
				"RESULT_RETENTION":  "-1h",
			},
			wantErr: "RESULT_RETENTION must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
