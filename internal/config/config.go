package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the SatyaShield analysis engine server.
type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Detector DetectorConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type EngineConfig struct {
	WorkersPerTier   int
	NormalQueueCap   int
	HighQueueCap     int
	CriticalQueueCap int
	Retention        time.Duration
	CleanupInterval  time.Duration
	WaitPollInterval time.Duration
}

type DetectorConfig struct {
	Provider      string
	ModelName     string
	ModelBasePath string
	Remote        RemoteDetectorConfig
}

type RemoteDetectorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig is optional: with an empty URL the status mirror and Redis
// rate limiting are disabled.
type RedisConfig struct {
	URL       string
	StatusTTL time.Duration
}

// DatabaseConfig is optional: with an empty URL the terminal-record archive
// is disabled and cleaned-up results are gone for good.
type DatabaseConfig struct {
	URL              string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	ArchiveRetention time.Duration
}

// AuthConfig carries bcrypt hashes of accepted API keys. With no hashes
// configured authentication is disabled (development mode).
type AuthConfig struct {
	APIKeyHashes   []string
	RequestsPerMin int
}

var validProviders = map[string]bool{
	"mock":   true,
	"remote": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SATYASHIELD_PORT", 8080),
			Env:  envString("SATYASHIELD_ENV", "development"),
		},
		Engine: EngineConfig{
			WorkersPerTier:   envInt("ENGINE_WORKERS_PER_TIER", 2),
			NormalQueueCap:   envInt("QUEUE_NORMAL_CAPACITY", 100),
			HighQueueCap:     envInt("QUEUE_HIGH_CAPACITY", 50),
			CriticalQueueCap: envInt("QUEUE_CRITICAL_CAPACITY", 20),
			Retention:        envDuration("RESULT_RETENTION", 24*time.Hour),
			CleanupInterval:  envDuration("CLEANUP_INTERVAL", time.Hour),
			WaitPollInterval: envDuration("WAIT_POLL_INTERVAL", 250*time.Millisecond),
		},
		Detector: DetectorConfig{
			Provider:      os.Getenv("DETECTOR_PROVIDER"),
			ModelName:     envString("DETECTOR_MODEL", "deepfake_detector"),
			ModelBasePath: envString("MODEL_BASE_PATH", "/app/data/models"),
			Remote: RemoteDetectorConfig{
				BaseURL: envString("DETECTOR_BASE_URL", "http://localhost:8501"),
				Timeout: envDurationSecs("DETECTOR_TIMEOUT_SECS", 120*time.Second),
			},
		},
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			StatusTTL: envDuration("STATUS_CACHE_TTL", 30*time.Minute),
		},
		Database: DatabaseConfig{
			URL:              os.Getenv("DATABASE_URL"),
			MaxOpenConns:     envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			ArchiveRetention: envDuration("ARCHIVE_RETENTION", 30*24*time.Hour),
		},
		Auth: AuthConfig{
			APIKeyHashes:   envList("API_KEY_HASHES"),
			RequestsPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Detector.Provider == "" {
		return fmt.Errorf("DETECTOR_PROVIDER is required")
	}
	if !validProviders[c.Detector.Provider] {
		return fmt.Errorf("DETECTOR_PROVIDER must be one of mock, remote; got %q", c.Detector.Provider)
	}

	if c.Detector.Provider == "remote" {
		u := c.Detector.Remote.BaseURL
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("DETECTOR_BASE_URL must start with http:// or https://, got %q", u)
		}
	}

	if c.Engine.WorkersPerTier < 1 {
		return fmt.Errorf("ENGINE_WORKERS_PER_TIER must be at least 1, got %d", c.Engine.WorkersPerTier)
	}
	if c.Engine.NormalQueueCap < 1 || c.Engine.HighQueueCap < 1 || c.Engine.CriticalQueueCap < 1 {
		return fmt.Errorf("queue capacities must be at least 1")
	}
	if c.Engine.Retention <= 0 {
		return fmt.Errorf("RESULT_RETENTION must be positive")
	}
	if c.Engine.WaitPollInterval <= 0 {
		return fmt.Errorf("WAIT_POLL_INTERVAL must be positive")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
