package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// PathPrefix is prepended to every backend path, e.g. "/api" when the
	// backend is mounted behind a reverse proxy. Empty means bare paths.
	PathPrefix string        `yaml:"path_prefix"`
	Timeout    time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	FilePath string `yaml:"file"`
	Level    string `yaml:"level"`
}

// Load builds the configuration. Environment variables win over the YAML
// file at path (optional), which wins over built-in defaults.
func Load(path string) (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("AIDOC_CONFIG")
	}

	var file Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	stateDir := defaultStateDir()

	timeout, err := getEnvAsDuration("AIDOC_HTTP_TIMEOUT", file.API.Timeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:    strings.TrimRight(getEnv("AIDOC_API_URL", or(file.API.BaseURL, "http://localhost:8000")), "/"),
			PathPrefix: normalizePrefix(getEnv("AIDOC_API_PREFIX", file.API.PathPrefix)),
			Timeout:    timeout,
		},
		Storage: StorageConfig{
			Path: getEnv("AIDOC_STATE_PATH", or(file.Storage.Path, filepath.Join(stateDir, "state.db"))),
		},
		Log: LogConfig{
			FilePath: getEnv("AIDOC_LOG_FILE", or(file.Log.FilePath, filepath.Join(stateDir, "aidoc.log"))),
			Level:    getEnv("AIDOC_LOG_LEVEL", or(file.Log.Level, "info")),
		},
	}
	return cfg, nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".aidoc"
	}
	return filepath.Join(dir, "aidoc")
}

func normalizePrefix(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	// Bare numbers are seconds.
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return time.Duration(secs) * time.Second, nil
}
