package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"AIDOC_CONFIG", "AIDOC_API_URL", "AIDOC_API_PREFIX", "AIDOC_HTTP_TIMEOUT",
		"AIDOC_STATE_PATH", "AIDOC_LOG_FILE", "AIDOC_LOG_LEVEL",
	} {
		if old, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, old) })
		}
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "", cfg.API.PathPrefix)
	assert.Zero(t, cfg.API.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "state.db", filepath.Base(cfg.Storage.Path))
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "aidoc.yaml")
	yamlDoc := `
api:
  base_url: http://docs.internal:9000/
  path_prefix: api
  timeout: 15s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	t.Setenv("AIDOC_API_URL", "https://editor.example.com")
	t.Setenv("AIDOC_HTTP_TIMEOUT", "45")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://editor.example.com", cfg.API.BaseURL)
	assert.Equal(t, "/api", cfg.API.PathPrefix)
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIDOC_HTTP_TIMEOUT", "soon")

	_, err := Load("")
	assert.ErrorContains(t, err, "AIDOC_HTTP_TIMEOUT")
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNormalizePrefix(t *testing.T) {
	cases := map[string]string{"": "", "/": "", "api": "/api", "/api/": "/api", " v1/api ": "/v1/api"}
	for in, want := range cases {
		assert.Equal(t, want, normalizePrefix(in), "input %q", in)
	}
}
