package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lugnsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Minimal(t *testing.T) {
	path := writeConfig(t, `
api:
  baseUrl: https://api.lugntrygg.se
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.lugntrygg.se", cfg.API.BaseURL)
	assert.Equal(t, "lugnsync.db", cfg.Database, "defaults fill the rest")
	assert.Equal(t, 10*time.Second, cfg.API.Timeout())
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce())
}

func TestLoad_FullOverride(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/lugnsync/queue.db
api:
  baseUrl: http://localhost:8080
  token: secret
  timeoutMs: 2500
sync:
  debounceMs: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/lugnsync/queue.db", cfg.Database)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, 2500*time.Millisecond, cfg.API.Timeout())
	assert.Equal(t, 100*time.Millisecond, cfg.Sync.Debounce())
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing base URL", `database: x.db`},
		{"base URL without scheme", "api:\n  baseUrl: lugntrygg.se"},
		{"timeout too small", "api:\n  baseUrl: https://x\n  timeoutMs: 10"},
		{"timeout too large", "api:\n  baseUrl: https://x\n  timeoutMs: 120000"},
		{"negative debounce", "api:\n  baseUrl: https://x\nsync:\n  debounceMs: -1"},
		{"debounce too large", "api:\n  baseUrl: https://x\nsync:\n  debounceMs: 60000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(writeConfig(t, `
api:
  baseUrl: https://x
  retris: 5
`))
	assert.Error(t, err, "typoed keys must not be silently dropped")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_DefaultNeedsBaseURL(t *testing.T) {
	assert.Error(t, Default().Validate(), "defaults alone are not a runnable config")
}
