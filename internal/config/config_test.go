package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENVIRONMENT", "DATABASE_URL", "TABLE_PREFIX", "JOURNAL_FLUSH_INTERVAL", "LOG_MAX_FILES"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "dev_", cfg.TablePrefix)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.JournalFlushInterval)
	assert.Equal(t, 10, cfg.LogMaxFiles)
}

func TestLoad_TablePrefix(t *testing.T) {
	tests := []struct {
		env      string
		override string
		want     string
	}{
		{env: "dev", want: "dev_"},
		{env: "test", want: "test_"},
		{env: "prod", want: "prod_"},
		{env: "prod", override: "staging_", want: "staging_"},
	}

	for _, tt := range tests {
		t.Run(tt.env+tt.override, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", tt.env)
			t.Setenv("TABLE_PREFIX", tt.override)

			assert.Equal(t, tt.want, Load().TablePrefix)
		})
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("JOURNAL_FLUSH_INTERVAL", "soon")
	t.Setenv("LOG_MAX_FILES", "many")

	cfg := Load()

	assert.Equal(t, 500*time.Millisecond, cfg.JournalFlushInterval)
	assert.Equal(t, 10, cfg.LogMaxFiles)
}

func TestSetupLogFile_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"server-2024-01-01T00-00-00.log", "server-2024-01-02T00-00-00.log", "server-2024-01-03T00-00-00.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	f, err := SetupLogFile(dir, "server", 2)
	require.NoError(t, err)
	defer f.Close()

	matches, err := filepath.Glob(filepath.Join(dir, "server-*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
	assert.Contains(t, matches, f.Name())
}
