package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LUMINA_BACKEND", "LUMINA_DATA_DIR", "FIREBASE_API_KEY", "FIREBASE_PROJECT_ID",
		"GOOGLE_OAUTH_CLIENT_ID", "GOOGLE_OAUTH_CLIENT_SECRET", "API_KEY", "GEMINI_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, BackendEmulator, cfg.Backend)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.NoError(t, cfg.Validate())

	d, err := cfg.PollInterval()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Backend = BackendFirebase
	cfg.Firebase.APIKey = "key"
	cfg.Firebase.ProjectID = "lumina-test"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendFirebase, loaded.Backend)
	assert.Equal(t, "key", loaded.Firebase.APIKey)
	assert.Equal(t, "lumina-test", loaded.Firebase.ProjectID)
	assert.NoError(t, loaded.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Backend, cfg.Backend)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("GEMINI_API_KEY wins over API_KEY", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "generic")
		t.Setenv("GEMINI_API_KEY", "gemini")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "gemini", cfg.AI.APIKey)
	})

	t.Run("API_KEY alone is used", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "generic")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "generic", cfg.AI.APIKey)
	})

	t.Run("backend and data dir", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LUMINA_BACKEND", BackendFirebase)
		t.Setenv("LUMINA_DATA_DIR", "/tmp/lumina-data")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, BackendFirebase, cfg.Backend)
		assert.Equal(t, "/tmp/lumina-data", cfg.DataDir)
		assert.Equal(t, "/tmp/lumina-data/lumina.db", cfg.DatabasePath())
		assert.Equal(t, "/tmp/lumina-data/lumina.log", cfg.LogPath())
	})
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendFirebase
	assert.Error(t, cfg.Validate(), "firebase without api key")

	cfg.Firebase.APIKey = "k"
	assert.Error(t, cfg.Validate(), "firebase without project")

	cfg.Firebase.ProjectID = "p"
	assert.NoError(t, cfg.Validate())

	cfg.Firebase.PollInterval = "-1s"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Backend = "mongo"
	assert.Error(t, cfg.Validate())
}
