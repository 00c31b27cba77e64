package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names
const (
	BackendFirebase = "firebase"
	BackendEmulator = "emulator"
)

// Config holds all Lumina configuration.
type Config struct {
	// Backend selects the remote services implementation: firebase or emulator
	Backend string `yaml:"backend"`

	// DataDir holds the local database, emulator database and log file
	DataDir string `yaml:"data_dir"`

	Firebase FirebaseConfig `yaml:"firebase"`
	Google   GoogleConfig   `yaml:"google"`
	AI       AIConfig       `yaml:"ai"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FirebaseConfig configures the Identity Toolkit and Firestore REST clients.
type FirebaseConfig struct {
	APIKey    string `yaml:"api_key"`
	ProjectID string `yaml:"project_id"`

	// Overrides for the Firebase local emulator suite or tests
	AuthURL      string `yaml:"auth_url"`
	TokenURL     string `yaml:"token_url"`
	FirestoreURL string `yaml:"firestore_url"`

	PollInterval   string `yaml:"poll_interval"`
	RequestTimeout string `yaml:"request_timeout"` // empty = no client timeout
}

// GoogleConfig configures the OAuth client used for "Continue with Google".
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// AIConfig configures insight generation.
type AIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // relative paths resolve against DataDir
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendEmulator,
		DataDir: defaultDataDir(),
		Firebase: FirebaseConfig{
			AuthURL:      "https://identitytoolkit.googleapis.com/v1",
			TokenURL:     "https://securetoken.googleapis.com/v1/token",
			FirestoreURL: "https://firestore.googleapis.com/v1",
			PollInterval: "3s",
		},
		AI: AIConfig{
			Model: "gemini-2.5-flash",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "lumina.log",
		},
	}
}

// Load reads the config file at path on top of the defaults. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LUMINA_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("LUMINA_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("FIREBASE_API_KEY"); v != "" {
		c.Firebase.APIKey = v
	}
	if v := os.Getenv("FIREBASE_PROJECT_ID"); v != "" {
		c.Firebase.ProjectID = v
	}
	if v := os.Getenv("GOOGLE_OAUTH_CLIENT_ID"); v != "" {
		c.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"); v != "" {
		c.Google.ClientSecret = v
	}

	// GEMINI_API_KEY takes precedence over the generic API_KEY
	if v := os.Getenv("API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendEmulator:
	case BackendFirebase:
		if c.Firebase.APIKey == "" {
			return fmt.Errorf("firebase backend requires firebase.api_key")
		}
		if c.Firebase.ProjectID == "" {
			return fmt.Errorf("firebase backend requires firebase.project_id")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendFirebase, BackendEmulator)
	}

	if _, err := c.PollInterval(); err != nil {
		return err
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	return nil
}

// PollInterval parses the Firestore watch interval.
func (c *Config) PollInterval() (time.Duration, error) {
	if c.Firebase.PollInterval == "" {
		return 3 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Firebase.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid firebase.poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("firebase.poll_interval must be positive")
	}
	return d, nil
}

// RequestTimeout parses the REST client timeout; zero means none.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Firebase.RequestTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Firebase.RequestTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid firebase.request_timeout: %w", err)
	}
	return d, nil
}

// DatabasePath is the local settings database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "lumina.db")
}

// EmulatorPath is the emulator backend database.
func (c *Config) EmulatorPath() string {
	return filepath.Join(c.DataDir, "emulator.db")
}

// LogPath resolves the log file location.
func (c *Config) LogPath() string {
	if c.Logging.File == "" || filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(c.DataDir, c.Logging.File)
}

// EnsureDataDir creates the data directory.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", c.DataDir, err)
	}
	return nil
}

// DefaultPath returns the config file location under the XDG config directory.
func DefaultPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "lumina", "config.yaml")
}

// defaultDataDir uses the XDG data directory or falls back to the home directory
func defaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ".lumina"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "lumina")
}
