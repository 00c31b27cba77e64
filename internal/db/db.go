package db

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Setting keys
const (
	KeyWorkspaces   = "lumina_workspaces"
	KeyCategories   = "lumina_categories"
	KeyLastView     = "last_view"
	KeyRefreshToken = "session_refresh_token"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// New opens the database at path and initializes the schema
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{db}, nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// HasSetting reports whether a key is present
func (db *DB) HasSetting(key string) (bool, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM settings WHERE key = ?", key).Scan(&n)
	return n > 0, err
}

// DeleteSetting removes a setting
func (db *DB) DeleteSetting(key string) error {
	_, err := db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

// TokenStore adapts the settings table to the session persistence used by
// the firebase backend.
type TokenStore struct {
	db *DB
}

// Tokens returns the settings-backed refresh token store
func (db *DB) Tokens() *TokenStore {
	return &TokenStore{db: db}
}

// LoadRefreshToken returns the stored token or ""
func (s *TokenStore) LoadRefreshToken() (string, error) {
	return s.db.GetSetting(KeyRefreshToken)
}

// SaveRefreshToken stores the token; an empty token clears it
func (s *TokenStore) SaveRefreshToken(token string) error {
	if token == "" {
		return s.db.DeleteSetting(KeyRefreshToken)
	}
	return s.db.SetSetting(KeyRefreshToken, token)
}
