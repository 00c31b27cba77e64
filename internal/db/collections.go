package db

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tgienger/lumina/internal/models"
)

// LocalStore holds the workspaces and categories persisted in the settings
// table. Every mutation rewrites the whole collection.
type LocalStore struct {
	db         *DB
	now        func() time.Time
	suffix     func() string
	loaded     bool
	workspaces []models.Workspace
	categories []models.Category
}

// NewLocalStore creates a store over the settings table
func NewLocalStore(database *DB) *LocalStore {
	return &LocalStore{
		db:     database,
		now:    time.Now,
		suffix: randomSuffix,
	}
}

// Load reads both collections, seeding the defaults when absent.
// Subsequent calls are no-ops.
func (s *LocalStore) Load() error {
	if s.loaded {
		return nil
	}

	workspaces := models.DefaultWorkspaces()
	seeded, err := s.read(KeyWorkspaces, &workspaces)
	if err != nil {
		return err
	}
	if seeded {
		if err := s.write(KeyWorkspaces, workspaces); err != nil {
			return err
		}
	}

	categories := models.DefaultCategories()
	seeded, err = s.read(KeyCategories, &categories)
	if err != nil {
		return err
	}
	if seeded {
		if err := s.write(KeyCategories, categories); err != nil {
			return err
		}
	}

	s.workspaces = workspaces
	s.categories = categories
	s.loaded = true
	return nil
}

// Workspaces returns the workspaces in insertion order
func (s *LocalStore) Workspaces() []models.Workspace {
	return append([]models.Workspace(nil), s.workspaces...)
}

// Categories returns the categories in insertion order
func (s *LocalStore) Categories() []models.Category {
	return append([]models.Category(nil), s.categories...)
}

// AddWorkspace appends a workspace and persists the collection. On a write
// error the workspace stays in memory and the error is returned.
func (s *LocalStore) AddWorkspace(name, icon string) (models.Workspace, error) {
	if err := s.Load(); err != nil {
		return models.Workspace{}, err
	}

	ws := models.Workspace{
		ID:   s.newID("ws", func(id string) bool { return s.hasWorkspace(id) }),
		Name: name,
		Icon: icon,
	}
	s.workspaces = append(s.workspaces, ws)

	if err := s.write(KeyWorkspaces, s.workspaces); err != nil {
		return ws, err
	}
	return ws, nil
}

// AddCategory appends a category and persists the collection. On a write
// error the category stays in memory and the error is returned.
func (s *LocalStore) AddCategory(name, color string) (models.Category, error) {
	if err := s.Load(); err != nil {
		return models.Category{}, err
	}

	cat := models.Category{
		ID:    s.newID("cat", func(id string) bool { return s.hasCategory(id) }),
		Name:  name,
		Color: color,
	}
	s.categories = append(s.categories, cat)

	if err := s.write(KeyCategories, s.categories); err != nil {
		return cat, err
	}
	return cat, nil
}

func (s *LocalStore) hasWorkspace(id string) bool {
	for _, w := range s.workspaces {
		if w.ID == id {
			return true
		}
	}
	return false
}

func (s *LocalStore) hasCategory(id string) bool {
	for _, c := range s.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// newID builds <prefix>-<unix millis>-<suffix>, regenerating on collision
func (s *LocalStore) newID(prefix string, taken func(string) bool) string {
	for {
		id := fmt.Sprintf("%s-%d-%s", prefix, s.now().UnixMilli(), s.suffix())
		if !taken(id) {
			return id
		}
	}
}

// read decodes the JSON array stored under key into dst. It reports true
// when the key was absent and dst was left holding its defaults.
func (s *LocalStore) read(key string, dst any) (bool, error) {
	ok, err := s.db.HasSetting(key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return true, nil
	}

	raw, err := s.db.GetSetting(key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return false, nil
}

func (s *LocalStore) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.db.SetSetting(key, string(data)); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
}
