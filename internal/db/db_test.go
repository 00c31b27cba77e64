package db

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/lumina/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(filepath.Join(t.TempDir(), "lumina.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSettings(t *testing.T) {
	database := openTestDB(t)

	v, err := database.GetSetting("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, database.SetSetting("k", "one"))
	require.NoError(t, database.SetSetting("k", "two"))

	v, err = database.GetSetting("k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)

	ok, err := database.HasSetting("k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, database.DeleteSetting("k"))
	ok, err = database.HasSetting("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTokenStore(t *testing.T) {
	tokens := openTestDB(t).Tokens()

	require.NoError(t, tokens.SaveRefreshToken("refresh-1"))
	got, err := tokens.LoadRefreshToken()
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", got)

	require.NoError(t, tokens.SaveRefreshToken(""))
	got, err = tokens.LoadRefreshToken()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocalStore_SeedsDefaults(t *testing.T) {
	database := openTestDB(t)
	store := NewLocalStore(database)
	require.NoError(t, store.Load())

	assert.Equal(t, models.DefaultWorkspaces(), store.Workspaces())
	assert.Equal(t, models.DefaultCategories(), store.Categories())

	raw, err := database.GetSetting(KeyWorkspaces)
	require.NoError(t, err)
	var persisted []models.Workspace
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Equal(t, models.DefaultWorkspaces(), persisted)
}

func TestLocalStore_AddAppendsAndPersists(t *testing.T) {
	database := openTestDB(t)
	store := NewLocalStore(database)
	store.now = func() time.Time { return time.UnixMilli(1700000000000) }
	store.suffix = func() string { return "abcde" }

	ws, err := store.AddWorkspace("Q4 Strategy", "🎯")
	require.NoError(t, err)
	assert.Equal(t, "ws-1700000000000-abcde", ws.ID)

	workspaces := store.Workspaces()
	require.Len(t, workspaces, 3)
	assert.Equal(t, models.DefaultWorkspaces(), workspaces[:2])
	assert.Equal(t, ws, workspaces[2])

	cat, err := store.AddCategory("Urgent", "#EF4444")
	require.NoError(t, err)
	assert.Equal(t, "cat-1700000000000-abcde", cat.ID)

	// A fresh store reads back exactly what was written
	reopened := NewLocalStore(database)
	require.NoError(t, reopened.Load())
	assert.Equal(t, workspaces, reopened.Workspaces())
	assert.Equal(t, store.Categories(), reopened.Categories())
}

func TestLocalStore_RegeneratesCollidingIDs(t *testing.T) {
	store := NewLocalStore(openTestDB(t))
	store.now = func() time.Time { return time.UnixMilli(42) }

	suffixes := []string{"aaaaa", "aaaaa", "bbbbb"}
	store.suffix = func() string {
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s
	}

	first, err := store.AddWorkspace("One", "🚀")
	require.NoError(t, err)
	second, err := store.AddWorkspace("Two", "🚀")
	require.NoError(t, err)

	assert.Equal(t, "ws-42-aaaaa", first.ID)
	assert.Equal(t, "ws-42-bbbbb", second.ID)
}

func TestLocalStore_IDsUniqueAcrossSession(t *testing.T) {
	store := NewLocalStore(openTestDB(t))

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		c, err := store.AddCategory("c", "#10B981")
		require.NoError(t, err)
		assert.False(t, seen[c.ID], "duplicate id %s", c.ID)
		seen[c.ID] = true
	}
}

func TestLocalStore_PersistFailureKeepsEntry(t *testing.T) {
	database := openTestDB(t)
	store := NewLocalStore(database)
	require.NoError(t, store.Load())

	database.Close()

	ws, err := store.AddWorkspace("Offline", "💡")
	assert.Error(t, err)
	assert.Equal(t, "Offline", ws.Name)
	assert.Len(t, store.Workspaces(), 3)
}
