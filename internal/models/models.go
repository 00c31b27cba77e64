package models

import (
	"strings"
	"time"
)

// TaskStatus is the completion state of a task
type TaskStatus string

const (
	StatusPending   TaskStatus = "Pending"
	StatusCompleted TaskStatus = "Completed"
)

// Toggle returns the other status
func (s TaskStatus) Toggle() TaskStatus {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

// Workspace groups tasks. Stored locally.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// Category is a colored label optionally attached to a task. Stored locally.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Task is owned by the remote store; ID and CreatedAt are assigned there.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      TaskStatus
	WorkspaceID string
	CategoryID  string // empty when unassigned
	CreatedAt   time.Time
}

// User is the read-only projection of the authenticated account
type User struct {
	UID           string
	DisplayName   string
	Email         string
	EmailVerified bool
}

// Name returns the display name, falling back to the email's local part
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	if u.Email != "" {
		return u.Email
	}
	return "Operator"
}

// DefaultWorkspaces are seeded on first run
func DefaultWorkspaces() []Workspace {
	return []Workspace{
		{ID: "ws-1", Name: "Core Engine", Icon: "⚡"},
		{ID: "ws-2", Name: "Experience Design", Icon: "🎨"},
	}
}

// DefaultCategories are seeded on first run
func DefaultCategories() []Category {
	return []Category{
		{ID: "cat-1", Name: "Engineering", Color: "#8B5CF6"},
		{ID: "cat-2", Name: "UI/UX", Color: "#EC4899"},
	}
}

// WorkspaceIcons are the glyphs offered when creating a workspace
var WorkspaceIcons = []string{"🚀", "💼", "🎯", "🎨", "💻", "💡", "🌟", "📁"}

// CategoryColors are the colors offered when creating a category
var CategoryColors = []string{
	"#EF4444", // red
	"#F59E0B", // amber
	"#10B981", // emerald
	"#3B82F6", // blue
	"#8B5CF6", // purple
	"#EC4899", // pink
	"#06B6D4", // cyan
	"#6366F1", // indigo
}
