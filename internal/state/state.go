// Package state holds the single-owner view state of the application and
// the projections derived from it. Only the UI update loop mutates a State.
package state

import (
	"github.com/tgienger/lumina/internal/analytics"
	"github.com/tgienger/lumina/internal/models"
)

// View is Inbox, Analytics, or a workspace id
type View string

const (
	ViewInbox     View = "Inbox"
	ViewAnalytics View = "Analytics"
)

// IsWorkspace reports whether the view selects a single workspace
func (v View) IsWorkspace() bool {
	return v != ViewInbox && v != ViewAnalytics && v != ""
}

// Filter narrows the task grid by status
type Filter string

const (
	FilterAll       Filter = "All"
	FilterPending   Filter = Filter(models.StatusPending)
	FilterCompleted Filter = Filter(models.StatusCompleted)
)

// Filters in tile order
var Filters = []Filter{FilterAll, FilterPending, FilterCompleted}

// State is the in-memory view state
type State struct {
	User       *models.User
	Tasks      []models.Task
	Workspaces []models.Workspace
	Categories []models.Category

	ActiveView View
	Filter     Filter
	Banner     string
}

// New creates the initial state
func New(workspaces []models.Workspace, categories []models.Category) *State {
	return &State{
		Workspaces: workspaces,
		Categories: categories,
		ActiveView: ViewInbox,
		Filter:     FilterAll,
	}
}

// SetView switches the active view and resets the status filter
func (s *State) SetView(v View) {
	s.ActiveView = v
	s.Filter = FilterAll
}

// SetFilter changes the status filter
func (s *State) SetFilter(f Filter) {
	s.Filter = f
}

// SetUser records the session user; clearing it drops the task list
func (s *State) SetUser(u *models.User) {
	s.User = u
	if u == nil {
		s.Tasks = nil
	}
}

// ApplySnapshot replaces the task list
func (s *State) ApplySnapshot(tasks []models.Task) {
	s.Tasks = tasks
}

// ShowBanner sets the error banner
func (s *State) ShowBanner(msg string) {
	s.Banner = msg
}

// DismissBanner clears the error banner
func (s *State) DismissBanner() {
	s.Banner = ""
}

// ViewTasks is every task for Inbox and Analytics, else the tasks of the
// active workspace
func (s *State) ViewTasks() []models.Task {
	if !s.ActiveView.IsWorkspace() {
		return s.Tasks
	}
	var out []models.Task
	for _, t := range s.Tasks {
		if t.WorkspaceID == string(s.ActiveView) {
			out = append(out, t)
		}
	}
	return out
}

// FilteredTasks applies the status filter to ViewTasks
func (s *State) FilteredTasks() []models.Task {
	tasks := s.ViewTasks()
	if s.Filter == FilterAll || s.Filter == "" {
		return tasks
	}
	var out []models.Task
	for _, t := range tasks {
		if Filter(t.Status) == s.Filter {
			out = append(out, t)
		}
	}
	return out
}

// Summary counts ViewTasks, ignoring the status filter
func (s *State) Summary() analytics.Summary {
	return analytics.Summarize(s.ViewTasks())
}

// Title names the active view
func (s *State) Title() string {
	switch s.ActiveView {
	case ViewInbox, "":
		return "Inbox"
	case ViewAnalytics:
		return "Analytics"
	}
	if ws, ok := s.Workspace(string(s.ActiveView)); ok {
		return ws.Name
	}
	return "Project"
}

// Workspace looks up a workspace by id
func (s *State) Workspace(id string) (models.Workspace, bool) {
	for _, w := range s.Workspaces {
		if w.ID == id {
			return w, true
		}
	}
	return models.Workspace{}, false
}

// Category looks up a category by id
func (s *State) Category(id string) (models.Category, bool) {
	if id == "" {
		return models.Category{}, false
	}
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// CategoryLabel names a task's category, "Unassigned" when missing or dangling
func (s *State) CategoryLabel(t models.Task) string {
	if c, ok := s.Category(t.CategoryID); ok {
		return c.Name
	}
	return "Unassigned"
}

// DefaultWorkspaceID preselects the workspace in the new task form
func (s *State) DefaultWorkspaceID() string {
	if s.ActiveView.IsWorkspace() {
		return string(s.ActiveView)
	}
	if len(s.Workspaces) > 0 {
		return s.Workspaces[0].ID
	}
	return ""
}

// ViewValid reports whether v can still be shown
func (s *State) ViewValid(v View) bool {
	if !v.IsWorkspace() {
		return v == ViewInbox || v == ViewAnalytics
	}
	_, ok := s.Workspace(string(v))
	return ok
}
