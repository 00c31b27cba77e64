package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tgienger/lumina/internal/analytics"
	"github.com/tgienger/lumina/internal/models"
)

func sample() *State {
	s := New(models.DefaultWorkspaces(), models.DefaultCategories())
	now := time.Now()
	s.ApplySnapshot([]models.Task{
		{ID: "t1", WorkspaceID: "ws-1", Status: models.StatusPending, CategoryID: "cat-1", CreatedAt: now},
		{ID: "t2", WorkspaceID: "ws-2", Status: models.StatusCompleted, CreatedAt: now.Add(-time.Minute)},
		{ID: "t3", WorkspaceID: "ws-1", Status: models.StatusCompleted, CategoryID: "cat-gone", CreatedAt: now.Add(-time.Hour)},
	})
	return s
}

func ids(tasks []models.Task) []string {
	var out []string
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestSetView_ResetsFilter(t *testing.T) {
	for _, v := range []View{ViewInbox, ViewAnalytics, "ws-1", "ws-unknown"} {
		s := sample()
		s.SetFilter(FilterCompleted)
		s.SetView(v)
		assert.Equal(t, FilterAll, s.Filter, "view %s", v)
		assert.Equal(t, v, s.ActiveView)
	}
}

func TestViewTasks(t *testing.T) {
	s := sample()

	s.SetView(ViewInbox)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(s.ViewTasks()))

	s.SetView(ViewAnalytics)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(s.ViewTasks()))

	s.SetView("ws-1")
	assert.Equal(t, []string{"t1", "t3"}, ids(s.ViewTasks()))

	s.SetView("ws-unknown")
	assert.Empty(t, s.ViewTasks())
}

func TestFilteredTasksAndSummary(t *testing.T) {
	s := sample()
	s.SetView("ws-1")
	s.SetFilter(FilterCompleted)

	assert.Equal(t, []string{"t3"}, ids(s.FilteredTasks()))
	assert.Equal(t, analytics.Summary{Total: 2, Pending: 1, Completed: 1}, s.Summary(),
		"summary ignores the status filter")

	s.SetFilter(FilterPending)
	assert.Equal(t, []string{"t1"}, ids(s.FilteredTasks()))
}

func TestEmptyState(t *testing.T) {
	s := New(models.DefaultWorkspaces(), models.DefaultCategories())
	assert.Empty(t, s.FilteredTasks())
	assert.Equal(t, analytics.Summary{}, s.Summary())
}

func TestTitle(t *testing.T) {
	s := sample()
	assert.Equal(t, "Inbox", s.Title())
	s.SetView(ViewAnalytics)
	assert.Equal(t, "Analytics", s.Title())
	s.SetView("ws-2")
	assert.Equal(t, "Experience Design", s.Title())
	s.SetView("ws-x")
	assert.Equal(t, "Project", s.Title())
}

func TestCategoryLabel(t *testing.T) {
	s := sample()
	assert.Equal(t, "Engineering", s.CategoryLabel(s.Tasks[0]))
	assert.Equal(t, "Unassigned", s.CategoryLabel(s.Tasks[1]), "absent")
	assert.Equal(t, "Unassigned", s.CategoryLabel(s.Tasks[2]), "dangling")
}

func TestDefaultWorkspaceID(t *testing.T) {
	s := sample()
	assert.Equal(t, "ws-1", s.DefaultWorkspaceID())
	s.SetView("ws-2")
	assert.Equal(t, "ws-2", s.DefaultWorkspaceID())

	empty := New(nil, nil)
	assert.Empty(t, empty.DefaultWorkspaceID())
}

func TestSetUserNilClearsTasks(t *testing.T) {
	s := sample()
	s.SetUser(nil)
	assert.Nil(t, s.Tasks)
}

func TestBanner(t *testing.T) {
	s := sample()
	s.ShowBanner("oops")
	assert.Equal(t, "oops", s.Banner)
	s.DismissBanner()
	assert.Empty(t, s.Banner)
}

func TestViewValid(t *testing.T) {
	s := sample()
	assert.True(t, s.ViewValid(ViewInbox))
	assert.True(t, s.ViewValid("ws-2"))
	assert.False(t, s.ViewValid("ws-9"))
	assert.False(t, s.ViewValid(""))
}
