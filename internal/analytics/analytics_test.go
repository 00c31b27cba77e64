package analytics

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/lumina/internal/models"
)

func tasksWith(completed, pending int) []models.Task {
	var out []models.Task
	for i := 0; i < completed; i++ {
		out = append(out, models.Task{Status: models.StatusCompleted})
	}
	for i := 0; i < pending; i++ {
		out = append(out, models.Task{Status: models.StatusPending})
	}
	return out
}

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		completed, pending int
		want               int
	}{
		{0, 0, 0},
		{3, 1, 75},
		{1, 2, 33},
		{2, 1, 67},
		{1, 0, 100},
		{0, 5, 0},
	}
	for _, tt := range tests {
		got := Summarize(tasksWith(tt.completed, tt.pending)).CompletionRate()
		assert.Equal(t, tt.want, got, "%d completed / %d pending", tt.completed, tt.pending)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(tasksWith(2, 3))
	assert.Equal(t, Summary{Total: 5, Pending: 3, Completed: 2}, s)
	assert.InDelta(t, 0.4, s.Share(s.Completed), 1e-9)
	assert.Zero(t, Summary{}.Share(0))
}

func TestWorkspaceLoad(t *testing.T) {
	workspaces := models.DefaultWorkspaces()
	tasks := []models.Task{
		{WorkspaceID: "ws-2"},
		{WorkspaceID: "ws-1"},
		{WorkspaceID: "ws-2"},
		{WorkspaceID: "ws-gone"},
	}

	want := []WorkspaceCount{
		{Workspace: workspaces[0], Tasks: 1},
		{Workspace: workspaces[1], Tasks: 2},
	}
	if diff := cmp.Diff(want, WorkspaceLoad(tasks, workspaces)); diff != "" {
		t.Errorf("WorkspaceLoad mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusSplit(t *testing.T) {
	want := []Slice{
		{Status: models.StatusCompleted, Count: 3},
		{Status: models.StatusPending, Count: 1},
	}
	assert.Equal(t, want, StatusSplit(tasksWith(3, 1)))
}

func TestActivity_RealCountsAndLength(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	tasks := []models.Task{
		{CreatedAt: now.Add(-time.Hour)},
		{CreatedAt: now.Add(-2 * time.Hour)},
		{CreatedAt: now.AddDate(0, 0, -3)},
		{CreatedAt: now.AddDate(0, 0, -400)}, // outside the strip
	}

	days := Activity(tasks, now, nil)
	require.Len(t, days, ActivityDays)

	last := days[len(days)-1]
	assert.Equal(t, 2, last.Count)
	assert.False(t, last.Synthetic)
	assert.Equal(t, 10, last.Date.Day())

	assert.Equal(t, 1, days[len(days)-4].Count)

	total := 0
	for _, d := range days {
		total += d.Count
		assert.False(t, d.Synthetic, "nil filler produces no synthetic cells")
	}
	assert.Equal(t, 3, total)
}

func TestActivity_SyntheticCellsAreFlagged(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	tasks := []models.Task{{CreatedAt: now}}

	days := Activity(tasks, now, NewFiller(7))
	synthetic := 0
	for i, d := range days {
		if d.Synthetic {
			synthetic++
			assert.GreaterOrEqual(t, d.Count, 1)
			assert.LessOrEqual(t, d.Count, 4)
		} else if i != len(days)-1 {
			assert.Zero(t, d.Count)
		}
	}
	assert.False(t, days[len(days)-1].Synthetic, "real day is never synthetic")
	assert.Greater(t, synthetic, 0)
	assert.Less(t, synthetic, ActivityDays/2)
}

func TestActivity_SeedIsDeterministic(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Activity(nil, now, NewFiller(42))
	b := Activity(nil, now, NewFiller(42))
	assert.Equal(t, a, b)
}

func TestIntensity(t *testing.T) {
	assert.Equal(t, 0, Intensity(0))
	assert.Equal(t, 1, Intensity(1))
	assert.Equal(t, 3, Intensity(3))
	assert.Equal(t, 4, Intensity(9))
}
