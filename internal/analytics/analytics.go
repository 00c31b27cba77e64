// Package analytics computes the aggregate views over the task list.
package analytics

import (
	"math"

	"github.com/tgienger/lumina/internal/models"
)

// Summary counts tasks by status
type Summary struct {
	Total     int
	Pending   int
	Completed int
}

// Summarize counts tasks by status in a single pass
func Summarize(tasks []models.Task) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusCompleted:
			s.Completed++
		}
	}
	return s
}

// CompletionRate is round(completed/total*100), or 0 for an empty list
func (s Summary) CompletionRate() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
}

// Share returns n as a fraction of the total, 0 when there are no tasks
func (s Summary) Share(n int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Total)
}

// WorkspaceCount is one bar of the workspace chart
type WorkspaceCount struct {
	Workspace models.Workspace
	Tasks     int
}

// WorkspaceLoad counts tasks per workspace, in workspace order. Tasks whose
// workspace is unknown are not counted.
func WorkspaceLoad(tasks []models.Task, workspaces []models.Workspace) []WorkspaceCount {
	counts := make(map[string]int, len(workspaces))
	for _, t := range tasks {
		counts[t.WorkspaceID]++
	}

	load := make([]WorkspaceCount, len(workspaces))
	for i, ws := range workspaces {
		load[i] = WorkspaceCount{Workspace: ws, Tasks: counts[ws.ID]}
	}
	return load
}

// Slice is one segment of the status split
type Slice struct {
	Status models.TaskStatus
	Count  int
}

// StatusSplit returns completed then pending, the order the chart uses
func StatusSplit(tasks []models.Task) []Slice {
	s := Summarize(tasks)
	return []Slice{
		{Status: models.StatusCompleted, Count: s.Completed},
		{Status: models.StatusPending, Count: s.Pending},
	}
}
