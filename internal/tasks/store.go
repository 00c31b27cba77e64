// Package tasks wraps the remote task collection: a live subscription to the
// signed-in user's tasks plus the two writes the app performs.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tgienger/lumina/internal/logging"
	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
)

// Banner texts shown for task store failures
const (
	BannerPermission = "Cloud connection limited. Check Firestore rules."
	BannerIndexing   = "System optimizing. Please wait a moment for data indexing..."
	BannerSaveFailed = "Failed to save task to cloud."
)

// ErrNoSession is returned by writes attempted without a signed-in user.
var ErrNoSession = errors.New("no active session")

// Snapshot is one delivery from a backend watch: the full task list owned by
// the user, or an error.
type Snapshot struct {
	Tasks []models.Task
	Err   error
}

// Backend is the remote document database holding tasks.
type Backend interface {
	// Watch streams snapshots until ctx is done, then closes the channel
	Watch(ctx context.Context, userID string) <-chan Snapshot
	// AddTask stores a new task; the backend assigns ID and CreatedAt
	AddTask(ctx context.Context, task models.Task) (string, error)
	SetStatus(ctx context.Context, taskID string, status models.TaskStatus) error
}

// SyncKind classifies subscription errors.
type SyncKind int

const (
	SyncOther SyncKind = iota
	SyncPermission
	SyncIndexing
)

// ClassifySyncError maps a subscription error to its kind.
func ClassifySyncError(err error) SyncKind {
	switch {
	case remote.CodeOf(err) == remote.CodePermissionDenied:
		return SyncPermission
	case remote.MentionsIndex(err):
		return SyncIndexing
	default:
		return SyncOther
	}
}

// Update is delivered to the subscriber for every snapshot.
type Update struct {
	// Tasks replaces the in-memory list when Err is nil
	Tasks []models.Task
	Err   error
	// Banner is non-empty when the error should be shown to the user
	Banner string
}

// Store is the task store used by the UI.
type Store struct {
	backend Backend
	log     *zap.Logger
}

// NewStore creates a store over backend
func NewStore(backend Backend, logger *zap.Logger) *Store {
	return &Store{backend: backend, log: logging.OrNop(logger).Named("tasks")}
}

// Subscribe watches the user's tasks, newest first. The returned channel is
// closed once ctx is cancelled and the watch has stopped. An empty userID
// yields a closed channel.
func (s *Store) Subscribe(ctx context.Context, userID string) <-chan Update {
	out := make(chan Update)
	if userID == "" {
		close(out)
		return out
	}

	snapshots := s.backend.Watch(ctx, userID)
	go func() {
		defer close(out)
		for snap := range snapshots {
			u := s.toUpdate(snap)
			select {
			case out <- u:
			case <-ctx.Done():
				// drain so the backend goroutine can exit
				for range snapshots {
				}
				return
			}
		}
	}()
	return out
}

func (s *Store) toUpdate(snap Snapshot) Update {
	if snap.Err == nil {
		list := append([]models.Task(nil), snap.Tasks...)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
		return Update{Tasks: list}
	}

	s.log.Error("tasks sync error", zap.Error(snap.Err))
	switch ClassifySyncError(snap.Err) {
	case SyncPermission:
		return Update{Err: snap.Err, Banner: BannerPermission}
	case SyncIndexing:
		return Update{Err: snap.Err, Banner: BannerIndexing}
	default:
		return Update{Err: snap.Err}
	}
}

// Create stores a new task owned by userID.
func (s *Store) Create(ctx context.Context, draft models.Task, userID string) (string, error) {
	if userID == "" {
		return "", ErrNoSession
	}

	draft.ID = ""
	draft.UserID = userID
	if draft.Status == "" {
		draft.Status = models.StatusPending
	}

	id, err := s.backend.AddTask(ctx, draft)
	if err != nil {
		s.log.Error("error adding task", zap.Error(err))
		return "", fmt.Errorf("add task: %w", err)
	}
	s.log.Info("task created", zap.String("id", id), zap.String("workspace", draft.WorkspaceID))
	return id, nil
}

// ToggleStatus flips the status of the task with the given id, looked up in
// the current list. Unknown ids are ignored and failures are only logged.
// It reports whether a write was attempted and succeeded.
func (s *Store) ToggleStatus(ctx context.Context, current []models.Task, id string) bool {
	var task *models.Task
	for i := range current {
		if current[i].ID == id {
			task = &current[i]
			break
		}
	}
	if task == nil {
		return false
	}

	next := task.Status.Toggle()
	if err := s.backend.SetStatus(ctx, id, next); err != nil {
		s.log.Error("error updating task status", zap.String("id", id), zap.Error(err))
		return false
	}
	return true
}
