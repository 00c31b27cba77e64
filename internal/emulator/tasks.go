package emulator

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
	"github.com/tgienger/lumina/internal/tasks"
)

// AddTask stores a task owned by the signed-in user
func (e *Emulator) AddTask(ctx context.Context, t models.Task) (string, error) {
	uid := e.currentUID()
	if uid == "" || t.UserID != uid {
		return "", errPermission()
	}

	rec := taskRecord{
		ID:          uuid.NewString(),
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		WorkspaceID: t.WorkspaceID,
		CategoryID:  t.CategoryID,
		CreatedAt:   e.now(),
	}
	if err := e.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return "", err
	}
	e.hub.notify(uid)
	return rec.ID, nil
}

// SetStatus updates the status of a task owned by the signed-in user
func (e *Emulator) SetStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	uid := e.currentUID()
	if uid == "" {
		return errPermission()
	}

	var rec taskRecord
	err := e.db.WithContext(ctx).Where("id = ?", taskID).First(&rec).Error
	if isNotFound(err) {
		return remote.Errorf(remote.CodeNotFound, "No document to update: tasks/%s", taskID)
	}
	if err != nil {
		return err
	}
	if rec.UserID != uid {
		return errPermission()
	}

	if err := e.db.WithContext(ctx).Model(&rec).Update("status", string(status)).Error; err != nil {
		return err
	}
	e.hub.notify(uid)
	return nil
}

// Watch emits the user's tasks, newest first, now and after every write
func (e *Emulator) Watch(ctx context.Context, userID string) <-chan tasks.Snapshot {
	out := make(chan tasks.Snapshot, 1)
	changed, unsubscribe := e.hub.subscribe(userID)

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case out <- e.snapshot(ctx, userID):
			case <-ctx.Done():
				return
			}

			select {
			case <-changed:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (e *Emulator) snapshot(ctx context.Context, userID string) tasks.Snapshot {
	if uid := e.currentUID(); uid == "" || uid != userID {
		return tasks.Snapshot{Err: errPermission()}
	}

	var recs []taskRecord
	if err := e.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&recs).Error; err != nil {
		e.log.Warn("task query failed", zap.Error(err))
		return tasks.Snapshot{Err: remote.Errorf(remote.CodeUnavailable, "%v", err)}
	}

	list := make([]models.Task, len(recs))
	for i, r := range recs {
		list[i] = toTask(r)
	}
	return tasks.Snapshot{Tasks: list}
}

// hub fans out change notifications per user
type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]chan struct{})}
}

func (h *hub) subscribe(userID string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan struct{}, 1)
	id := h.next
	h.next++
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]chan struct{})
	}
	h.subs[userID][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[userID], id)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
	}
}

func (h *hub) notify(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[userID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
