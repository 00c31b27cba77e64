package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBackend struct {
	mu        sync.Mutex
	snapshots []Snapshot
	added     []models.Task
	addErr    error
	setErr    error
	statusSet map[string]models.TaskStatus
}

func (f *fakeBackend) Watch(ctx context.Context, userID string) <-chan Snapshot {
	ch := make(chan Snapshot)
	go func() {
		defer close(ch)
		for _, s := range f.snapshots {
			select {
			case ch <- s:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return ch
}

func (f *fakeBackend) AddTask(ctx context.Context, task models.Task) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return "", f.addErr
	}
	f.added = append(f.added, task)
	return "doc-1", nil
}

func (f *fakeBackend) SetStatus(ctx context.Context, taskID string, status models.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if f.statusSet == nil {
		f.statusSet = map[string]models.TaskStatus{}
	}
	f.statusSet[taskID] = status
	return nil
}

func next(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed early")
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestSubscribe_SnapshotsReplaceAndSortDescending(t *testing.T) {
	now := time.Now()
	backend := &fakeBackend{snapshots: []Snapshot{
		{Tasks: []models.Task{
			{ID: "old", CreatedAt: now.Add(-time.Hour)},
			{ID: "new", CreatedAt: now},
		}},
		{Tasks: nil},
	}}
	store := NewStore(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	updates := store.Subscribe(ctx, "u1")

	first := next(t, updates)
	require.NoError(t, first.Err)
	require.Len(t, first.Tasks, 2)
	assert.Equal(t, "new", first.Tasks[0].ID)
	assert.Equal(t, "old", first.Tasks[1].ID)

	second := next(t, updates)
	assert.NoError(t, second.Err)
	assert.Empty(t, second.Tasks)

	cancel()
	for range updates {
	}
}

func TestSubscribe_ErrorBanners(t *testing.T) {
	backend := &fakeBackend{snapshots: []Snapshot{
		{Err: remote.Errorf(remote.CodePermissionDenied, "Missing or insufficient permissions.")},
		{Err: remote.Errorf(remote.CodeFailedPrecondition, "The query requires an index.")},
		{Err: errors.New("connection reset")},
	}}
	store := NewStore(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := store.Subscribe(ctx, "u1")

	assert.Equal(t, BannerPermission, next(t, updates).Banner)
	assert.Equal(t, BannerIndexing, next(t, updates).Banner)

	other := next(t, updates)
	assert.Error(t, other.Err)
	assert.Empty(t, other.Banner, "other errors are logged only")
}

func TestSubscribe_EmptyUserIsClosed(t *testing.T) {
	store := NewStore(&fakeBackend{}, nil)
	_, ok := <-store.Subscribe(context.Background(), "")
	assert.False(t, ok)
}

func TestSubscribe_CancelWithPendingSnapshot(t *testing.T) {
	backend := &fakeBackend{snapshots: []Snapshot{{}, {}, {}}}
	store := NewStore(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	updates := store.Subscribe(ctx, "u1")
	next(t, updates)
	cancel()

	// the channel closes without the consumer reading the rest
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription did not shut down")
		}
	}
}

func TestCreate(t *testing.T) {
	backend := &fakeBackend{}
	store := NewStore(backend, nil)

	id, err := store.Create(context.Background(), models.Task{
		ID:          "ignored",
		Title:       "Ship v1",
		WorkspaceID: "ws-1",
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", id)

	require.Len(t, backend.added, 1)
	added := backend.added[0]
	assert.Empty(t, added.ID)
	assert.Equal(t, "u1", added.UserID)
	assert.Equal(t, models.StatusPending, added.Status)
}

func TestCreate_RequiresSession(t *testing.T) {
	backend := &fakeBackend{}
	_, err := NewStore(backend, nil).Create(context.Background(), models.Task{Title: "x"}, "")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Empty(t, backend.added)
}

func TestCreate_Failure(t *testing.T) {
	backend := &fakeBackend{addErr: remote.Errorf(remote.CodeUnavailable, "down")}
	_, err := NewStore(backend, nil).Create(context.Background(), models.Task{Title: "x"}, "u1")
	assert.Error(t, err)
}

func TestToggleStatus(t *testing.T) {
	current := []models.Task{
		{ID: "a", Status: models.StatusPending},
		{ID: "b", Status: models.StatusCompleted},
	}

	backend := &fakeBackend{}
	store := NewStore(backend, nil)

	assert.True(t, store.ToggleStatus(context.Background(), current, "a"))
	assert.True(t, store.ToggleStatus(context.Background(), current, "b"))
	assert.Equal(t, map[string]models.TaskStatus{
		"a": models.StatusCompleted,
		"b": models.StatusPending,
	}, backend.statusSet)

	assert.False(t, store.ToggleStatus(context.Background(), current, "missing"))
	assert.Len(t, backend.statusSet, 2, "unknown id is a no-op")
}

func TestToggleStatus_FailureIsSwallowed(t *testing.T) {
	backend := &fakeBackend{setErr: errors.New("offline")}
	store := NewStore(backend, nil)
	ok := store.ToggleStatus(context.Background(), []models.Task{{ID: "a", Status: models.StatusPending}}, "a")
	assert.False(t, ok)
}

func TestClassifySyncError(t *testing.T) {
	assert.Equal(t, SyncPermission, ClassifySyncError(remote.Errorf(remote.CodePermissionDenied, "")))
	assert.Equal(t, SyncIndexing, ClassifySyncError(errors.New("FAILED_PRECONDITION: The query requires an index")))
	assert.Equal(t, SyncOther, ClassifySyncError(errors.New("boom")))
}
