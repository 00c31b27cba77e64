package emulator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
	"github.com/tgienger/lumina/internal/tasks"
)

func openTestEmulator(t *testing.T) (*Emulator, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emulator.db")
	e, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, path
}

func TestSignUp_Validation(t *testing.T) {
	e, _ := openTestEmulator(t)
	ctx := context.Background()

	_, err := e.SignUp(ctx, "not-an-email", "secret1")
	assert.Equal(t, remote.CodeInvalidEmail, remote.CodeOf(err))

	_, err = e.SignUp(ctx, "a@b.io", "12345")
	assert.Equal(t, remote.CodeWeakPassword, remote.CodeOf(err))

	u, err := e.SignUp(ctx, "a@b.io", "123456")
	require.NoError(t, err)
	assert.False(t, u.EmailVerified)
	assert.NotEmpty(t, u.UID)

	_, err = e.SignUp(ctx, "A@B.io", "abcdef")
	assert.Equal(t, remote.CodeEmailInUse, remote.CodeOf(err))
}

func TestSignIn(t *testing.T) {
	e, _ := openTestEmulator(t)
	ctx := context.Background()

	_, err := e.SignUp(ctx, "ada@lumina.dev", "secret1")
	require.NoError(t, err)
	require.NoError(t, e.SignOut(ctx))

	_, err = e.SignIn(ctx, "ada@lumina.dev", "wrong!!")
	assert.Equal(t, remote.CodeInvalidCredential, remote.CodeOf(err))

	_, err = e.SignIn(ctx, "nobody@lumina.dev", "secret1")
	assert.Equal(t, remote.CodeInvalidCredential, remote.CodeOf(err))

	u, err := e.SignIn(ctx, "ada@lumina.dev", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@lumina.dev", u.Email)
}

func TestDisplayNameAndVerify(t *testing.T) {
	e, path := openTestEmulator(t)
	ctx := context.Background()

	assert.Error(t, e.UpdateDisplayName(ctx, "Ada"), "requires a session")

	_, err := e.SignUp(ctx, "ada@lumina.dev", "secret1")
	require.NoError(t, err)
	require.NoError(t, e.UpdateDisplayName(ctx, "Ada"))
	require.NoError(t, e.SendVerification(ctx))

	require.NoError(t, e.Verify(ctx, "ada@lumina.dev"))
	assert.Equal(t, remote.CodeUserNotFound, remote.CodeOf(e.Verify(ctx, "ghost@lumina.dev")))

	// a second process sees the persisted session and the verification
	other, err := Open(path, nil)
	require.NoError(t, err)
	defer other.Close()

	u, err := other.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "Ada", u.DisplayName)
	assert.True(t, u.EmailVerified)
}

func TestRestore_NoSession(t *testing.T) {
	e, _ := openTestEmulator(t)
	u, err := e.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestGoogleNotAllowed(t *testing.T) {
	e, _ := openTestEmulator(t)
	_, err := e.SignInWithGoogle(context.Background())
	assert.Equal(t, remote.CodeOperationDenied, remote.CodeOf(err))
}

func next(t *testing.T, ch <-chan tasks.Snapshot) tasks.Snapshot {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "watch closed")
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return tasks.Snapshot{}
	}
}

func TestWatch_AddAndToggle(t *testing.T) {
	e, _ := openTestEmulator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	e.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	u, err := e.SignUp(ctx, "ada@lumina.dev", "secret1")
	require.NoError(t, err)

	snaps := e.Watch(ctx, u.UID)
	first := next(t, snaps)
	require.NoError(t, first.Err)
	assert.Empty(t, first.Tasks)

	id1, err := e.AddTask(ctx, models.Task{UserID: u.UID, Title: "one", Status: models.StatusPending, WorkspaceID: "ws-1"})
	require.NoError(t, err)
	next(t, snaps)

	id2, err := e.AddTask(ctx, models.Task{UserID: u.UID, Title: "two", Status: models.StatusPending, WorkspaceID: "ws-1"})
	require.NoError(t, err)
	s := next(t, snaps)
	require.Len(t, s.Tasks, 2)
	assert.Equal(t, id2, s.Tasks[0].ID, "newest first")
	assert.Equal(t, id1, s.Tasks[1].ID)

	require.NoError(t, e.SetStatus(ctx, id1, models.StatusCompleted))
	s = next(t, snaps)
	assert.Equal(t, models.StatusCompleted, s.Tasks[1].Status)

	cancel()
	for range snaps {
	}
}

func TestPermissionDenied(t *testing.T) {
	e, _ := openTestEmulator(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := e.AddTask(ctx, models.Task{UserID: "someone", Title: "x"})
	assert.Equal(t, remote.CodePermissionDenied, remote.CodeOf(err))

	u, err := e.SignUp(ctx, "ada@lumina.dev", "secret1")
	require.NoError(t, err)

	_, err = e.AddTask(ctx, models.Task{UserID: "someone-else", Title: "x"})
	assert.Equal(t, remote.CodePermissionDenied, remote.CodeOf(err))

	assert.Equal(t, remote.CodeNotFound, remote.CodeOf(e.SetStatus(ctx, "missing", models.StatusCompleted)))

	s := next(t, e.Watch(ctx, "someone-else"))
	assert.Equal(t, remote.CodePermissionDenied, remote.CodeOf(s.Err))
	assert.Equal(t, tasks.SyncPermission, tasks.ClassifySyncError(s.Err))

	s = next(t, e.Watch(ctx, u.UID))
	assert.NoError(t, s.Err)
}
