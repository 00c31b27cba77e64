package auth

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

type fakeProvider struct {
	mu sync.Mutex

	user       *models.User
	err        error
	googleErr  error
	restored   *models.User
	signOutErr error

	signOuts      int
	displayName   string
	verifications int
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{UID: "u1", Email: email}, nil
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeProvider) SignInWithGoogle(ctx context.Context) (*models.User, error) {
	if f.googleErr != nil {
		return nil, f.googleErr
	}
	return f.user, nil
}

func (f *fakeProvider) UpdateDisplayName(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.displayName = name
	return nil
}

func (f *fakeProvider) SendVerification(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications++
	return nil
}

func (f *fakeProvider) Restore(ctx context.Context) (*models.User, error) {
	return f.restored, nil
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return f.signOutErr
}

func receive(t *testing.T, ch <-chan *models.User) *models.User {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(time.Second):
		t.Fatal("no session value received")
		return nil
	}
}

func TestSignIn_Verified(t *testing.T) {
	p := &fakeProvider{user: &models.User{UID: "u1", Email: "a@b.c", EmailVerified: true}}
	g := NewGateway(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)
	sessions := g.Sessions(ctx)
	assert.Nil(t, receive(t, sessions))

	res, err := g.SignIn(ctx, "a@b.c", "secret1")
	require.NoError(t, err)
	require.NotNil(t, res.User)
	assert.False(t, res.NeedsVerification())

	u := receive(t, sessions)
	require.NotNil(t, u)
	assert.Equal(t, "u1", u.UID)
	assert.Equal(t, "u1", g.Current().UID)
}

func TestSignIn_UnverifiedIsSignedOut(t *testing.T) {
	p := &fakeProvider{user: &models.User{UID: "u1", Email: "", EmailVerified: false}}
	g := NewGateway(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g.Start(ctx)
	sessions := g.Sessions(ctx)
	receive(t, sessions)

	res, err := g.SignIn(ctx, "typed@b.c", "secret1")
	require.NoError(t, err)
	assert.Nil(t, res.User)
	assert.True(t, res.NeedsVerification())
	assert.Equal(t, "typed@b.c", res.VerifyEmail, "submitted email echoed")
	assert.Equal(t, 1, p.signOuts)
	assert.Nil(t, g.Current())
	assert.Nil(t, receive(t, sessions))
}

func TestSignIn_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		msg  string
	}{
		{"invalid credential", remote.Errorf(remote.CodeInvalidCredential, "INVALID_LOGIN_CREDENTIALS"), KindInvalidCredentials, "Email or password is incorrect"},
		{"not found", remote.Errorf(remote.CodeUserNotFound, "EMAIL_NOT_FOUND"), KindInvalidCredentials, "Email or password is incorrect"},
		{"wrong password", remote.Errorf(remote.CodeWrongPassword, "INVALID_PASSWORD"), KindInvalidCredentials, "Email or password is incorrect"},
		{"raw passthrough", remote.Errorf("auth/too-many-requests", "TOO_MANY_ATTEMPTS_TRY_LATER"), KindUnknown, "TOO_MANY_ATTEMPTS_TRY_LATER"},
		{"email in use is not a sign-in kind", remote.Errorf(remote.CodeEmailInUse, "EMAIL_EXISTS"), KindUnknown, "EMAIL_EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGateway(&fakeProvider{err: tt.err}, nil)
			_, err := g.SignIn(context.Background(), "a@b.c", "pw")
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.msg, err.Error())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestRegister(t *testing.T) {
	p := &fakeProvider{}
	g := NewGateway(p, nil)

	res, err := g.Register(context.Background(), "Ada", "ada@b.c", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@b.c", res.VerifyEmail)
	assert.Nil(t, res.User)
	assert.Equal(t, "Ada", p.displayName)
	assert.Equal(t, 1, p.verifications)
	assert.Equal(t, 1, p.signOuts)
	assert.Nil(t, g.Current())
}

func TestRegister_ErrorMapping(t *testing.T) {
	g := NewGateway(&fakeProvider{err: remote.Errorf(remote.CodeEmailInUse, "EMAIL_EXISTS")}, nil)
	_, err := g.Register(context.Background(), "", "a@b.c", "secret1")
	assert.Equal(t, KindEmailInUse, KindOf(err))
	assert.Equal(t, "User already exists. Please sign in", err.Error())

	g = NewGateway(&fakeProvider{err: remote.Errorf(remote.CodeWeakPassword, "WEAK_PASSWORD")}, nil)
	_, err = g.Register(context.Background(), "", "a@b.c", "123")
	assert.Equal(t, KindWeakPassword, KindOf(err))
	assert.Equal(t, "Password should be at least 6 characters", err.Error())

	g = NewGateway(&fakeProvider{err: errors.New("")}, nil)
	_, err = g.Register(context.Background(), "", "a@b.c", "123")
	assert.Equal(t, "Registration failed", err.Error())
}

func TestSignInWithGoogle_CancelIsSilent(t *testing.T) {
	for _, cause := range []error{
		context.Canceled,
		remote.Errorf(remote.CodePopupClosed, "closed"),
	} {
		g := NewGateway(&fakeProvider{googleErr: cause}, nil)
		res, err := g.SignInWithGoogle(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, res.User)
		assert.False(t, res.NeedsVerification())
	}
}

func TestSignInWithGoogle_Unverified(t *testing.T) {
	p := &fakeProvider{user: &models.User{UID: "g1", Email: "g@b.c"}}
	g := NewGateway(p, nil)

	res, err := g.SignInWithGoogle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "g@b.c", res.VerifyEmail)
	assert.Equal(t, 1, p.signOuts)
}

func TestSignInWithGoogle_Failure(t *testing.T) {
	g := NewGateway(&fakeProvider{googleErr: errors.New("")}, nil)
	_, err := g.SignInWithGoogle(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Google Authentication failed", err.Error())
}

func TestSignOut_FailureIsNotSurfaced(t *testing.T) {
	p := &fakeProvider{
		user:       &models.User{UID: "u1", EmailVerified: true},
		signOutErr: errors.New("network down"),
	}
	g := NewGateway(p, nil)
	_, err := g.SignIn(context.Background(), "a@b.c", "pw")
	require.NoError(t, err)

	g.SignOut(context.Background())
	assert.Nil(t, g.Current())
}

func TestStart_RestoresVerifiedSession(t *testing.T) {
	p := &fakeProvider{restored: &models.User{UID: "u9", EmailVerified: true}}
	g := NewGateway(p, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions := g.Sessions(ctx)
	g.Start(ctx)

	u := receive(t, sessions)
	require.NotNil(t, u)
	assert.Equal(t, "u9", u.UID)
}

func TestStart_UnverifiedRestoreIsDropped(t *testing.T) {
	p := &fakeProvider{restored: &models.User{UID: "u9"}}
	g := NewGateway(p, nil)
	g.Start(context.Background())
	assert.Nil(t, g.Current())
	assert.Equal(t, 1, p.signOuts)
}

func TestSessions_CoalescesAndCloses(t *testing.T) {
	g := NewGateway(&fakeProvider{}, nil)
	g.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	sessions := g.Sessions(ctx)

	g.setSession(&models.User{UID: "a", EmailVerified: true})
	g.setSession(&models.User{UID: "b", EmailVerified: true})

	u := receive(t, sessions)
	require.NotNil(t, u)
	assert.Equal(t, "b", u.UID, "only the newest value is kept")

	cancel()
	_, open := <-sessions
	for open {
		_, open = <-sessions
	}
	assert.False(t, open)
}
