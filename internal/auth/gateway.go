// Package auth is the session gateway in front of the authentication
// provider. It owns the verification gate: a session whose email is not
// verified is never emitted and is signed out immediately.
package auth

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tgienger/lumina/internal/logging"
	"github.com/tgienger/lumina/internal/models"
)

// Provider is the external authentication service.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignInWithGoogle(ctx context.Context) (*models.User, error)
	// UpdateDisplayName and SendVerification act on the signed-in account
	UpdateDisplayName(ctx context.Context, name string) error
	SendVerification(ctx context.Context) error
	// Restore resumes a persisted session; nil when there is none
	Restore(ctx context.Context) (*models.User, error)
	SignOut(ctx context.Context) error
}

// Result is the outcome of a sign-in or registration attempt.
type Result struct {
	// User is set when a verified session was established
	User *models.User
	// VerifyEmail is set when the account must be verified first
	VerifyEmail string
}

// NeedsVerification reports whether the verification screen should be shown
func (r Result) NeedsVerification() bool { return r.VerifyEmail != "" }

// Gateway wraps a Provider and publishes session changes.
type Gateway struct {
	provider Provider
	log      *zap.Logger

	mu      sync.Mutex
	ready   bool
	current *models.User
	subs    map[int]chan *models.User
	nextSub int
}

// NewGateway creates a gateway over provider
func NewGateway(provider Provider, logger *zap.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		log:      logging.OrNop(logger).Named("auth"),
		subs:     make(map[int]chan *models.User),
	}
}

// Start restores any persisted session and emits the first session value.
func (g *Gateway) Start(ctx context.Context) {
	user, err := g.provider.Restore(ctx)
	if err != nil {
		g.log.Warn("session restore failed", zap.Error(err))
		user = nil
	}
	if user != nil && !user.EmailVerified {
		g.signOutQuietly(ctx)
		user = nil
	}

	g.mu.Lock()
	g.ready = true
	g.mu.Unlock()
	g.setSession(user)
}

// Current returns the verified session user, or nil
func (g *Gateway) Current() *models.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil
	}
	u := *g.current
	return &u
}

// Sessions returns a channel carrying the latest session value. Only the
// newest value is buffered. The channel is closed when ctx is done.
func (g *Gateway) Sessions(ctx context.Context) <-chan *models.User {
	ch := make(chan *models.User, 1)

	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = ch
	if g.ready {
		ch <- copyUser(g.current)
	}
	g.mu.Unlock()

	go func() {
		<-ctx.Done()
		g.mu.Lock()
		delete(g.subs, id)
		close(ch)
		g.mu.Unlock()
	}()

	return ch
}

// Register creates the account, records the display name, sends the
// verification email and signs out again.
func (g *Gateway) Register(ctx context.Context, name, email, password string) (Result, error) {
	user, err := g.provider.SignUp(ctx, email, password)
	if err != nil {
		return Result{}, classify(opRegister, err)
	}
	defer g.signOutQuietly(ctx)

	eg, egctx := errgroup.WithContext(ctx)
	if name != "" {
		eg.Go(func() error { return g.provider.UpdateDisplayName(egctx, name) })
	}
	eg.Go(func() error { return g.provider.SendVerification(egctx) })
	if err := eg.Wait(); err != nil {
		return Result{}, classify(opRegister, err)
	}

	return Result{VerifyEmail: orDefault(user.Email, email)}, nil
}

// SignIn authenticates with email and password.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (Result, error) {
	user, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return Result{}, classify(opSignIn, err)
	}
	return g.gate(ctx, user, email), nil
}

// SignInWithGoogle runs the provider's Google flow. A cancelled flow returns
// an empty Result and no error.
func (g *Gateway) SignInWithGoogle(ctx context.Context) (Result, error) {
	user, err := g.provider.SignInWithGoogle(ctx)
	if err != nil {
		ae := classify(opGoogle, err)
		if ae.Kind == KindCancelled {
			g.log.Debug("google sign-in cancelled")
			return Result{}, nil
		}
		return Result{}, ae
	}
	return g.gate(ctx, user, ""), nil
}

// SignOut ends the session. Provider failures are only logged.
func (g *Gateway) SignOut(ctx context.Context) {
	g.signOutQuietly(ctx)
	g.setSession(nil)
}

func (g *Gateway) gate(ctx context.Context, user *models.User, submittedEmail string) Result {
	if !user.EmailVerified {
		g.signOutQuietly(ctx)
		g.setSession(nil)
		return Result{VerifyEmail: orDefault(user.Email, submittedEmail)}
	}
	g.setSession(user)
	return Result{User: copyUser(user)}
}

func (g *Gateway) signOutQuietly(ctx context.Context) {
	if err := g.provider.SignOut(ctx); err != nil && !errors.Is(err, context.Canceled) {
		g.log.Warn("sign out failed", zap.Error(err))
	}
}

func (g *Gateway) setSession(user *models.User) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.current = copyUser(user)
	for _, ch := range g.subs {
		// keep only the newest value
		select {
		case <-ch:
		default:
		}
		ch <- copyUser(user)
	}

	if user != nil {
		g.log.Info("session established", zap.String("uid", user.UID))
	} else {
		g.log.Info("session cleared")
	}
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
