// Package firebase talks to the hosted Identity Toolkit, Secure Token and
// Firestore REST APIs. It implements auth.Provider and tasks.Backend.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tgienger/lumina/internal/logging"
	"github.com/tgienger/lumina/internal/remote"
)

// refreshSpec keeps the ID token, which lives one hour, ahead of expiry
const refreshSpec = "@every 45m"

// TokenStore persists the refresh token between runs.
type TokenStore interface {
	LoadRefreshToken() (string, error)
	SaveRefreshToken(token string) error
}

// Options configures a Client.
type Options struct {
	APIKey    string
	ProjectID string

	AuthURL      string
	TokenURL     string
	FirestoreURL string

	PollInterval time.Duration
	Timeout      time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	// GoogleEndpoint overrides the OAuth endpoint; zero means Google's
	GoogleEndpoint oauth2.Endpoint
	// OpenBrowser shows the consent page; nil uses the system browser
	OpenBrowser func(url string) error

	HTTPClient *http.Client
}

type session struct {
	uid          string
	idToken      string
	refreshToken string
	expiry       time.Time
}

// Client is a Firebase REST client holding at most one signed-in session.
type Client struct {
	opts   Options
	http   *http.Client
	tokens TokenStore
	log    *zap.Logger
	now    func() time.Time
	newID  func() string

	mu      sync.Mutex
	sess    *session
	refresh *cron.Cron

	// watchers are woken after this client's own writes
	wakeMu   sync.Mutex
	wakers   map[int]chan struct{}
	nextWake int
}

// New creates a client. tokens may be nil, in which case sessions are not
// persisted.
func New(opts Options, tokens TokenStore, logger *zap.Logger) *Client {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		opts:   opts,
		http:   hc,
		tokens: tokens,
		log:    logging.OrNop(logger).Named("firebase"),
		now:    time.Now,
		newID:  autoID,
	}
}

// Close stops the token refresh schedule
func (c *Client) Close() error {
	c.stopRefresh()
	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint, bearer string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPost, endpoint, bearer, body, out)
}

func (c *Client) sendJSON(ctx context.Context, method, endpoint, bearer string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return remote.Errorf(remote.CodeUnavailable, "%v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return remote.Errorf(remote.CodeUnavailable, "read response: %v", err)
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
