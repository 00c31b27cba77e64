package firebase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
)

type authResponse struct {
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	ExpiresIn     string `json:"expiresIn"`
}

type tokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
	} `json:"users"`
}

func errNoSession() error {
	return remote.Errorf(remote.CodeUnauthenticated, "No user is signed in.")
}

func (c *Client) identity(ctx context.Context, method string, body, out any) error {
	endpoint := fmt.Sprintf("%s/accounts:%s?key=%s", c.opts.AuthURL, method, url.QueryEscape(c.opts.APIKey))
	return c.postJSON(ctx, endpoint, "", body, out)
}

// SignUp creates an email/password account
func (c *Client) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	var resp authResponse
	err := c.identity(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.startSession(resp.LocalID, resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	return c.lookup(ctx)
}

// SignIn signs in with email and password
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	var resp authResponse
	err := c.identity(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.startSession(resp.LocalID, resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	return c.lookup(ctx)
}

// signInWithIdp exchanges a Google ID token for a Firebase session
func (c *Client) signInWithIdp(ctx context.Context, googleIDToken string) (*models.User, error) {
	form := url.Values{}
	form.Set("id_token", googleIDToken)
	form.Set("providerId", "google.com")

	var resp authResponse
	err := c.identity(ctx, "signInWithIdp", map[string]any{
		"postBody":            form.Encode(),
		"requestUri":          "http://localhost",
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	c.startSession(resp.LocalID, resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	return &models.User{
		UID:           resp.LocalID,
		DisplayName:   resp.DisplayName,
		Email:         resp.Email,
		EmailVerified: resp.EmailVerified,
	}, nil
}

func (c *Client) lookup(ctx context.Context) (*models.User, error) {
	token, err := c.idToken(ctx)
	if err != nil {
		return nil, err
	}

	var resp lookupResponse
	if err := c.identity(ctx, "lookup", map[string]any{"idToken": token}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, remote.Errorf(remote.CodeTokenExpired, "The user's credential is no longer valid.")
	}
	u := resp.Users[0]
	return &models.User{
		UID:           u.LocalID,
		DisplayName:   u.DisplayName,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}, nil
}

// UpdateDisplayName sets the display name of the signed-in account
func (c *Client) UpdateDisplayName(ctx context.Context, name string) error {
	token, err := c.idToken(ctx)
	if err != nil {
		return err
	}

	var resp authResponse
	err = c.identity(ctx, "update", map[string]any{
		"idToken":           token,
		"displayName":       name,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.IDToken != "" {
		c.mu.Lock()
		if c.sess != nil {
			c.sess.idToken = resp.IDToken
			if resp.RefreshToken != "" {
				c.sess.refreshToken = resp.RefreshToken
			}
			c.sess.expiry = c.expiry(resp.ExpiresIn)
		}
		c.mu.Unlock()
	}
	return nil
}

// SendVerification mails a verification link to the signed-in account
func (c *Client) SendVerification(ctx context.Context) error {
	token, err := c.idToken(ctx)
	if err != nil {
		return err
	}
	return c.identity(ctx, "sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     token,
	}, nil)
}

// Restore resumes the session from the persisted refresh token. A revoked
// or expired token clears the store and reports no session.
func (c *Client) Restore(ctx context.Context) (*models.User, error) {
	if c.tokens == nil {
		return nil, nil
	}
	rt, err := c.tokens.LoadRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if rt == "" {
		return nil, nil
	}

	resp, err := c.exchangeRefresh(ctx, rt)
	if remote.CodeOf(err) == remote.CodeTokenExpired {
		c.log.Info("stored session is no longer valid")
		c.clearSession()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	c.startSession(resp.UserID, resp.IDToken, resp.RefreshToken, resp.ExpiresIn)
	return c.lookup(ctx)
}

// SignOut drops the session and the persisted refresh token
func (c *Client) SignOut(context.Context) error {
	return c.clearSession()
}

func (c *Client) exchangeRefresh(ctx context.Context, refreshToken string) (tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	var resp tokenResponse
	endpoint := fmt.Sprintf("%s?key=%s", c.opts.TokenURL, url.QueryEscape(c.opts.APIKey))
	err := c.postForm(ctx, endpoint, form, &resp)
	return resp, err
}

// idToken returns the current ID token, refreshing it when it has expired
func (c *Client) idToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	s := c.sess
	if s == nil {
		c.mu.Unlock()
		return "", errNoSession()
	}
	if c.now().Before(s.expiry.Add(-time.Minute)) {
		token := s.idToken
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	if err := c.refreshSession(ctx); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return "", errNoSession()
	}
	return c.sess.idToken, nil
}

func (c *Client) refreshSession(ctx context.Context) error {
	c.mu.Lock()
	if c.sess == nil {
		c.mu.Unlock()
		return errNoSession()
	}
	rt := c.sess.refreshToken
	c.mu.Unlock()

	resp, err := c.exchangeRefresh(ctx, rt)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.sess != nil && c.sess.refreshToken == rt {
		c.sess.idToken = resp.IDToken
		if resp.RefreshToken != "" {
			c.sess.refreshToken = resp.RefreshToken
		}
		c.sess.expiry = c.expiry(resp.ExpiresIn)
		rt = c.sess.refreshToken
	}
	c.mu.Unlock()

	c.persist(rt)
	return nil
}

func (c *Client) startSession(uid, idToken, refreshToken, expiresIn string) {
	c.mu.Lock()
	c.sess = &session{
		uid:          uid,
		idToken:      idToken,
		refreshToken: refreshToken,
		expiry:       c.expiry(expiresIn),
	}
	c.mu.Unlock()

	c.persist(refreshToken)
	c.startRefresh()
}

func (c *Client) clearSession() error {
	c.stopRefresh()

	c.mu.Lock()
	c.sess = nil
	c.mu.Unlock()

	if c.tokens == nil {
		return nil
	}
	return c.tokens.SaveRefreshToken("")
}

func (c *Client) persist(refreshToken string) {
	if c.tokens == nil {
		return
	}
	if err := c.tokens.SaveRefreshToken(refreshToken); err != nil {
		c.log.Warn("failed to persist refresh token", zap.Error(err))
	}
}

func (c *Client) expiry(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return c.now().Add(time.Duration(secs) * time.Second)
}

// startRefresh schedules the background ID token refresh once per session
func (c *Client) startRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refresh != nil {
		return
	}

	sched := cron.New()
	_, err := sched.AddFunc(refreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.refreshSession(ctx); err != nil {
			c.log.Warn("scheduled token refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		c.log.Error("failed to schedule token refresh", zap.Error(err))
		return
	}
	sched.Start()
	c.refresh = sched
}

func (c *Client) stopRefresh() {
	c.mu.Lock()
	sched := c.refresh
	c.refresh = nil
	c.mu.Unlock()

	if sched != nil {
		<-sched.Stop().Done()
	}
}
