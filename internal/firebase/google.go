package firebase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
)

type callback struct {
	code string
	err  error
}

// SignInWithGoogle runs the OAuth authorization code flow with PKCE against
// a loopback redirect, then exchanges the Google ID token for a Firebase
// session. Cancelling ctx abandons the flow.
func (c *Client) SignInWithGoogle(ctx context.Context) (*models.User, error) {
	if c.opts.GoogleClientID == "" {
		return nil, remote.Errorf(remote.CodeOperationDenied, "Google sign-in is not configured (google.client_id).")
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	endpoint := c.opts.GoogleEndpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	conf := &oauth2.Config{
		ClientID:     c.opts.GoogleClientID,
		ClientSecret: c.opts.GoogleClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  fmt.Sprintf("http://%s/callback", ln.Addr()),
		Scopes:       []string{"openid", "email", "profile"},
	}

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callback, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callback
		switch {
		case q.Get("state") != state:
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			res.err = remote.Errorf(remote.CodePopupClosed, "Google sign-in was not completed: %s", q.Get("error"))
		default:
			res.code = q.Get("code")
		}
		fmt.Fprintln(w, "Lumina sign-in complete. You can close this window.")
		select {
		case results <- res:
		default:
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Warn("oauth callback server stopped", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	open := c.opts.OpenBrowser
	if open == nil {
		open = openBrowser
	}
	if err := open(authURL); err != nil {
		c.log.Warn("could not open browser; visit the URL manually",
			zap.String("url", authURL), zap.Error(err))
	}

	var res callback
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := conf.Exchange(exchangeCtx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange google code: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, errors.New("google token response has no id_token")
	}

	return c.signInWithIdp(ctx, idToken)
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait()
	return nil
}
