package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tubelist/internal/server"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

const defaultLoginTimeout = 5 * time.Minute

// AuthLogin signs in with Google through a one-shot local callback server and stores the token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	tm, err := r.tokenManager()
	if err != nil {
		return err
	}

	port := cmd.Int("port")
	timeout := cmd.Duration("timeout")
	tm = tm.WithRedirectURL(fmt.Sprintf("http://localhost:%d/callback", port))

	state := shared.GenerateID()
	handler := server.NewOAuthHandler(tm, state, "/callback")
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger))
	router.Handler(handler)

	srvCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(srvCtx, fmt.Sprintf("localhost:%d", port), router, r.logger)
	}()

	authURL := tm.AuthCodeURL(state)
	if cmd.Bool("no-browser") {
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	} else if err := r.opener(authURL); err != nil {
		r.logger.Warn("could not open browser", "error", err)
		r.writePlain("Open this URL to sign in:\n%s\n", authURL)
	} else {
		r.writePlain("Waiting for Google sign-in in your browser...\n")
	}

	var result server.OAuthResult
	select {
	case result = <-handler.Result():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("callback server failed: %w", err)
		}
		return fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, timeout)
	case <-srvCtx.Done():
		return fmt.Errorf("%w: no callback within %s", shared.ErrTimeout, timeout)
	}

	cancel()
	<-errCh

	if err := result.Error(); err != nil {
		return err
	}

	profile, err := tm.Profile(ctx, result.Token.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if err := r.openStores(ctx, r.cliStore()); err != nil {
		return err
	}
	if err := r.tokens.Save(ctx, profile.Email, result.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	r.logger.Info("signed in", "email", profile.Email, "store", r.tokens.Name())
	return r.writePlain("✓ Signed in as %s\n", profile.Email)
}

// AuthStatus reports the stored account and whether its token is usable.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(ctx, r.cliStore()); err != nil {
		return err
	}

	email, rec, err := r.tokens.Latest(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return r.writePlain("Not signed in. Run 'tubelist auth login'.\n")
	} else if err != nil {
		return err
	}

	status := "valid"
	switch {
	case rec.Failed():
		status = "refresh failed, sign in again"
	case rec.Expired(time.Now()) && rec.RefreshToken != "":
		status = "expired, refreshes on next use"
	case rec.Expired(time.Now()):
		status = "expired, sign in again"
	}

	r.writePlainHeader("Google account")
	r.writePlain("Email:   %s\n", email)
	r.writePlain("Expires: %s\n", humanize.Time(rec.ExpiresTime()))
	r.writePlain("Status:  %s\n", status)
	r.writePlain("Store:   %s\n", r.tokens.Name())
	return nil
}

// AuthLogout removes the stored token for the current account.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(ctx, r.cliStore()); err != nil {
		return err
	}

	email, _, err := r.tokens.Latest(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return r.writePlain("Not signed in.\n")
	} else if err != nil {
		return err
	}

	if err := r.tokens.Delete(ctx, email); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return r.writePlain("✓ Signed out %s\n", email)
}
