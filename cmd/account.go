package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/repositories"
	"github.com/desertthunder/tubelist/internal/services"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/desertthunder/tubelist/internal/tasks"
)

// accountTokens is the stored CLI account as a [tasks.TokenSource].
//
// Each call runs the record through the refresher and writes it back to the store when it changed,
// so a refresh done by one command is visible to the next.
type accountTokens struct {
	refresher services.TokenRefresher
	store     repositories.TokenStore
	email     string

	mu  sync.Mutex
	rec models.TokenRecord
}

func (a *accountTokens) AccessToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rec.Failed() {
		return "", fmt.Errorf("%w: run 'tubelist auth login' again", shared.ErrRefreshFailed)
	}

	next := a.refresher.EnsureValidToken(ctx, a.rec)
	if next != a.rec {
		a.rec = next
		if err := a.store.Save(ctx, a.email, next); err != nil {
			return "", fmt.Errorf("failed to store refreshed token: %w", err)
		}
	}

	if next.Failed() {
		return "", fmt.Errorf("%w: run 'tubelist auth login' again", shared.ErrRefreshFailed)
	}
	return next.AccessToken, nil
}

// account loads the most recently signed-in account.
func (r *Runner) account(ctx context.Context) (*accountTokens, error) {
	tm, err := r.tokenManager()
	if err != nil {
		return nil, err
	}
	if err := r.openStores(ctx, r.cliStore()); err != nil {
		return nil, err
	}

	email, rec, err := r.tokens.Latest(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("%w: run 'tubelist auth login' first", shared.ErrNotAuthenticated)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load stored token: %w", err)
	}

	return &accountTokens{refresher: tm, store: r.tokens, email: email, rec: rec}, nil
}

// engine builds a [tasks.PlaylistEngine] for the stored account.
func (r *Runner) engine(ctx context.Context) (*tasks.PlaylistEngine, *accountTokens, error) {
	acct, err := r.account(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tasks.NewPlaylistEngine(r.youtube, acct, r.httpClient, r.logger), acct, nil
}
