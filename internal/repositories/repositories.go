// package repositories provides persistence layer implementations for tokens and playlists.
package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
)

// TokenStore mirrors session token records outside the cookie.
type TokenStore interface {
	// Save creates or replaces the record for email and marks it as the latest.
	Save(ctx context.Context, email string, rec models.TokenRecord) error

	// Get returns the record for email or [shared.ErrNotFound].
	Get(ctx context.Context, email string) (models.TokenRecord, error)

	// Latest returns the most recently saved record and its email, or [shared.ErrNotFound].
	Latest(ctx context.Context) (string, models.TokenRecord, error)

	// Delete removes the record for email. Deleting a missing record is not an error.
	Delete(ctx context.Context, email string) error

	// Name identifies the backend in logs.
	Name() string
}

// NopTokenStore discards writes and reports every lookup as not found.
type NopTokenStore struct{}

func (NopTokenStore) Save(context.Context, string, models.TokenRecord) error { return nil }

func (NopTokenStore) Get(_ context.Context, email string) (models.TokenRecord, error) {
	return models.TokenRecord{}, fmt.Errorf("%w: token for %s", shared.ErrNotFound, email)
}

func (NopTokenStore) Latest(context.Context) (string, models.TokenRecord, error) {
	return "", models.TokenRecord{}, fmt.Errorf("%w: no stored token", shared.ErrNotFound)
}

func (NopTokenStore) Delete(context.Context, string) error { return nil }

func (NopTokenStore) Name() string { return "none" }
