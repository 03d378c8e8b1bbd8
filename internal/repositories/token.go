package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
)

// TokenRepository implements [TokenStore] on the SQLite tokens table.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Name() string { return "sqlite" }

// Save upserts the record for email
func (r *TokenRepository) Save(ctx context.Context, email string, rec models.TokenRecord) error {
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	query := `
		INSERT INTO tokens (email, access_token, refresh_token, expires_at, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(email) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			error = excluded.error,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		email,
		rec.AccessToken,
		rec.RefreshToken,
		rec.ExpiresAt,
		string(rec.Error),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Get retrieves the record for email
func (r *TokenRepository) Get(ctx context.Context, email string) (models.TokenRecord, error) {
	query := `SELECT access_token, refresh_token, expires_at, error FROM tokens WHERE email = ?`

	rec, err := scanToken(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.TokenRecord{}, fmt.Errorf("%w: token for %s", shared.ErrNotFound, email)
	}
	if err != nil {
		return models.TokenRecord{}, fmt.Errorf("failed to query token: %w", err)
	}
	return rec, nil
}

// Latest retrieves the most recently updated record
func (r *TokenRepository) Latest(ctx context.Context) (string, models.TokenRecord, error) {
	query := `
		SELECT email, access_token, refresh_token, expires_at, error
		FROM tokens
		ORDER BY updated_at DESC, rowid DESC
		LIMIT 1
	`

	var (
		email string
		rec   models.TokenRecord
		tErr  string
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&email, &rec.AccessToken, &rec.RefreshToken, &rec.ExpiresAt, &tErr)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.TokenRecord{}, fmt.Errorf("%w: no stored token", shared.ErrNotFound)
	}
	if err != nil {
		return "", models.TokenRecord{}, fmt.Errorf("failed to query latest token: %w", err)
	}
	rec.Error = models.TokenError(tErr)

	return email, rec, nil
}

// Delete removes the record for email
func (r *TokenRepository) Delete(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE email = ?`, email); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func scanToken(row *sql.Row) (models.TokenRecord, error) {
	var (
		rec  models.TokenRecord
		tErr string
	)
	if err := row.Scan(&rec.AccessToken, &rec.RefreshToken, &rec.ExpiresAt, &tErr); err != nil {
		return models.TokenRecord{}, err
	}
	rec.Error = models.TokenError(tErr)
	return rec, nil
}
