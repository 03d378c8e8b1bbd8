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

// PlaylistRepository persists [models.SavedPlaylist] rows.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Save inserts a playlist, keeping the existing row when the YouTube playlist id is already stored.
//
// Reports whether a new row was written.
func (r *PlaylistRepository) Save(ctx context.Context, playlist *models.SavedPlaylist) (bool, error) {
	if err := playlist.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO playlists (id, youtube_playlist_id, title, description, thumbnail_url, owner_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(youtube_playlist_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query,
		playlist.ID,
		playlist.YouTubePlaylistID,
		playlist.Title,
		playlist.Description,
		playlist.ThumbnailURL,
		playlist.OwnerEmail,
		playlist.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// SaveAll saves every playlist of list for ownerEmail and returns how many were new.
func (r *PlaylistRepository) SaveAll(ctx context.Context, ownerEmail string, list []models.Playlist) (int, error) {
	created := 0
	for _, p := range list {
		ok, err := r.Save(ctx, models.NewSavedPlaylist(p, ownerEmail))
		if err != nil {
			return created, fmt.Errorf("playlist %s: %w", p.ID, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// GetByYouTubeID retrieves a saved playlist by its YouTube id
func (r *PlaylistRepository) GetByYouTubeID(ctx context.Context, youtubeID string) (*models.SavedPlaylist, error) {
	query := `
		SELECT id, youtube_playlist_id, title, description, thumbnail_url, owner_email, created_at
		FROM playlists
		WHERE youtube_playlist_id = ?
	`

	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, query, youtubeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: playlist %s", shared.ErrNotFound, youtubeID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}
	return playlist, nil
}

// ListByOwner retrieves the playlists saved for ownerEmail, oldest first
func (r *PlaylistRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*models.SavedPlaylist, error) {
	query := `
		SELECT id, youtube_playlist_id, title, description, thumbnail_url, owner_email, created_at
		FROM playlists
		WHERE owner_email = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*models.SavedPlaylist{}
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// DeleteByOwner removes every playlist saved for ownerEmail
func (r *PlaylistRepository) DeleteByOwner(ctx context.Context, ownerEmail string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM playlists WHERE owner_email = ?`, ownerEmail)
	if err != nil {
		return 0, fmt.Errorf("failed to delete playlists: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row scanner) (*models.SavedPlaylist, error) {
	var p models.SavedPlaylist
	err := row.Scan(&p.ID, &p.YouTubePlaylistID, &p.Title, &p.Description, &p.ThumbnailURL, &p.OwnerEmail, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
