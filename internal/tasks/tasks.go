// package tasks implements long-running playlist operations.
package tasks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/services"
	"github.com/desertthunder/tubelist/internal/shared"
)

// TokenSource yields an access token that is usable right now.
//
// Implementations refresh expired tokens; a failed refresh is reported as [shared.ErrRefreshFailed].
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a [TokenSource] for a token that never changes, such as an API key.
type StaticToken string

func (s StaticToken) AccessToken(context.Context) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty token", shared.ErrMissingArgument)
	}
	return string(s), nil
}

// PlaylistEngine runs export operations against a playlist fetcher.
type PlaylistEngine struct {
	youtube services.PlaylistFetcher
	tokens  TokenSource
	client  *http.Client // cover image downloads; nil skips covers
	logger  *log.Logger
	now     func() time.Time
}

// NewPlaylistEngine creates a PlaylistEngine. client may be nil.
func NewPlaylistEngine(youtube services.PlaylistFetcher, tokens TokenSource, client *http.Client, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = log.Default()
	}
	return &PlaylistEngine{youtube: youtube, tokens: tokens, client: client, logger: logger, now: time.Now}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *PlaylistEngine) ready() error {
	if e.youtube == nil || e.tokens == nil {
		return fmt.Errorf("%w: playlist engine not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

// Playlists lists the signed-in user's playlists.
func (e *PlaylistEngine) Playlists(ctx context.Context, progress chan<- ProgressUpdate) ([]models.Playlist, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	e.sendProgress(progress, ProgressUpdate{Phase: FetchPlaylists, Step: 1, Total: 1, Message: "Fetching your playlists..."})

	token, err := e.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	list, err := e.youtube.FetchPlaylists(ctx, token)
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Export fetches every item of p.
func (e *PlaylistEngine) Export(ctx context.Context, progress chan<- ProgressUpdate, p models.Playlist) (*models.PlaylistExport, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.export(ctx, progress, p, 1, 1)
}

func (e *PlaylistEngine) export(ctx context.Context, progress chan<- ProgressUpdate, p models.Playlist, step, total int) (*models.PlaylistExport, error) {
	e.sendProgress(progress, fetchingItemsUpdate(step, total, p))

	token, err := e.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	items, err := e.youtube.FetchAllPlaylistItems(ctx, token, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items of %s: %w", p.ID, err)
	}

	export := &models.PlaylistExport{Playlist: p, Items: items, ExportedAt: e.now().UTC()}
	e.sendProgress(progress, foundItemsUpdate(step, total, export))
	return export, nil
}

// SelectPlaylists picks playlists by ID or case-insensitive title, in the order of refs.
//
// An empty refs selects every playlist. An unknown ref is an [shared.ErrNotFound] error.
func SelectPlaylists(all []models.Playlist, refs []string) ([]models.Playlist, error) {
	if len(refs) == 0 {
		return all, nil
	}

	selected := make([]models.Playlist, 0, len(refs))
	for _, ref := range refs {
		found := false
		for _, p := range all {
			if p.ID == ref || strings.EqualFold(p.Snippet.Title, ref) {
				selected = append(selected, p)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: no playlist with id or title %q", shared.ErrNotFound, ref)
		}
	}
	return selected, nil
}
