// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/tubelist/internal/models"
)

// FakeFetcher is an in-memory [services.PlaylistFetcher].
//
// Playlists are returned by FetchPlaylists and ChannelPlaylists; Items is keyed by playlist ID.
// Errs, also keyed by playlist ID, fails the items lookup for that playlist.
type FakeFetcher struct {
	Playlists []models.Playlist
	Items     map[string][]models.PlaylistItem
	Errs      map[string]error
	ListErr   error

	mu    sync.Mutex
	calls []string
}

func (f *FakeFetcher) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

// Calls returns the recorded calls in order, e.g. "items:PL1".
func (f *FakeFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeFetcher) FetchPlaylists(ctx context.Context, token string) (*models.PlaylistList, error) {
	f.record("playlists")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return &models.PlaylistList{Items: append([]models.Playlist{}, f.Playlists...)}, nil
}

func (f *FakeFetcher) FetchAllPlaylistItems(ctx context.Context, token, playlistID string) ([]models.PlaylistItem, error) {
	f.record("items:" + playlistID)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.Errs[playlistID]; err != nil {
		return nil, err
	}
	return append([]models.PlaylistItem{}, f.Items[playlistID]...), nil
}

func (f *FakeFetcher) ChannelPlaylists(ctx context.Context, apiKey, channelID string) (*models.PlaylistList, error) {
	f.record("channel:" + channelID)
	return f.FetchPlaylists(ctx, apiKey)
}

func (f *FakeFetcher) PublicPlaylistItems(ctx context.Context, apiKey, playlistID string) ([]models.PlaylistItem, error) {
	return f.FetchAllPlaylistItems(ctx, apiKey, playlistID)
}

// SamplePlaylist builds a playlist with a title and a high thumbnail.
func SamplePlaylist(id, title string) models.Playlist {
	return models.Playlist{
		ID: id,
		Snippet: models.PlaylistSnippet{
			Title:        title,
			Description:  title + " description",
			ChannelTitle: "Test Channel",
			PublishedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
			Thumbnails:   models.Thumbnails{"high": {URL: "https://i.ytimg.com/" + id + ".jpg"}},
		},
	}
}

// SampleItems builds n items with videos vid0..vid{n-1}.
func SampleItems(n int) []models.PlaylistItem {
	items := make([]models.PlaylistItem, n)
	for i := range items {
		items[i] = models.PlaylistItem{
			ID: fmt.Sprintf("item%d", i),
			Snippet: models.PlaylistItemSnippet{
				Title:        fmt.Sprintf("Video %d", i),
				ChannelTitle: "Uploader",
				Position:     i,
				PublishedAt:  time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
				ResourceID:   models.ResourceID{Kind: "youtube#video", VideoID: fmt.Sprintf("vid%d", i)},
			},
		}
	}
	return items
}

// SampleExport builds an export of a playlist with n items.
func SampleExport(id, title string, n int) *models.PlaylistExport {
	return &models.PlaylistExport{
		Playlist:   SamplePlaylist(id, title),
		Items:      SampleItems(n),
		ExportedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
