package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRecord is returned by Validate when a provider record is missing required fields.
var ErrInvalidRecord = errors.New("invalid record")

// Validator is implemented by records decoded from provider responses.
type Validator interface {
	Validate() error // Validate checks if the record's data is usable and returns an error if not
}

// TokenError marks a token record whose refresh failed.
type TokenError string

// RefreshFailed is set when refreshing the access token did not succeed.
const RefreshFailed TokenError = "RefreshAccessTokenError"

// TokenRecord is the per-user token state stored in the session.
//
// RefreshToken may be empty. ExpiresAt is in epoch seconds.
type TokenRecord struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    int64      `json:"expires_at"`
	Error        TokenError `json:"error,omitempty"`
}

// Expired reports whether the access token is past its expiry at now.
func (t TokenRecord) Expired(now time.Time) bool {
	return now.Unix() > t.ExpiresAt
}

// Failed reports whether the last refresh attempt failed.
func (t TokenRecord) Failed() bool {
	return t.Error == RefreshFailed
}

// Usable reports whether the access token can be sent to the provider.
func (t TokenRecord) Usable() bool {
	return t.AccessToken != "" && t.Error == ""
}

// ExpiresTime returns ExpiresAt as a [time.Time].
func (t TokenRecord) ExpiresTime() time.Time {
	return time.Unix(t.ExpiresAt, 0)
}

// Thumbnail is one rendition of an image.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Thumbnails maps size names (default, medium, high, standard, maxres) to renditions.
type Thumbnails map[string]Thumbnail

// Best returns the URL of the largest available thumbnail or an empty string.
func (t Thumbnails) Best() string {
	for _, k := range []string{"maxres", "standard", "high", "medium", "default"} {
		if th, ok := t[k]; ok && th.URL != "" {
			return th.URL
		}
	}
	return ""
}

// URL returns the URL for a named size, falling back to [Thumbnails.Best].
func (t Thumbnails) URL(size string) string {
	if th, ok := t[size]; ok && th.URL != "" {
		return th.URL
	}
	return t.Best()
}

// PlaylistSnippet holds the descriptive fields of a playlist.
type PlaylistSnippet struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelID    string     `json:"channelId,omitempty"`
	ChannelTitle string     `json:"channelTitle,omitempty"`
	PublishedAt  time.Time  `json:"publishedAt"`
	Thumbnails   Thumbnails `json:"thumbnails,omitempty"`
}

// Playlist represents a playlist resource.
type Playlist struct {
	ID      string          `json:"id"`
	Snippet PlaylistSnippet `json:"snippet"`
}

// Validate implements [Validator].
func (p Playlist) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: playlist without id", ErrInvalidRecord)
	}
	return nil
}

// ResourceID identifies the video a playlist item points to.
type ResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

// PlaylistItemSnippet holds the descriptive fields of a playlist item.
type PlaylistItemSnippet struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelTitle string     `json:"videoOwnerChannelTitle,omitempty"`
	Position     int        `json:"position"`
	PublishedAt  time.Time  `json:"publishedAt"`
	Thumbnails   Thumbnails `json:"thumbnails,omitempty"`
	ResourceID   ResourceID `json:"resourceId"`
}

// PlaylistItem represents a video entry in a playlist.
type PlaylistItem struct {
	ID      string              `json:"id"`
	Snippet PlaylistItemSnippet `json:"snippet"`
}

// Validate implements [Validator].
func (i PlaylistItem) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("%w: playlist item without id", ErrInvalidRecord)
	}
	return nil
}

// VideoID returns the id of the referenced video.
func (i PlaylistItem) VideoID() string {
	return i.Snippet.ResourceID.VideoID
}

// WatchURL returns the public watch link for the item's video.
func (i PlaylistItem) WatchURL() string {
	if i.VideoID() == "" {
		return ""
	}
	return "https://youtube.com/watch?v=" + i.VideoID()
}

// PlaylistList is a page of playlists.
type PlaylistList struct {
	Items         []Playlist `json:"items"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

// Validate implements [Validator].
func (l *PlaylistList) Validate() error {
	for i, p := range l.Items {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// Profile is the signed-in user's identity from the userinfo endpoint.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Validate implements [Validator].
func (p Profile) Validate() error {
	if p.Email == "" {
		return fmt.Errorf("%w: profile without email", ErrInvalidRecord)
	}
	return nil
}

// SavedPlaylist is a playlist persisted to the local database.
type SavedPlaylist struct {
	ID                string    `json:"id"`
	YouTubePlaylistID string    `json:"youtube_playlist_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	ThumbnailURL      string    `json:"thumbnail_url,omitempty"`
	OwnerEmail        string    `json:"owner_email"`
	CreatedAt         time.Time `json:"created_at"`
}

// Validate implements [Validator].
func (s *SavedPlaylist) Validate() error {
	if s.YouTubePlaylistID == "" {
		return fmt.Errorf("%w: youtube playlist id is required", ErrInvalidRecord)
	}
	if s.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidRecord)
	}
	if s.OwnerEmail == "" {
		return fmt.Errorf("%w: owner email is required", ErrInvalidRecord)
	}
	return nil
}

// NewSavedPlaylist builds a SavedPlaylist from a provider playlist.
func NewSavedPlaylist(p Playlist, ownerEmail string) *SavedPlaylist {
	return &SavedPlaylist{
		YouTubePlaylistID: p.ID,
		Title:             p.Snippet.Title,
		Description:       p.Snippet.Description,
		ThumbnailURL:      p.Snippet.Thumbnails.URL("high"),
		OwnerEmail:        ownerEmail,
	}
}

// PlaylistExport is a playlist together with every one of its items.
type PlaylistExport struct {
	Playlist   Playlist       `json:"playlist"`
	Items      []PlaylistItem `json:"items"`
	ExportedAt time.Time      `json:"exported_at"`
}
