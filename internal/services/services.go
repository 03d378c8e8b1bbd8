// package services talks to Google's OAuth endpoints and the YouTube Data API.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
)

// PlaylistFetcher is the read side of the YouTube Data API used by the web app, CLI, and TUI.
type PlaylistFetcher interface {
	// FetchPlaylists returns the signed-in user's playlists. A 404 yields an empty list.
	FetchPlaylists(ctx context.Context, accessToken string) (*models.PlaylistList, error)

	// FetchAllPlaylistItems walks every page of a playlist and returns the concatenated items.
	FetchAllPlaylistItems(ctx context.Context, accessToken, playlistID string) ([]models.PlaylistItem, error)

	// ChannelPlaylists returns a channel's public playlists using a server API key.
	ChannelPlaylists(ctx context.Context, apiKey, channelID string) (*models.PlaylistList, error)

	// PublicPlaylistItems walks every page of a public playlist using a server API key.
	PublicPlaylistItems(ctx context.Context, apiKey, playlistID string) ([]models.PlaylistItem, error)
}

// TokenRefresher keeps a session's token record usable.
type TokenRefresher interface {
	// EnsureValidToken returns rec unchanged while it is fresh, otherwise the outcome of one refresh attempt.
	EnsureValidToken(ctx context.Context, rec models.TokenRecord) models.TokenRecord
}

// APIError is a non-2xx response from a provider endpoint.
//
// Detail holds the decoded JSON error body when the provider sent one, otherwise the raw text.
type APIError struct {
	StatusCode int
	Status     string
	Detail     any
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api error (status %d): %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("api error: status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// Message extracts the human readable message from a Google style error body.
func (e *APIError) Message() string {
	switch d := e.Detail.(type) {
	case string:
		return d
	case map[string]any:
		if inner, ok := d["error"].(map[string]any); ok {
			if msg, ok := inner["message"].(string); ok {
				return msg
			}
		}
		if msg, ok := d["error_description"].(string); ok {
			return msg
		}
		if msg, ok := d["error"].(string); ok {
			return msg
		}
	}
	return ""
}

// AsAPIError unwraps err into an [APIError] when it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}

	var detail any
	if err := json.Unmarshal(body, &detail); err == nil && detail != nil {
		apiErr.Detail = detail
	} else if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Detail = text
	}
	return apiErr
}

// authorizer applies a credential to an outgoing request.
type authorizer func(req *http.Request)

func bearer(accessToken string) authorizer {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

func apiKey(key string) authorizer {
	return func(req *http.Request) {
		q := req.URL.Query()
		q.Set("key", key)
		req.URL.RawQuery = q.Encode()
	}
}
