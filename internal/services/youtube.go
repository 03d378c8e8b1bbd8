// YouTube Data API v3 implementation of [PlaylistFetcher]
//
// Response shapes follow https://developers.google.com/youtube/v3/docs
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
)

const (
	// DefaultYouTubeBaseURL is the YouTube Data API v3 root.
	DefaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultMaxPages bounds a single pagination walk.
	DefaultMaxPages = 1000

	// pageSize is the provider's maximum maxResults.
	pageSize = 50
)

// playlistItemPage is one page of the playlistItems endpoint.
type playlistItemPage struct {
	Items         []models.PlaylistItem `json:"items"`
	NextPageToken string                `json:"nextPageToken"`
}

// YouTubeService implements [PlaylistFetcher] for the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	httpClient *http.Client
	maxPages   int
}

// NewYouTubeService creates a YouTube Data API client. An empty baseURL uses [DefaultYouTubeBaseURL].
func NewYouTubeService(baseURL string, httpClient *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = DefaultYouTubeBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &YouTubeService{
		baseURL:    baseURL,
		httpClient: httpClient,
		maxPages:   DefaultMaxPages,
	}
}

// SetMaxPages sets the page cap for pagination walks. Zero or less removes the cap.
func (y *YouTubeService) SetMaxPages(n int) {
	y.maxPages = n
}

// doRequest performs a GET against endpoint and decodes a 2xx body into result.
func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, query url.Values, auth authorizer, result any) error {
	apiURL := y.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	auth(req)
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp, body)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}

	if v, ok := result.(models.Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// FetchPlaylists retrieves the playlists owned by the token's user.
//
// Calls GET /playlists?part=snippet&mine=true once. A 404 is reported as no playlists.
func (y *YouTubeService) FetchPlaylists(ctx context.Context, accessToken string) (*models.PlaylistList, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("mine", "true")

	var list models.PlaylistList
	if err := y.doRequest(ctx, "/playlists", query, bearer(accessToken), &list); err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusNotFound {
			return &models.PlaylistList{Items: []models.Playlist{}}, nil
		}
		return nil, err
	}

	if list.Items == nil {
		list.Items = []models.Playlist{}
	}
	return &list, nil
}

// FetchAllPlaylistItems returns every item of playlistID in page order using an OAuth access token.
func (y *YouTubeService) FetchAllPlaylistItems(ctx context.Context, accessToken, playlistID string) ([]models.PlaylistItem, error) {
	return y.collectItems(ctx, bearer(accessToken), playlistID)
}

// PublicPlaylistItems returns every item of a public playlist using an API key.
func (y *YouTubeService) PublicPlaylistItems(ctx context.Context, key, playlistID string) ([]models.PlaylistItem, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: api key", shared.ErrMissingArgument)
	}
	return y.collectItems(ctx, apiKey(key), playlistID)
}

// collectItems follows nextPageToken until it is empty, one request at a time.
//
// The first request carries an empty pageToken. Any failed page discards what was accumulated.
func (y *YouTubeService) collectItems(ctx context.Context, auth authorizer, playlistID string) ([]models.PlaylistItem, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	items := []models.PlaylistItem{}
	cursor := ""

	for pages := 0; ; pages++ {
		if y.maxPages > 0 && pages >= y.maxPages {
			return nil, fmt.Errorf("%w: playlist %s has more than %d pages", shared.ErrPageLimitExceeded, playlistID, y.maxPages)
		}

		query := url.Values{}
		query.Set("part", "snippet")
		query.Set("maxResults", strconv.Itoa(pageSize))
		query.Set("playlistId", playlistID)
		query.Set("pageToken", cursor)

		var page playlistItemPage
		if err := y.doRequest(ctx, "/playlistItems", query, auth, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch playlist items page %d: %w", pages+1, err)
		}

		for i, item := range page.Items {
			if err := item.Validate(); err != nil {
				return nil, fmt.Errorf("%w: page %d item %d: %w", shared.ErrMalformedResponse, pages+1, i, err)
			}
		}

		items = append(items, page.Items...)
		cursor = page.NextPageToken

		if cursor == "" {
			return items, nil
		}
	}
}

// ChannelPlaylists retrieves a channel's public playlists with a server API key.
//
// Both arguments are required; nothing is sent when either is empty.
func (y *YouTubeService) ChannelPlaylists(ctx context.Context, key, channelID string) (*models.PlaylistList, error) {
	if key == "" || channelID == "" {
		return nil, fmt.Errorf("%w: channel id and api key are required", shared.ErrMissingArgument)
	}

	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("channelId", channelID)

	var list models.PlaylistList
	if err := y.doRequest(ctx, "/playlists", query, apiKey(key), &list); err != nil {
		return nil, err
	}

	if list.Items == nil {
		list.Items = []models.Playlist{}
	}
	return &list, nil
}
