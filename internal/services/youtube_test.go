package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/tubelist/internal/shared"
)

func item(id string) map[string]any {
	return map[string]any{
		"id": id,
		"snippet": map[string]any{
			"title":      "Video " + id,
			"resourceId": map[string]any{"kind": "youtube#video", "videoId": "v" + id},
		},
	}
}

// pagedServer serves playlistItems pages keyed by the incoming pageToken.
func pagedServer(t *testing.T, pages map[string]map[string]any, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if r.URL.Path != "/playlistItems" {
			t.Errorf("expected path /playlistItems, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer header, got %q", r.Header.Get("Authorization"))
		}
		q := r.URL.Query()
		if q.Get("maxResults") != "50" || q.Get("part") != "snippet" || q.Get("playlistId") != "PL1" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if !q.Has("pageToken") {
			t.Error("expected pageToken parameter on every request")
		}

		page, ok := pages[q.Get("pageToken")]
		if !ok {
			http.Error(w, `{"error":{"code":500,"message":"unknown page"}}`, http.StatusInternalServerError)
			return
		}
		if status, ok := page["status"].(int); ok {
			w.WriteHeader(status)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}))
}

func TestYouTubeService(t *testing.T) {
	ctx := context.Background()

	t.Run("NewYouTubeService", func(t *testing.T) {
		t.Run("creates service with default URL", func(t *testing.T) {
			svc := NewYouTubeService("", nil)
			if svc.baseURL != DefaultYouTubeBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", DefaultYouTubeBaseURL, svc.baseURL)
			}
			if svc.maxPages != DefaultMaxPages {
				t.Errorf("expected default page cap %d, got %d", DefaultMaxPages, svc.maxPages)
			}
		})

		t.Run("creates service with custom URL", func(t *testing.T) {
			customURL := "http://localhost:9000"
			if svc := NewYouTubeService(customURL, nil); svc.baseURL != customURL {
				t.Errorf("expected baseURL to be %s, got %s", customURL, svc.baseURL)
			}
		})
	})

	t.Run("FetchAllPlaylistItems", func(t *testing.T) {
		t.Run("single empty page", func(t *testing.T) {
			var requests atomic.Int32
			server := pagedServer(t, map[string]map[string]any{
				"": {"items": []any{}},
			}, &requests)
			defer server.Close()

			items, err := NewYouTubeService(server.URL, server.Client()).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if items == nil || len(items) != 0 {
				t.Errorf("expected empty non-nil result, got %#v", items)
			}
			if requests.Load() != 1 {
				t.Errorf("expected 1 request, got %d", requests.Load())
			}
		})

		t.Run("absent items field counts as empty", func(t *testing.T) {
			var requests atomic.Int32
			server := pagedServer(t, map[string]map[string]any{"": {}}, &requests)
			defer server.Close()

			items, err := NewYouTubeService(server.URL, server.Client()).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(items) != 0 {
				t.Errorf("expected no items, got %d", len(items))
			}
		})

		t.Run("two pages concatenate in order", func(t *testing.T) {
			var requests atomic.Int32
			server := pagedServer(t, map[string]map[string]any{
				"":  {"items": []any{item("A"), item("B")}, "nextPageToken": "X"},
				"X": {"items": []any{item("C")}},
			}, &requests)
			defer server.Close()

			items, err := NewYouTubeService(server.URL, server.Client()).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			want := []string{"A", "B", "C"}
			if len(items) != len(want) {
				t.Fatalf("expected %d items, got %d", len(want), len(items))
			}
			for i, id := range want {
				if items[i].ID != id {
					t.Errorf("item %d: expected %s, got %s", i, id, items[i].ID)
				}
			}
			if items[2].VideoID() != "vC" {
				t.Errorf("expected video id vC, got %s", items[2].VideoID())
			}
			if requests.Load() != 2 {
				t.Errorf("expected 2 requests, got %d", requests.Load())
			}
		})

		t.Run("N pages make N requests", func(t *testing.T) {
			const n = 5
			pages := map[string]map[string]any{}
			for i := range n {
				token := ""
				if i > 0 {
					token = fmt.Sprintf("p%d", i)
				}
				page := map[string]any{"items": []any{item(fmt.Sprint(i))}}
				if i < n-1 {
					page["nextPageToken"] = fmt.Sprintf("p%d", i+1)
				}
				pages[token] = page
			}

			var requests atomic.Int32
			server := pagedServer(t, pages, &requests)
			defer server.Close()

			items, err := NewYouTubeService(server.URL, server.Client()).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(items) != n {
				t.Errorf("expected %d items, got %d", n, len(items))
			}
			if requests.Load() != n {
				t.Errorf("expected %d requests, got %d", n, requests.Load())
			}
		})

		t.Run("failure on page k stops the walk", func(t *testing.T) {
			var requests atomic.Int32
			server := pagedServer(t, map[string]map[string]any{
				"":   {"items": []any{item("A")}, "nextPageToken": "p2"},
				"p2": {"items": []any{item("B")}, "nextPageToken": "p3"},
				"p3": {"status": http.StatusForbidden, "error": map[string]any{"code": 403, "message": "quotaExceeded"}},
			}, &requests)
			defer server.Close()

			items, err := NewYouTubeService(server.URL, server.Client()).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if err == nil {
				t.Fatal("expected error")
			}
			if items != nil {
				t.Errorf("expected no partial result, got %d items", len(items))
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}

			apiErr, ok := AsAPIError(err)
			if !ok {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.StatusCode != http.StatusForbidden {
				t.Errorf("expected status 403, got %d", apiErr.StatusCode)
			}
			if apiErr.Message() != "quotaExceeded" {
				t.Errorf("expected provider message, got %q", apiErr.Message())
			}
			if requests.Load() != 3 {
				t.Errorf("expected 3 requests, got %d", requests.Load())
			}
		})

		t.Run("malformed body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items": "nope"`))
			}))
			defer server.Close()

			_, err := NewYouTubeService(server.URL, server.Client()).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("item without id is malformed", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items": [{"snippet": {"title": "x"}}]}`))
			}))
			defer server.Close()

			_, err := NewYouTubeService(server.URL, server.Client()).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("page cap", func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := requests.Add(1)
				json.NewEncoder(w).Encode(map[string]any{
					"items":         []any{item(fmt.Sprint(n))},
					"nextPageToken": fmt.Sprintf("p%d", n),
				})
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL, server.Client())
			svc.SetMaxPages(3)

			_, err := svc.FetchAllPlaylistItems(ctx, "tok", "PL1")
			if !errors.Is(err, shared.ErrPageLimitExceeded) {
				t.Errorf("expected ErrPageLimitExceeded, got %v", err)
			}
			if requests.Load() != 3 {
				t.Errorf("expected 3 requests before stopping, got %d", requests.Load())
			}
		})

		t.Run("missing playlist id", func(t *testing.T) {
			_, err := NewYouTubeService("http://127.0.0.1:1", nil).FetchAllPlaylistItems(ctx, "tok", "")
			if !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})

		t.Run("transport failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			url := server.URL
			server.Close()

			_, err := NewYouTubeService(url, nil).FetchAllPlaylistItems(ctx, "tok", "PL1")
			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})
	})

	t.Run("PublicPlaylistItems", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("key") != "k" {
				t.Errorf("expected api key in query, got %s", r.URL.RawQuery)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("expected no authorization header with api key")
			}
			json.NewEncoder(w).Encode(map[string]any{"items": []any{item("A")}})
		}))
		defer server.Close()

		svc := NewYouTubeService(server.URL, server.Client())
		items, err := svc.PublicPlaylistItems(ctx, "k", "PL1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 1 {
			t.Errorf("expected 1 item, got %d", len(items))
		}

		if _, err := svc.PublicPlaylistItems(ctx, "", "PL1"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("FetchPlaylists", func(t *testing.T) {
		t.Run("returns playlists", func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				if r.URL.Path != "/playlists" {
					t.Errorf("expected path /playlists, got %s", r.URL.Path)
				}
				if r.URL.Query().Get("mine") != "true" || r.URL.Query().Get("part") != "snippet" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				if r.Header.Get("Authorization") != "Bearer tok" {
					t.Errorf("expected bearer header")
				}
				w.Write([]byte(`{"items":[{"id":"PL1","snippet":{"title":"Mix","publishedAt":"2024-01-02T03:04:05Z","thumbnails":{"high":{"url":"h.jpg"}}}}],"nextPageToken":"more"}`))
			}))
			defer server.Close()

			list, err := NewYouTubeService(server.URL, server.Client()).FetchPlaylists(ctx, "tok")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(list.Items) != 1 || list.Items[0].Snippet.Title != "Mix" {
				t.Errorf("unexpected playlists %#v", list.Items)
			}
			if list.Items[0].Snippet.Thumbnails.Best() != "h.jpg" {
				t.Errorf("expected thumbnail h.jpg")
			}
			if requests.Load() != 1 {
				t.Errorf("expected a single request, got %d", requests.Load())
			}
		})

		t.Run("404 yields empty items", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			}))
			defer server.Close()

			list, err := NewYouTubeService(server.URL, server.Client()).FetchPlaylists(ctx, "tok")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if list.Items == nil || len(list.Items) != 0 {
				t.Errorf("expected empty items, got %#v", list.Items)
			}
		})

		t.Run("other failures are errors", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			_, err := NewYouTubeService(server.URL, server.Client()).FetchPlaylists(ctx, "tok")
			apiErr, ok := AsAPIError(err)
			if !ok || apiErr.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401 APIError, got %v", err)
			}
		})
	})

	t.Run("ChannelPlaylists", func(t *testing.T) {
		t.Run("missing arguments make no request", func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
			}))
			defer server.Close()

			svc := NewYouTubeService(server.URL, server.Client())
			for _, args := range [][2]string{{"", "UC1"}, {"k", ""}, {"", ""}} {
				if _, err := svc.ChannelPlaylists(ctx, args[0], args[1]); !errors.Is(err, shared.ErrMissingArgument) {
					t.Errorf("ChannelPlaylists(%q, %q): expected ErrMissingArgument, got %v", args[0], args[1], err)
				}
			}
			if requests.Load() != 0 {
				t.Errorf("expected no requests, got %d", requests.Load())
			}
		})

		t.Run("passes through provider error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("channelId") != "UC1" || r.URL.Query().Get("key") != "k" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"code":400,"message":"API key not valid."}}`))
			}))
			defer server.Close()

			_, err := NewYouTubeService(server.URL, server.Client()).ChannelPlaylists(ctx, "k", "UC1")
			apiErr, ok := AsAPIError(err)
			if !ok {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", apiErr.StatusCode)
			}
			detail, ok := apiErr.Detail.(map[string]any)
			if !ok || detail["error"] == nil {
				t.Errorf("expected decoded detail body, got %#v", apiErr.Detail)
			}
		})

		t.Run("returns playlists", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"items":[{"id":"PL1","snippet":{"title":"Uploads"}}]}`))
			}))
			defer server.Close()

			list, err := NewYouTubeService(server.URL, server.Client()).ChannelPlaylists(ctx, "k", "UC1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(list.Items) != 1 {
				t.Errorf("expected 1 playlist, got %d", len(list.Items))
			}
		})
	})
}

func TestAPIError(t *testing.T) {
	tc := []struct {
		name   string
		detail any
		want   string
	}{
		{"google error", map[string]any{"error": map[string]any{"message": "bad"}}, "bad"},
		{"oauth error", map[string]any{"error": "invalid_grant", "error_description": "expired"}, "expired"},
		{"plain text", "oops", "oops"},
		{"nothing", nil, ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: 400, Detail: tt.detail}
			if got := err.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("APIError should wrap ErrAPIRequest")
			}
		})
	}
}
