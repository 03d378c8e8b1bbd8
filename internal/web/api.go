package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/tubelist/internal/formatter"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/services"
	"github.com/desertthunder/tubelist/internal/session"
	"github.com/desertthunder/tubelist/internal/shared"
)

// apiChannelPlaylists proxies a channel's playlists lookup with the server API key.
//
// 400 when the channel id or key is missing; provider failures keep the provider's status and body.
func (a *App) apiChannelPlaylists(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" || a.apiKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Channel ID and API key are required."})
		return
	}

	list, err := a.youtube.ChannelPlaylists(r.Context(), a.apiKey, channelID)
	if err != nil {
		if apiErr, ok := services.AsAPIError(err); ok {
			a.logger.Warn("channel playlists lookup rejected", "channel", channelID, "status", apiErr.StatusCode)
			writeJSON(w, apiErr.StatusCode, map[string]any{
				"error":   "Failed to fetch playlists",
				"details": apiErr.Detail,
			})
			return
		}

		a.logger.Error("Error fetching playlists", "channel", channelID, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrMissingArgument) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{
			"error":   "An error occurred while fetching playlists.",
			"details": err.Error(),
		})
		return
	}

	if len(list.Items) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No playlists found."})
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (a *App) apiPlaylists(w http.ResponseWriter, r *http.Request, s *session.Session) {
	list, err := a.youtube.FetchPlaylists(r.Context(), s.Token.AccessToken)
	if err != nil {
		a.providerError(w, r, jsonMode, "Failed to fetch playlists", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *App) apiPlaylistItems(w http.ResponseWriter, r *http.Request, s *session.Session) {
	items, err := a.youtube.FetchAllPlaylistItems(r.Context(), s.Token.AccessToken, r.PathValue("playlistID"))
	if err != nil {
		a.providerError(w, r, jsonMode, "Failed to fetch playlist items", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) apiSavedPlaylists(w http.ResponseWriter, r *http.Request, s *session.Session) {
	saved, err := a.playlists.ListByOwner(r.Context(), s.Profile.Email)
	if err != nil {
		a.logger.Error("failed to list saved playlists", "email", s.Profile.Email, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to load saved playlists"})
		return
	}
	if saved == nil {
		saved = []*models.SavedPlaylist{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": saved})
}

// apiPlaylistExport sends every video of a playlist as a file download.
//
// ?format= takes any export format name (default json); ?title= names the playlist in the document.
func (a *App) apiPlaylistExport(w http.ResponseWriter, r *http.Request, s *session.Session) {
	format, err := formatter.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	id := r.PathValue("playlistID")
	items, err := a.youtube.FetchAllPlaylistItems(r.Context(), s.Token.AccessToken, id)
	if err != nil {
		a.providerError(w, r, jsonMode, "Failed to fetch playlist items", err)
		return
	}

	title := r.URL.Query().Get("title")
	if title == "" {
		title = id
	}
	export := &models.PlaylistExport{
		Playlist:   models.Playlist{ID: id, Snippet: models.PlaylistSnippet{Title: title}},
		Items:      items,
		ExportedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := formatter.Render(&buf, export, format); err != nil {
		a.logger.Error("failed to render export", "playlist", id, "format", format, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to render export"})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, downloadName(id), format.Extension()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// downloadName keeps the characters YouTube uses in ids and drops the rest.
func downloadName(id string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, id)
	if name == "" {
		return "playlist"
	}
	return name
}
