package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/desertthunder/tubelist/internal/services"
	"github.com/desertthunder/tubelist/internal/session"
	"github.com/desertthunder/tubelist/internal/shared"
)

func (a *App) home(w http.ResponseWriter, r *http.Request) {
	if s, ok := sessionFrom(r); ok && !s.Token.Failed() {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	a.render(w, http.StatusOK, "home.html", pageData{Title: "YouTube Playlist Retriever"})
}

// dashboard lists the user's playlists and saves them when a playlist store is configured.
func (a *App) dashboard(w http.ResponseWriter, r *http.Request, s *session.Session) {
	list, err := a.youtube.FetchPlaylists(r.Context(), s.Token.AccessToken)
	if err != nil {
		a.providerError(w, r, pageMode, "Error fetching playlists", err)
		return
	}

	if a.playlists != nil && len(list.Items) > 0 {
		if n, err := a.playlists.SaveAll(r.Context(), s.Profile.Email, list.Items); err != nil {
			a.logger.Warn("failed to save playlists", "email", s.Profile.Email, "error", err)
		} else if n > 0 {
			a.logger.Debug("saved playlists", "email", s.Profile.Email, "count", n)
		}
	}

	a.render(w, http.StatusOK, "dashboard.html", pageData{
		Title:     "Your YouTube Playlists",
		Profile:   &s.Profile,
		Playlists: list.Items,
	})
}

// playlist lists every video of one of the user's playlists.
func (a *App) playlist(w http.ResponseWriter, r *http.Request, s *session.Session) {
	id := r.PathValue("playlistID")

	items, err := a.youtube.FetchAllPlaylistItems(r.Context(), s.Token.AccessToken, id)
	if err != nil {
		a.providerError(w, r, pageMode, "Error fetching playlist items", err)
		return
	}

	a.render(w, http.StatusOK, "playlist.html", pageData{
		Title:      "Playlist Videos",
		Profile:    &s.Profile,
		Items:      items,
		PlaylistID: id,
		BackURL:    "/dashboard",
	})
}

// channel shows the lookup form and, with ?channelId=, that channel's public playlists.
func (a *App) channel(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Channel Playlists", ChannelID: r.URL.Query().Get("channelId")}
	if s, ok := sessionFrom(r); ok {
		data.Profile = &s.Profile
	}

	if data.ChannelID == "" {
		a.render(w, http.StatusOK, "channel.html", data)
		return
	}
	if a.apiKey == "" {
		data.Message = "Channel lookups are not configured on this server."
		a.render(w, http.StatusServiceUnavailable, "channel.html", data)
		return
	}

	list, err := a.youtube.ChannelPlaylists(r.Context(), a.apiKey, data.ChannelID)
	if err != nil {
		a.providerError(w, r, pageMode, "Failed to fetch playlists", err)
		return
	}

	data.Playlists = list.Items
	if len(list.Items) == 0 {
		data.Message = "No playlists found."
	}
	a.render(w, http.StatusOK, "channel.html", data)
}

// channelPlaylist lists every video of a public playlist using the server API key.
func (a *App) channelPlaylist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("playlistID")
	data := pageData{Title: "Playlist Videos", PlaylistID: id, BackURL: "/channel"}
	if s, ok := sessionFrom(r); ok {
		data.Profile = &s.Profile
	}

	items, err := a.youtube.PublicPlaylistItems(r.Context(), a.apiKey, id)
	if err != nil {
		a.providerError(w, r, pageMode, "Error fetching playlist items", err)
		return
	}

	data.Items = items
	a.render(w, http.StatusOK, "playlist.html", data)
}

// providerError maps a fetch failure to a response.
//
// A provider 401 means the access token was revoked, so the session is dropped like a failed refresh.
func (a *App) providerError(w http.ResponseWriter, r *http.Request, mode responseMode, message string, err error) {
	if errors.Is(err, context.Canceled) {
		a.logger.Debug("client went away", "path", r.URL.Path)
		return
	}

	status := statusFor(err)
	apiErr, isAPI := services.AsAPIError(err)

	if isAPI && apiErr.StatusCode == http.StatusUnauthorized {
		if _, ok := sessionFrom(r); ok {
			a.logger.Warn("provider rejected access token", "path", r.URL.Path)
			a.reauthenticate(w, r, mode)
			return
		}
	}

	a.logger.Error(message, "path", r.URL.Path, "status", status, "error", err)

	if mode == jsonMode {
		body := map[string]any{"error": message}
		if isAPI {
			status = apiErr.StatusCode
			body["details"] = apiErr.Detail
		} else {
			body["details"] = err.Error()
		}
		writeJSON(w, status, body)
		return
	}

	detail := "Please try again later."
	if isAPI {
		if msg := apiErr.Message(); msg != "" {
			detail = msg
		} else {
			detail = apiErr.Status
		}
	}
	a.renderError(w, r, status, message+": "+detail)
}

// statusFor picks the HTTP status shown to the client for a fetch error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrNetwork),
		errors.Is(err, shared.ErrMalformedResponse),
		errors.Is(err, shared.ErrPageLimitExceeded):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
