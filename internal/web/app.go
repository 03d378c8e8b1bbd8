package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/repositories"
	"github.com/desertthunder/tubelist/internal/server"
	"github.com/desertthunder/tubelist/internal/services"
	"github.com/desertthunder/tubelist/internal/session"
	"github.com/desertthunder/tubelist/internal/shared"
)

// Authenticator is the Google OAuth side used by sign-in and protected routes.
type Authenticator interface {
	services.TokenRefresher
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (models.TokenRecord, error)
	Profile(ctx context.Context, accessToken string) (*models.Profile, error)
}

// PlaylistStore saves the dashboard's playlists and lists them back.
type PlaylistStore interface {
	SaveAll(ctx context.Context, ownerEmail string, list []models.Playlist) (int, error)
	ListByOwner(ctx context.Context, ownerEmail string) ([]*models.SavedPlaylist, error)
}

// Options configures an [App].
type Options struct {
	Auth      Authenticator            // required
	YouTube   services.PlaylistFetcher // required
	Sessions  *session.Codec           // required
	Tokens    repositories.TokenStore  // nil disables the token mirror
	Playlists PlaylistStore            // nil disables saved playlists
	APIKey    string                   // server key for channel lookups
	Logger    *log.Logger
}

// App holds the web application's dependencies.
type App struct {
	auth      Authenticator
	youtube   services.PlaylistFetcher
	sessions  *session.Codec
	tokens    repositories.TokenStore
	playlists PlaylistStore
	apiKey    string
	logger    *log.Logger
	pages     map[string]*template.Template
}

// New validates opts and parses the embedded templates.
func New(opts Options) (*App, error) {
	if opts.Auth == nil || opts.YouTube == nil || opts.Sessions == nil {
		return nil, errors.Join(shared.ErrMissingConfig, errors.New("web: auth, youtube and sessions are required"))
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = repositories.NopTokenStore{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &App{
		auth:      opts.Auth,
		youtube:   opts.YouTube,
		sessions:  opts.Sessions,
		tokens:    tokens,
		playlists: opts.Playlists,
		apiKey:    opts.APIKey,
		logger:    logger,
		pages:     pages,
	}, nil
}

// Routes builds the router with logging, recovery and session loading applied to every route.
func (a *App) Routes() *server.BasicRouter {
	r := server.NewBasicRouter()
	r.Use(server.Recoverer(a.logger), server.RequestLogger(a.logger), a.sessions.Load)

	r.HandleFunc(http.MethodGet, "/{$}", a.home)
	r.HandleFunc(http.MethodGet, "/healthz", a.healthz)

	r.HandleFunc(http.MethodGet, "/auth/signin", a.signIn)
	r.HandleFunc(http.MethodGet, "/auth/callback", a.callback)
	r.HandleFunc(http.MethodPost, "/auth/signout", a.signOut)

	r.Handle(http.MethodGet, "/dashboard", a.requireSession(pageMode, a.dashboard))
	r.Handle(http.MethodGet, "/dashboard/{playlistID}", a.requireSession(pageMode, a.playlist))

	r.HandleFunc(http.MethodGet, "/channel", a.channel)
	r.HandleFunc(http.MethodGet, "/channel/playlist/{playlistID}", a.channelPlaylist)

	r.HandleFunc(http.MethodGet, "/api/channel-playlists", a.apiChannelPlaylists)
	r.Handle(http.MethodGet, "/api/playlists", a.requireSession(jsonMode, a.apiPlaylists))
	r.Handle(http.MethodGet, "/api/playlists/{playlistID}/items", a.requireSession(jsonMode, a.apiPlaylistItems))
	r.Handle(http.MethodGet, "/api/playlists/{playlistID}/export", a.requireSession(jsonMode, a.apiPlaylistExport))
	if a.playlists != nil {
		r.Handle(http.MethodGet, "/api/saved-playlists", a.requireSession(jsonMode, a.apiSavedPlaylists))
	}

	return r
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mirror writes rec to the token store. Failures are logged and otherwise ignored.
func (a *App) mirror(ctx context.Context, email string, rec models.TokenRecord) {
	if err := a.tokens.Save(ctx, email, rec); err != nil {
		a.logger.Warn("token mirror write failed", "store", a.tokens.Name(), "email", email, "error", err)
	}
}

func (a *App) unmirror(ctx context.Context, email string) {
	if err := a.tokens.Delete(ctx, email); err != nil {
		a.logger.Warn("token mirror delete failed", "store", a.tokens.Name(), "email", email, "error", err)
	}
}
