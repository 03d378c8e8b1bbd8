package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubelist/internal/repositories"
	"github.com/desertthunder/tubelist/internal/services"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil in [RunnerOpts] are built from the configuration in [Runner.Before].
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	auth       *services.TokenManager
	youtube    services.PlaylistFetcher
	tokens     repositories.TokenStore
	playlists  *repositories.PlaylistRepository
	opener     func(url string) error
	db         *sql.DB
	redis      *redis.Client
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Auth       *services.TokenManager
	YouTube    services.PlaylistFetcher
	Tokens     repositories.TokenStore
	Playlists  *repositories.PlaylistRepository
	Opener     func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Opener == nil {
		opts.Opener = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		auth:       opts.Auth,
		youtube:    opts.YouTube,
		tokens:     opts.Tokens,
		playlists:  opts.Playlists,
		opener:     opts.Opener,
	}
}

// command builds the root command.
func (r *Runner) command() *cli.Command {
	return &cli.Command{
		Name:    "tubelist",
		Usage:   "Browse your YouTube playlists from the browser or the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("TUBELIST_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, authCommand, playlistsCommand, itemsCommand,
		channelCommand, savedCommand, exportCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads configuration and builds the HTTP client and YouTube service.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if r.config == nil {
		if path := cmd.String("config"); path != "" {
			r.configPath = path
		}
		config, err := shared.LoadOrDefault(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config

		if r.config.Log.File != "" {
			r.SetLogger(shared.LoggerFromConfig(r.config.Log))
		} else {
			shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
		}
	}

	if level := cmd.String("log-level"); level != "" {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	}

	r.initServices()
	return ctx, nil
}

// initServices builds whichever of the HTTP client and YouTube service are not set yet.
func (r *Runner) initServices() {
	if r.httpClient == nil {
		r.httpClient = shared.NewHTTPClient(r.logger)
	}

	if r.youtube == nil {
		yt := services.NewYouTubeService(r.config.Credentials.YouTube.BaseURL, r.httpClient)
		yt.SetMaxPages(r.config.Credentials.YouTube.MaxPages)
		r.youtube = yt
	}
}

// After releases the stores opened by commands.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.redis != nil {
		r.redis.Close()
		r.redis = nil
	}
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// tokenManager returns the OAuth token manager, creating it from the Google credentials on first use.
func (r *Runner) tokenManager() (*services.TokenManager, error) {
	if r.auth != nil {
		return r.auth, nil
	}

	tm, err := services.NewTokenManager(r.config.Credentials.Google.Map(), r.httpClient)
	if err != nil {
		return nil, fmt.Errorf("%w: set credentials.google client_id and client_secret (or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET)", err)
	}
	r.auth = tm
	return tm, nil
}

// openStores opens the token mirror named by store and the saved playlists table.
//
// "sqlite" keeps both in the database; "redis" keeps tokens in Redis and playlists in the database;
// "none" disables both.
func (r *Runner) openStores(ctx context.Context, store string) error {
	if r.tokens != nil {
		return nil
	}

	if store == "" || store == "none" {
		r.tokens = repositories.NopTokenStore{}
		return nil
	}
	if store != "sqlite" && store != "redis" {
		return fmt.Errorf("%w: unknown session store %q", shared.ErrInvalidConfig, store)
	}

	db, err := shared.OpenMigrated(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.playlists = repositories.NewPlaylistRepository(db)

	if store == "redis" {
		client, err := repositories.NewRedisClient(ctx, r.config.Redis.URL)
		if err != nil {
			return err
		}
		r.redis = client
		r.tokens = repositories.NewRedisTokenRepository(client, r.config.Redis.Prefix)
	} else {
		r.tokens = repositories.NewTokenRepository(db)
	}

	r.logger.Debug("stores opened", "tokens", r.tokens.Name(), "database", r.config.Database.Path)
	return nil
}

// cliStore picks the token store for terminal commands. The CLI always needs somewhere to keep
// its token between runs, so "none" falls back to the database.
func (r *Runner) cliStore() string {
	if r.config.Session.Store == "redis" {
		return "redis"
	}
	return "sqlite"
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
