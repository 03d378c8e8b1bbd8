package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tubelist/internal/server"
	"github.com/desertthunder/tubelist/internal/session"
	"github.com/desertthunder/tubelist/internal/web"
	"github.com/urfave/cli/v3"
)

// Serve runs the web application until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}

	if err := r.config.Validate(); err != nil {
		return err
	}

	tm, err := r.tokenManager()
	if err != nil {
		return err
	}

	sessions, err := session.NewCodec(r.config.Session)
	if err != nil {
		return fmt.Errorf("failed to configure sessions: %w", err)
	}

	if err := r.openStores(ctx, r.config.Session.Store); err != nil {
		return err
	}

	opts := web.Options{
		Auth:     tm,
		YouTube:  r.youtube,
		Sessions: sessions,
		Tokens:   r.tokens,
		APIKey:   r.config.Credentials.YouTube.APIKey,
		Logger:   r.logger,
	}
	if r.playlists != nil {
		opts.Playlists = r.playlists
	}
	if opts.APIKey == "" {
		r.logger.Warn("credentials.youtube.api_key is empty; channel lookups will fail")
	}

	app, err := web.New(opts)
	if err != nil {
		return err
	}

	r.logger.Info("starting web app", "token_store", r.tokens.Name(), "redirect", tm.RedirectURL())
	return server.Serve(ctx, r.config.Server.Addr(), app.Routes(), r.logger)
}
