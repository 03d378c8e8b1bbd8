package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tubelist/internal/formatter"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/desertthunder/tubelist/internal/tasks"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// Playlists lists the signed-in user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	engine, acct, err := r.engine(ctx)
	if err != nil {
		return err
	}

	playlists, err := engine.Playlists(ctx, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		if r.playlists == nil {
			return fmt.Errorf("%w: saved playlists need a database", shared.ErrServiceUnavailable)
		}
		n, err := r.playlists.SaveAll(ctx, acct.email, playlists)
		if err != nil {
			return fmt.Errorf("failed to save playlists: %w", err)
		}
		r.logger.Info("saved playlists", "count", n, "owner", acct.email)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Your YouTube Playlists")
	r.writePlaylists(playlists)
	return nil
}

// Items prints every video in a playlist, looked up by id or title.
func (r *Runner) Items(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.StringArg("playlist-id")
	if ref == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine, _, err := r.engine(ctx)
	if err != nil {
		return err
	}

	playlist := models.Playlist{ID: ref}
	all, err := engine.Playlists(ctx, nil)
	if err != nil {
		return err
	}
	if found, err := tasks.SelectPlaylists(all, []string{ref}); err == nil {
		playlist = found[0]
	} else {
		r.logger.Debug("playlist not among account playlists, fetching by id", "ref", ref)
	}

	export, err := engine.Export(ctx, nil, playlist)
	if err != nil {
		return err
	}
	return formatter.Render(r.output, export, format)
}

// ChannelPlaylists lists a channel's public playlists using the configured API key.
func (r *Runner) ChannelPlaylists(ctx context.Context, cmd *cli.Command) error {
	channelID := cmd.StringArg("channel-id")
	if channelID == "" {
		return fmt.Errorf("%w: channel id is required", shared.ErrMissingArgument)
	}

	key, err := r.apiKey()
	if err != nil {
		return err
	}

	list, err := r.youtube.ChannelPlaylists(ctx, key, channelID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list.Items, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Playlists for channel " + channelID)
	r.writePlaylists(list.Items)
	return nil
}

// ChannelItems prints every video in a public playlist using the configured API key.
func (r *Runner) ChannelItems(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist-id")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist id is required", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	key, err := r.apiKey()
	if err != nil {
		return err
	}

	items, err := r.youtube.PublicPlaylistItems(ctx, key, playlistID)
	if err != nil {
		return err
	}

	export := &models.PlaylistExport{
		Playlist:   models.Playlist{ID: playlistID, Snippet: models.PlaylistSnippet{Title: playlistID}},
		Items:      items,
		ExportedAt: time.Now(),
	}
	return formatter.Render(r.output, export, format)
}

// Saved lists the playlists stored for the current account.
func (r *Runner) Saved(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStores(ctx, r.cliStore()); err != nil {
		return err
	}
	if r.playlists == nil {
		return fmt.Errorf("%w: saved playlists need a database", shared.ErrServiceUnavailable)
	}

	email, _, err := r.tokens.Latest(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: run 'tubelist auth login' first", shared.ErrNotAuthenticated)
	} else if err != nil {
		return err
	}

	saved, err := r.playlists.ListByOwner(ctx, email)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(saved, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Saved playlists for " + email)
	if len(saved) == 0 {
		return r.writePlain("No saved playlists. Run 'tubelist playlists --save'.\n")
	}
	for _, p := range saved {
		r.writePlain("• %s [%s] saved %s\n", p.Title, p.YouTubePlaylistID, humanize.Time(p.CreatedAt))
	}
	return nil
}

func (r *Runner) apiKey() (string, error) {
	key := r.config.Credentials.YouTube.APIKey
	if key == "" {
		return "", fmt.Errorf("%w: set credentials.youtube.api_key (or YOUTUBE_API_KEY)", shared.ErrMissingCredentials)
	}
	return key, nil
}

func (r *Runner) writePlaylists(playlists []models.Playlist) {
	if len(playlists) == 0 {
		r.writePlain("No playlists found.\n")
		return
	}
	for _, p := range playlists {
		r.writePlain("• %s [%s]\n", p.Snippet.Title, p.ID)
		if p.Snippet.Description != "" {
			r.writePlain("  %s\n", p.Snippet.Description)
		}
	}
	r.writePlainln("%s", humanize.Comma(int64(len(playlists)))+" playlists")
}
