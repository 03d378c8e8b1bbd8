// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// serveCommand runs the web application
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web application",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup and configuration
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.RollbackDatabase,
			},
			{
				Name:  "config",
				Usage: "Write an example config.toml",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path", Value: "config.toml"},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles the CLI sign-in
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Google account commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google using a local callback server",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Port for the local OAuth callback",
						Value: 8085,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultLoginTimeout,
					},
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the consent URL instead of opening a browser",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the stored account and token expiry",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// playlistsCommand lists the signed-in user's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List your YouTube playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the playlists to the local database",
			},
		},
		Action: r.Playlists,
	}
}

// itemsCommand prints every video in one playlist
func itemsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "items",
		Usage: "Show every video in a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist-id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (txt, json, yaml, csv, markdown, html)",
				Value:   "txt",
			},
		},
		Action: r.Items,
	}
}

// channelCommand looks up public channel data with the server API key
func channelCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "channel",
		Usage: "Public channel lookups using the configured API key",
		Commands: []*cli.Command{
			{
				Name:  "playlists",
				Usage: "List a channel's public playlists",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "channel-id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.ChannelPlaylists,
			},
			{
				Name:  "items",
				Usage: "Show every video in a public playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "playlist-id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (txt, json, yaml, csv, markdown, html)",
						Value:   "txt",
					},
				},
				Action: r.ChannelItems,
			},
		},
	}
}

// savedCommand lists playlists saved to the local database
func savedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "saved",
		Usage: "List playlists saved with --save or from the dashboard",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Saved,
	}
}

// exportCommand writes playlists to disk
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export playlists to files (all playlists when none are named)",
		ArgsUsage: "[playlist id or title...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, yaml, csv, markdown, html, txt)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: youtube_export_{timestamp})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent export workers",
				Value: 3,
			},
			&cli.IntFlag{
				Name:  "rate",
				Usage: "Playlists started per second",
				Value: 2,
			},
			&cli.BoolFlag{
				Name:  "no-covers",
				Usage: "Skip downloading cover images for markdown exports",
			},
		},
		Action: r.Export,
	}
}

// tuiCommand launches the interactive terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse and export playlists in an interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the UI owns the terminal",
				Value: "tubelist-tui.log",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format used by the export action",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for exports",
			},
		},
		Action: r.TUI,
	}
}
