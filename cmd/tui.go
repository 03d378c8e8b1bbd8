package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tubelist/internal/formatter"
	"github.com/desertthunder/tubelist/internal/shared"
	"github.com/desertthunder/tubelist/internal/tasks"
	"github.com/desertthunder/tubelist/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing and exporting playlists.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger := shared.NewFileLogger(cmd.String("log-file"))
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	// The HTTP client logs requests, so rebuild it and its dependents on the file logger.
	r.httpClient, r.youtube, r.auth = nil, nil, nil
	r.initServices()

	engine, _, err := r.engine(ctx)
	if err != nil {
		return err
	}

	opts := tasks.BulkExportOpts{Format: format, OutputDir: cmd.String("output")}
	model := ui.NewModel(ctx, engine, r.opener, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
