package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/tubelist/internal/formatter"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export writes the named playlists (or all of them) to disk and prints a summary.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	acct, err := r.account(ctx)
	if err != nil {
		return err
	}

	client := r.httpClient
	if cmd.Bool("no-covers") {
		client = nil
	}
	engine := tasks.NewPlaylistEngine(r.youtube, acct, client, r.logger)

	all, err := engine.Playlists(ctx, nil)
	if err != nil {
		return err
	}

	selected := all
	if refs := cmd.Args().Slice(); len(refs) > 0 {
		if selected, err = tasks.SelectPlaylists(all, refs); err != nil {
			return err
		}
	}
	if len(selected) == 0 {
		return r.writePlain("No playlists found.\n")
	}

	opts := tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  float64(cmd.Int("rate")),
	}

	result, err := r.runBulkExport(ctx, engine, selected, opts)
	if err != nil {
		return err
	}

	r.writePlainHeader("Export complete")
	r.writePlain("Format:     %s\n", result.Format)
	r.writePlain("Exported:   %d/%d playlists\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Directory:  %s\n", result.OutputDirectory)
	r.writePlain("Manifest:   %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		r.writePlainln("Failed:")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("✗ %s: %s\n", res.PlaylistName, res.ErrorMessage)
			}
		}
	}

	if result.SuccessfulExports == 0 {
		return fmt.Errorf("all %d exports failed", result.FailedExports)
	}
	return nil
}

// runBulkExport runs the export while streaming progress lines to the output.
func (r *Runner) runBulkExport(ctx context.Context, engine *tasks.PlaylistEngine, playlists []models.Playlist, opts tasks.BulkExportOpts) (*tasks.BulkExportResult, error) {
	progress := make(chan tasks.ProgressUpdate, 16)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if update.Phase == tasks.ExportPlaylist {
				r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.logger.Debug(update.Message, "phase", update.Phase)
			}
		}
	}()

	result, err := engine.BulkExport(ctx, progress, playlists, opts)
	close(progress)
	wg.Wait()
	return result, err
}
