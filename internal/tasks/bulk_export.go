package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/tubelist/internal/formatter"
	"github.com/desertthunder/tubelist/internal/models"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Export format: json, yaml, csv, markdown, html, txt
	OutputDir  string           // Base output directory (default: youtube_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 3, max: 10)
	RateLimit  float64          // Playlists started per second (default: 2)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	ItemCount    int      `json:"item_count"`
	Success      bool     `json:"success"`
	Files        []string `json:"files,omitempty"`
	Error        error    `json:"-"`
	ErrorMessage string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export.
type BulkExportResult struct {
	Format            formatter.Format       `json:"format"`
	ExportedAt        time.Time              `json:"exported_at"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	step     int
	playlist models.Playlist
}

// BulkExport exports playlists concurrently and writes a manifest summarizing the results.
//
// Whole playlists run on a worker pool; the limiter paces how quickly new playlists start. A failed
// playlist is recorded in the result and does not stop the others.
func (e *PlaylistEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	playlists []models.Playlist,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("youtube_export_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := len(playlists)
	result := &BulkExportResult{
		Format:          opts.Format,
		ExportedAt:      e.now().UTC(),
		TotalPlaylists:  total,
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob)
	results := make(chan PlaylistExportResult, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, prog, jobs, results, opts, total)
	}

	go func() {
		defer close(jobs)
		for i, p := range playlists {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			select {
			case jobs <- exportJob{step: i + 1, playlist: p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, total, res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			e.logger.Warn("playlist export failed", "playlist", res.PlaylistID, "error", res.Error)
			e.sendProgress(prog, exportFailedUpdate(completed, total, res.PlaylistName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	return result, nil
}

func (e *PlaylistEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	prog chan<- ProgressUpdate,
	jobs <-chan exportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
	total int,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}
		results <- e.exportSinglePlaylist(ctx, prog, job, opts, total)
	}
}

func (e *PlaylistEngine) exportSinglePlaylist(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	j exportJob,
	opts BulkExportOpts,
	total int,
) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   j.playlist.ID,
		PlaylistName: j.playlist.Snippet.Title,
		Files:        []string{},
	}

	export, err := e.export(ctx, prog, j.playlist, j.step, total)
	if err != nil {
		return result.failed(err)
	}
	result.ItemCount = len(export.Items)

	files, err := formatter.Write(ctx, e.client, export, opts.Format, opts.OutputDir)
	if err != nil {
		return result.failed(err)
	}

	result.Files = files
	result.Success = true
	return result
}

func (r PlaylistExportResult) failed(err error) PlaylistExportResult {
	r.Error = err
	r.ErrorMessage = err.Error()
	return r
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
