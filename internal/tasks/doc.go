// Package tasks runs long playlist operations with real-time progress reporting.
//
// # Core Operations
//
// [PlaylistEngine] offers two operations:
//
//  1. [PlaylistEngine.Export] : one playlist with every item
//     - Ensures a usable access token through the [TokenSource]
//     - Walks every page of the playlist's items
//     - Returns a [models.PlaylistExport]
//
//  2. [PlaylistEngine.BulkExport] : many playlists written to disk
//     - Runs whole playlists on a small worker pool, paced by a rate limiter
//     - Pages within one playlist are still fetched one after another
//     - Writes one export per playlist through the formatter package and a manifest
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced
// UI rendering. Updates use select with default to prevent blocking.
package tasks
