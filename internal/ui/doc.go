// Package ui implements an interactive terminal playlist browser using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow:
//  1. [PlaylistListView] : Browse the signed-in user's playlists
//  2. [ItemListView] : Browse every video of the selected playlist
//  3. [ConfirmView] : Confirm exporting the playlist to disk
//  4. [ExportView] : Monitor real-time progress updates
//  5. [ResultView] : Display the written files
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the PlaylistEngine.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
