package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgItemsFetched
	MsgProgressUpdate
	MsgExportComplete
	MsgBrowserOpened
)

type playlistsFetched struct {
	playlists []models.Playlist
	err       error
}

type itemsFetched struct {
	export *models.PlaylistExport
	err    error
}

type exportComplete struct {
	result *tasks.BulkExportResult
	err    error
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsFetched{playlists, err}}
}

// itemsFetchedMsg is the constructor for [MsgItemsFetched]
func itemsFetchedMsg(export *models.PlaylistExport, err error) Msg {
	return Msg{kind: MsgItemsFetched, data: itemsFetched{export, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// exportCompleteMsg is the constructor for [MsgExportComplete]
func exportCompleteMsg(result *tasks.BulkExportResult, err error) Msg {
	return Msg{kind: MsgExportComplete, data: exportComplete{result, err}}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]; err is nil on success.
func browserOpenedMsg(err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: err}
}
