package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/dustin/go-humanize"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = videoItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Snippet.Title }
func (i playlistItem) Title() string       { return i.playlist.Snippet.Title }
func (i playlistItem) Description() string {
	desc := i.playlist.ID
	if !i.playlist.Snippet.PublishedAt.IsZero() {
		desc = fmt.Sprintf("%s • created %s", desc, humanize.Time(i.playlist.Snippet.PublishedAt))
	}
	if i.playlist.Snippet.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Snippet.Description)
	}
	return desc
}

// videoItem wraps [models.PlaylistItem] to implement [list.Item].
type videoItem struct {
	item models.PlaylistItem
}

func (i videoItem) FilterValue() string { return i.item.Snippet.Title }
func (i videoItem) Title() string       { return i.item.Snippet.Title }
func (i videoItem) Description() string {
	desc := i.item.Snippet.ChannelTitle
	if url := i.item.WatchURL(); url != "" {
		if desc != "" {
			desc += " • "
		}
		desc += url
	}
	return desc
}
