package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tubelist/internal/models"
	"github.com/desertthunder/tubelist/internal/tasks"
	"github.com/dustin/go-humanize"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	ItemListView
	ConfirmView
	ExportView
	ResultView
)

// Engine is the subset of [tasks.PlaylistEngine] the TUI drives.
type Engine interface {
	Playlists(ctx context.Context, progress chan<- tasks.ProgressUpdate) ([]models.Playlist, error)
	Export(ctx context.Context, progress chan<- tasks.ProgressUpdate, p models.Playlist) (*models.PlaylistExport, error)
	BulkExport(ctx context.Context, progress chan<- tasks.ProgressUpdate, playlists []models.Playlist, opts tasks.BulkExportOpts) (*tasks.BulkExportResult, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       Engine
	opener       func(url string) error
	exportOpts   tasks.BulkExportOpts
	width        int
	height       int
	loading      bool
	playlistList list.Model
	playlists    []models.Playlist
	itemList     list.Model
	selected     *models.PlaylistExport
	progressChan chan tasks.ProgressUpdate
	done         chan exportComplete
	progress     tasks.ProgressUpdate
	result       *tasks.BulkExportResult
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. opener opens a URL in the browser; opts configures exports.
func NewModel(ctx context.Context, engine Engine, opener func(string) error, opts tasks.BulkExportOpts) *Model {
	return &Model{
		ctx:          ctx,
		view:         PlaylistListView,
		engine:       engine,
		opener:       opener,
		exportOpts:   opts,
		loading:      true,
		playlistList: list.New(nil, list.NewDefaultDelegate(), 0, 0),
		itemList:     list.New(nil, list.NewDefaultDelegate(), 0, 0),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(m.listSize())
		m.itemList.SetSize(m.listSize())
		return m, nil

	case tea.KeyMsg:
		if m.err != nil && m.view != ResultView {
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			if key.Matches(msg, m.keys.back) {
				m.err = nil
			}
			return m, nil
		}

		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case ItemListView:
			return m.handleItemListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		data := msg.data.(playlistsFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.playlists = data.playlists
		items := make([]list.Item, len(data.playlists))
		for i, pl := range data.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Your YouTube Playlists"
		m.playlistList.SetSize(m.listSize())
		return m, nil

	case MsgItemsFetched:
		data := msg.data.(itemsFetched)
		m.loading = false
		if data.err != nil {
			m.err = data.err
			m.view = PlaylistListView
			return m, nil
		}
		m.selected = data.export
		items := make([]list.Item, len(data.export.Items))
		for i, it := range data.export.Items {
			items[i] = videoItem{item: it}
		}
		m.itemList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.itemList.Title = fmt.Sprintf("Videos in '%s' (%s)", data.export.Playlist.Snippet.Title, humanize.Comma(int64(len(items))))
		m.itemList.SetSize(m.listSize())
		m.view = ItemListView
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgExportComplete:
		data := msg.data.(exportComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.done = nil
		return m, nil

	case MsgBrowserOpened:
		if err, _ := msg.data.(error); err != nil {
			m.status = styles.warn.Render(fmt.Sprintf("Could not open browser: %v", err))
		} else {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case ItemListView:
		return m.renderItemList()
	case ConfirmView:
		return m.renderConfirm()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.playlistList.FilterState() == list.Filtering

	switch {
	case key.Matches(msg, m.keys.quit) && !filtering:
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter) && !filtering && !m.loading:
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.loading = true
			return m, m.fetchItems(pl.playlist)
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleItemListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.itemList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.itemList, cmd = m.itemList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.export):
		m.view = ConfirmView
		return m, nil
	case key.Matches(msg, m.keys.open, m.keys.enter):
		if v, ok := m.itemList.SelectedItem().(videoItem); ok && v.item.WatchURL() != "" {
			return m, m.openVideo(v.item.WatchURL())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.itemList, cmd = m.itemList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no, m.keys.back, m.keys.quit):
		m.view = ItemListView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.view = ExportView
		return m, m.startExport()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.selected = nil
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

// listSize leaves room for the help line around a list.
func (m *Model) listSize() (int, int) {
	return max(m.width-4, 0), max(m.height-8, 0)
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case ItemListView:
		m.itemList, cmd = m.itemList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.engine.Playlists(m.ctx, nil)
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) fetchItems(p models.Playlist) tea.Cmd {
	return func() tea.Msg {
		export, err := m.engine.Export(m.ctx, nil, p)
		return itemsFetchedMsg(export, err)
	}
}

func (m *Model) openVideo(url string) tea.Cmd {
	return func() tea.Msg {
		if m.opener == nil {
			return browserOpenedMsg(nil)
		}
		return browserOpenedMsg(m.opener(url))
	}
}

func (m *Model) startExport() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan exportComplete, 1)
	m.progressChan = progress
	m.done = done
	m.progress = tasks.ProgressUpdate{}

	playlist := m.selected.Playlist
	go func() {
		result, err := m.engine.BulkExport(m.ctx, progress, []models.Playlist{playlist}, m.exportOpts)
		done <- exportComplete{result: result, err: err}
		close(progress)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if progress == nil {
			return exportCompleteMsg(m.result, m.err)
		}

		update, ok := <-progress
		if !ok {
			res := <-done
			return exportCompleteMsg(res.result, res.err)
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	if m.loading && len(m.playlists) == 0 {
		return styles.help.Render("Loading playlists...")
	}
	if len(m.playlists) == 0 {
		return styles.warn.Render("No playlists found for this account.") + "\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.quit})
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	if m.loading {
		helpView = styles.help.Render("Loading videos...")
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}

func (m *Model) renderItemList() string {
	if len(m.selected.Items) == 0 {
		return styles.warn.Render("No videos found for this playlist.") + "\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	}

	helpKeys := []key.Binding{m.keys.open, m.keys.export, m.keys.back, m.keys.quit}
	view := fmt.Sprintf("%s\n\n%s", m.itemList.View(), m.help.ShortHelpView(helpKeys))
	if m.status != "" {
		view += "\n" + m.status
	}
	return view
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Export '%s'?", m.selected.Playlist.Snippet.Title))

	format := string(m.exportOpts.Format)
	if format == "" {
		format = "json"
	}
	dir := m.exportOpts.OutputDir
	if dir == "" {
		dir = "a new youtube_export directory"
	}
	info := fmt.Sprintf("\nVideos: %s\nFormat: %s\nDestination: %s\n",
		humanize.Comma(int64(len(m.selected.Items))), format, dir)

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no})
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchItems:
		phase = "Fetching videos..."
	case tasks.ExportPlaylist:
		phase = "Writing files..."
	case tasks.WriteManifest:
		phase = "Writing manifest..."
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.restart, m.keys.quit})

	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Export failed: %v", m.err)) + "\n\n" + helpView
	}
	if m.result == nil {
		return styles.err.Render("No result available") + "\n\n" + helpView
	}

	var b strings.Builder
	if m.result.FailedExports > 0 {
		b.WriteString(styles.err.Render("✗ Export failed"))
		for _, res := range m.result.Results {
			if !res.Success {
				fmt.Fprintf(&b, "\n  • %s: %s", res.PlaylistName, res.ErrorMessage)
			}
		}
	} else {
		b.WriteString(styles.ok.Render("✓ Export Complete!"))
		for _, res := range m.result.Results {
			fmt.Fprintf(&b, "\n\n%s (%s videos)", res.PlaylistName, humanize.Comma(int64(res.ItemCount)))
			for _, f := range res.Files {
				fmt.Fprintf(&b, "\n  • %s", f)
			}
		}
	}
	if m.result.ManifestPath != "" {
		fmt.Fprintf(&b, "\n\nManifest: %s", m.result.ManifestPath)
	}

	return b.String() + "\n\n" + helpView
}
