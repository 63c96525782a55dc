package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/monthly/internal/models"
	"github.com/desertthunder/monthly/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MonthListView ViewState = iota
	DiffView
	ConfirmView
	ApplyView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	analyzer     *tasks.Analyzer
	targets      []models.YearMonth
	results      *models.AnalysisResults
	width        int
	height       int
	monthList    list.Model
	songList     list.Model
	selected     *models.Diff
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	applyResult  *tasks.ApplyResult
	loading      bool
	err          error
	help         help.Model
	keys         keyMap
}

type analysisDoneMsg struct {
	results *models.AnalysisResults
	err     error
}

type progressUpdateMsg tasks.ProgressUpdate

type applyCompleteMsg struct {
	result *tasks.ApplyResult
}

// NewModel creates a new TUI model with the provided dependencies.
// targets limits the analysis to the given months; nil analyzes everything.
func NewModel(ctx context.Context, analyzer *tasks.Analyzer, targets []models.YearMonth) *Model {
	return &Model{
		ctx:      ctx,
		view:     MonthListView,
		analyzer: analyzer,
		targets:  targets,
		loading:  true,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by running the analysis.
func (m *Model) Init() tea.Cmd {
	return m.runAnalysis()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.results != nil {
			m.monthList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.selected != nil {
			m.songList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MonthListView:
			return m.handleMonthListKeys(msg)
		case DiffView:
			return m.handleDiffKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case analysisDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.results = msg.results
		items := make([]list.Item, 0, len(msg.results.Diffs))
		for _, ym := range msg.results.SortedMonths() {
			items = append(items, diffItem{diff: msg.results.Diffs[ym]})
		}
		m.monthList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.monthList.Title = fmt.Sprintf("Monthly playlists for %s", msg.results.Username)
		m.monthList.SetSize(m.width-4, m.height-8)
		m.view = MonthListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case applyCompleteMsg:
		m.applyResult = msg.result
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	if m.loading {
		return styles.title.Render("Analyzing liked songs...")
	}

	switch m.view {
	case MonthListView:
		return m.renderMonthList()
	case DiffView:
		return m.renderDiff()
	case ConfirmView:
		return m.renderConfirm()
	case ApplyView:
		return m.renderApply()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleMonthListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.results == nil {
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		selected := m.monthList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(diffItem); ok {
				diff := item.diff
				m.selected = &diff
				m.showDiff()
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.monthList, cmd = m.monthList.Update(msg)
	return m, cmd
}

func (m *Model) handleDiffKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = MonthListView
		return m, nil
	case "enter":
		if len(m.selected.LikedOnly) > 0 {
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songList, cmd = m.songList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = DiffView
		return m, nil
	case "y":
		m.view = ApplyView
		return m, m.startApply()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = MonthListView
		m.selected = nil
		m.applyResult = nil
		m.err = nil
		m.loading = true
		return m, m.runAnalysis()
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case MonthListView:
		if m.results != nil {
			m.monthList, cmd = m.monthList.Update(msg)
		}
	case DiffView:
		if m.selected != nil {
			m.songList, cmd = m.songList.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) showDiff() {
	items := make([]list.Item, len(m.selected.LikedOnly))
	for i, song := range m.selected.LikedOnly {
		items[i] = songItem{song: song}
	}
	m.songList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.songList.Title = fmt.Sprintf("Missing from %s", m.selected.Date)
	m.songList.SetSize(m.width-4, m.height-8)
	m.view = DiffView
}

func (m *Model) runAnalysis() tea.Cmd {
	return func() tea.Msg {
		results, err := m.analyzer.Analyze(m.ctx, m.targets, nil)
		return analysisDoneMsg{results: results, err: err}
	}
}

func (m *Model) startApply() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		m.applyResult = m.analyzer.ApplyDiffs(m.ctx, []models.Diff{*m.selected}, m.progressChan)
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return applyCompleteMsg{result: m.applyResult}
		}

		update, ok := <-m.progressChan
		if !ok {
			return applyCompleteMsg{result: m.applyResult}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderMonthList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.monthList.View(), helpView)
}

func (m *Model) renderDiff() string {
	applyKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "apply"),
	)
	helpKeys := []key.Binding{applyKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.selected.IsPerfectMatch() {
		header := styles.ok.Render(fmt.Sprintf("✓ %s is in sync", m.selected.Date))
		return fmt.Sprintf("%s\n\n%s", header, m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	}

	var extra string
	if len(m.selected.PlaylistOnly) > 0 {
		extra = styles.warn.Render(fmt.Sprintf("\n%d playlist songs are not liked (left untouched)", len(m.selected.PlaylistOnly)))
	}

	return fmt.Sprintf("%s%s\n\n%s", m.songList.View(), extra, helpView)
}

func (m *Model) renderConfirm() string {
	target := "a new playlist"
	if m.selected.Playlist != nil {
		target = fmt.Sprintf("'%s'", m.selected.Playlist.Name)
	}

	title := styles.title.Render(fmt.Sprintf("Add %d songs to %s?", len(m.selected.LikedOnly), target))
	info := fmt.Sprintf("\nMonth: %s\nMissing songs: %d\n", m.selected.Date, len(m.selected.LikedOnly))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderApply() string {
	title := styles.title.Render("Updating Playlist")

	var phase string
	switch m.progress.Phase {
	case tasks.CreatePlaylist:
		phase = "Creating playlist..."
	case tasks.AddTracks:
		phase = fmt.Sprintf("Adding songs (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.applyResult == nil {
		return styles.err.Render("No result available\n\nPress r to re-analyze, q to quit")
	}

	title := styles.ok.Render("✓ Playlist Updated")
	info := fmt.Sprintf("\nSongs added: %d", m.applyResult.SongsAdded)

	for _, pl := range m.applyResult.PlaylistsCreated {
		info += fmt.Sprintf("\nCreated playlist: %s", pl.Name)
	}

	var failed string
	if len(m.applyResult.FailedBatches) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d batches failed:", len(m.applyResult.FailedBatches))))
		for _, batch := range m.applyResult.FailedBatches {
			failed += fmt.Sprintf("\n  • %s: %d songs", batch.Date, batch.Size)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s%s\n\n%s", title, info, failed, helpView)
}
