// Package tui is the full-screen dashboard: now playing, history, liked picks
// and devices, driven by the playback controller.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/tessro/turntable/internal/core"
	tterrors "github.com/tessro/turntable/internal/errors"
	"github.com/tessro/turntable/internal/library"
	"github.com/tessro/turntable/internal/playback"
	"github.com/tessro/turntable/internal/tui/components"
	"github.com/tessro/turntable/internal/tui/styles"
	"github.com/tessro/turntable/internal/wizard"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelHistory
	PanelLiked
	PanelDevices
	panelCount
)

const (
	volumeStep   = 5
	seekStep     = 10 * time.Second
	errorTimeout = 5 * time.Second
)

// Controller is the subset of the playback session the dashboard drives.
type Controller interface {
	Snapshot() playback.Snapshot
	Observe() uint64
	ApplySnapshot(tok uint64, state *core.PlaybackState) error
	PlayTrack(ctx context.Context, track core.Track, navigation bool) error
	PlayAlbum(ctx context.Context, albumID string) error
	TogglePlayPause(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Shuffle(ctx context.Context) error
	Repeat(ctx context.Context) error
	ToggleLike(ctx context.Context) error
	RemoveFromHistory(ctx context.Context, trackID string) error
	Seek(ctx context.Context, positionMs int) error
	SetVolume(ctx context.Context, percent int) error
}

// Library supplies the liked picks panel and search.
type Library interface {
	LikedPicks(ctx context.Context, userID string, n int) ([]core.Track, error)
	wizard.Searcher
}

// App holds what the dashboard needs from the rest of turntable.
type App struct {
	Controller  Controller
	Library     Library
	Player      core.RemotePlayer
	UserID      string
	RefreshRate time.Duration
	// SyncRate is how often the live snapshot is polled. Progress is
	// advanced locally between polls.
	SyncRate    time.Duration
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// Model is the main TUI model
type Model struct {
	app          *App
	ctx          context.Context
	width        int
	height       int
	focusedPanel Panel

	// State
	snap    playback.Snapshot
	live    *core.PlaybackState
	devices []core.Device
	liked   []core.Track

	// Components
	nowPlaying  *components.NowPlaying
	historyView *components.History
	likedView   *components.Liked
	devicesView *components.Devices

	// Overlays
	showHelp   bool
	showSearch bool
	search     wizard.SearchModel

	lastTick time.Time
	lastSync time.Time

	// Error handling
	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, app *App) Model {
	if app.RefreshRate <= 0 {
		app.RefreshRate = time.Second
	}
	if app.SyncRate <= 0 {
		app.SyncRate = app.RefreshRate
	}
	if app.Timeout <= 0 {
		app.Timeout = playback.DefaultRemoteTimeout
	}
	return Model{
		app:          app,
		ctx:          ctx,
		focusedPanel: PanelNowPlaying,
		snap:         app.Controller.Snapshot(),
		nowPlaying:   components.NewNowPlaying(),
		historyView:  components.NewHistory(),
		likedView:    components.NewLiked(),
		devicesView:  components.NewDevices(),
	}
}

// Messages
type tickMsg time.Time
type liveMsg struct{ state *core.PlaybackState }
type devicesMsg []core.Device
type likedMsg []core.Track
type actionDoneMsg struct{ refreshLiked bool }
type errMsg struct{ err error }

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// syncLive fetches the live snapshot and hands it to the controller, which
// drops it if a command raced with the fetch.
func (m Model) syncLive() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.app.Timeout)
		defer cancel()

		tok := m.app.Controller.Observe()
		state, err := m.app.Player.CurrentPlayback(ctx)
		if err != nil {
			return errMsg{err}
		}
		if err := m.app.Controller.ApplySnapshot(tok, state); err != nil && !errors.Is(err, tterrors.ErrSuperseded) {
			return errMsg{err}
		}
		return liveMsg{state}
	}
}

func (m Model) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.app.Timeout)
		defer cancel()

		devices, err := m.app.Player.ListDevices(ctx)
		if err != nil {
			return errMsg{err}
		}
		return devicesMsg(devices)
	}
}

func (m Model) fetchLiked() tea.Cmd {
	if m.app.Library == nil || m.app.UserID == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, m.app.Timeout)
		defer cancel()

		picks, err := m.app.Library.LikedPicks(ctx, m.app.UserID, library.DefaultLikedPicks)
		if err != nil {
			return errMsg{err}
		}
		return likedMsg(picks)
	}
}

// action runs a controller operation off the UI goroutine.
func (m Model) action(refreshLiked bool, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(m.ctx); err != nil && !errors.Is(err, tterrors.ErrSuperseded) {
			return errMsg{err}
		}
		return actionDoneMsg{refreshLiked: refreshLiked}
	}
}

// advanceProgress moves the live position forward by the time since the
// last tick, capped at the track's duration.
func (m *Model) advanceProgress(now time.Time) {
	last := m.lastTick
	m.lastTick = now
	if last.IsZero() || m.live == nil || !m.live.IsPlaying || m.live.Track == nil {
		return
	}

	live := *m.live
	live.Progress += now.Sub(last)
	if total := time.Duration(live.Track.DurationMs) * time.Millisecond; total > 0 && live.Progress > total {
		live.Progress = total
	}
	m.live = &live
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.syncLive(),
		m.fetchDevices(),
		m.fetchLiked(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.showSearch {
			return m.updateSearch(msg)
		}
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		m.advanceProgress(now)
		if now.Sub(m.lastSync) < m.app.SyncRate {
			return m, m.tick()
		}
		m.lastSync = now
		return m, tea.Batch(m.tick(), m.syncLive())

	case liveMsg:
		m.clearExpiredError()
		m.live = msg.state
		m.snap = m.app.Controller.Snapshot()
		return m, nil

	case devicesMsg:
		m.clearExpiredError()
		m.devices = msg
		return m, nil

	case likedMsg:
		m.liked = msg
		return m, nil

	case actionDoneMsg:
		m.snap = m.app.Controller.Snapshot()
		if msg.refreshLiked {
			return m, m.fetchLiked()
		}
		return m, nil

	case errMsg:
		m.lastError = msg.err
		m.errorExpiry = time.Now().Add(errorTimeout)
		m.snap = m.app.Controller.Snapshot()
		if tterrors.IsBlocking(msg.err) {
			m.app.Logger.Warn().Err(msg.err).Msg("blocking error")
		} else {
			m.app.Logger.Debug().Err(msg.err).Msg("command failed")
		}
		return m, nil

	case wizard.SearchClosedMsg:
		m.showSearch = false
		if msg.Selected == nil {
			return m, nil
		}
		return m, m.playResult(*msg.Selected)
	}

	if m.showSearch {
		return m.updateSearch(msg)
	}
	return m, nil
}

func (m *Model) clearExpiredError() {
	if m.lastError != nil && !tterrors.IsBlocking(m.lastError) && time.Now().After(m.errorExpiry) {
		m.lastError = nil
	}
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.search.Update(msg)
	m.search = next.(wizard.SearchModel)
	return m, cmd
}

func (m Model) playResult(r wizard.SearchResult) tea.Cmd {
	switch {
	case r.Track != nil:
		track := *r.Track
		return m.action(false, func(ctx context.Context) error {
			return m.app.Controller.PlayTrack(ctx, track, false)
		})
	case r.Album != nil:
		id := r.Album.ID
		return m.action(false, func(ctx context.Context) error {
			return m.app.Controller.PlayAlbum(ctx, id)
		})
	default:
		return nil
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showSearch {
		return m.updateSearch(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "/":
		if m.app.Library == nil {
			return m, nil
		}
		m.showSearch = true
		m.search = wizard.NewSearchModel(m.ctx, m.app.Library, wizard.SearchTracks).Embedded()
		next, _ := m.search.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		m.search = next.(wizard.SearchModel)
		return m, m.search.Init()

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil
	}

	ctrl := m.app.Controller
	switch msg.String() {
	case " ":
		return m, m.action(false, ctrl.TogglePlayPause)
	case "n":
		return m, m.action(false, ctrl.Next)
	case "p":
		return m, m.action(false, ctrl.Prev)
	case "s":
		return m, m.action(false, ctrl.Shuffle)
	case "R":
		return m, m.action(false, ctrl.Repeat)
	case "l":
		return m, m.action(true, ctrl.ToggleLike)
	case "+", "=":
		return m, m.changeVolume(volumeStep)
	case "-":
		return m, m.changeVolume(-volumeStep)
	case "right":
		return m, m.seekBy(seekStep)
	case "left":
		return m, m.seekBy(-seekStep)
	case "r":
		return m, tea.Batch(m.syncLive(), m.fetchDevices(), m.fetchLiked())
	}

	switch m.focusedPanel {
	case PanelHistory:
		return m.handleHistoryKey(msg)
	case PanelLiked:
		return m.handleLikedKey(msg)
	}

	return m, nil
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.snap.History
	switch msg.String() {
	case "j", "down":
		m.historyView.Next(len(entries))
	case "k", "up":
		m.historyView.Prev()
	case "enter":
		if i := m.historyView.Index(len(entries)); i >= 0 {
			track := entries[i]
			return m, m.action(false, func(ctx context.Context) error {
				return m.app.Controller.PlayTrack(ctx, track, false)
			})
		}
	case "d", "x":
		if i := m.historyView.Index(len(entries)); i >= 0 {
			id := entries[i].ID
			return m, m.action(false, func(ctx context.Context) error {
				return m.app.Controller.RemoveFromHistory(ctx, id)
			})
		}
	}
	return m, nil
}

func (m Model) handleLikedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.likedView.Next(len(m.liked))
	case "k", "up":
		m.likedView.Prev()
	case "enter":
		if i := m.likedView.Index(len(m.liked)); i >= 0 {
			track := m.liked[i]
			return m, m.action(false, func(ctx context.Context) error {
				return m.app.Controller.PlayTrack(ctx, track, false)
			})
		}
	}
	return m, nil
}

func (m Model) changeVolume(delta int) tea.Cmd {
	if m.live == nil {
		return nil
	}
	volume := max(min(m.live.Volume+delta, 100), 0)
	return m.action(false, func(ctx context.Context) error {
		return m.app.Controller.SetVolume(ctx, volume)
	})
}

func (m Model) seekBy(delta time.Duration) tea.Cmd {
	if !m.live.HasTrack() {
		return nil
	}
	position := max(m.live.Progress+delta, 0)
	return m.action(false, func(ctx context.Context) error {
		return m.app.Controller.Seek(ctx, int(position.Milliseconds()))
	})
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showSearch {
		return m.renderSearch()
	}

	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := m.height * 40 / 100
	bottomHeight := m.height - topHeight - 2

	currentID := ""
	if m.snap.Current != nil {
		currentID = m.snap.Current.ID
	}

	nowPlaying := m.nowPlaying.Render(m.snap.Current, m.snap.IsPlaying, m.live, leftWidth-2, topHeight-2, m.focusedPanel == PanelNowPlaying)
	historyView := m.historyView.Render(m.snap.History, currentID, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelHistory)
	likedView := m.likedView.Render(m.liked, rightWidth-2, topHeight-2, m.focusedPanel == PanelLiked)
	devicesView := m.devicesView.Render(m.devices, rightWidth-2, bottomHeight-2, m.focusedPanel == PanelDevices)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, historyView)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, likedView, devicesView)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  /:search  space:play/pause  n:next  p:prev  s:shuffle  l:like  tab:panel")

	if m.lastError != nil {
		text := "Error: " + m.lastError.Error()
		if hint := tterrors.GetSuggestion(m.lastError); hint != "" {
			text += " (" + hint + ")"
		}
		status = styles.ErrorText.Render(text)
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	help := `
  turntable - Keyboard Shortcuts
  ══════════════════════════════

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  /            Search tracks and albums
  Tab          Next panel
  Shift+Tab    Previous panel
  r            Refresh

  Playback
  ────────
  Space        Play/Pause
  n            Newer track in history
  p            Older track in history
  s            Shuffle from history
  R            Repeat current track
  l            Like/unlike current track
  ←/→          Seek 10s
  +/=          Volume up
  -            Volume down

  History Panel
  ─────────────
  j/↓ k/↑      Move selection
  Enter        Play selected
  d, x         Remove from history

  Liked Panel
  ───────────
  j/↓ k/↑      Move selection
  Enter        Play selected

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

func (m Model) renderSearch() string {
	content := lipgloss.NewStyle().
		Width(min(m.width-4, 80)).
		Padding(1, 2).
		Render(m.search.View())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

// ApplyTheme forces light or dark colors; "auto" leaves detection to
// lipgloss.
func ApplyTheme(theme string) {
	switch theme {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	}
}

// Run starts the TUI application and blocks until the user quits.
func Run(ctx context.Context, app *App) error {
	model := NewModel(ctx, app)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
