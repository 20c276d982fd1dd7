package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tessro/turntable/internal/core"
)

// SearchType represents the type of search to perform.
type SearchType int

const (
	SearchTracks SearchType = iota
	SearchAlbums
)

var searchTabs = []string{"Tracks", "Albums"}

// SearchResult is one pickable hit. Exactly one of Track or Album is set.
type SearchResult struct {
	Track *core.Track
	Album *core.AlbumSummary
}

// Title returns the primary label of the result.
func (r SearchResult) Title() string {
	switch {
	case r.Track != nil:
		return r.Track.Name
	case r.Album != nil:
		return r.Album.Name
	default:
		return ""
	}
}

// Subtitle returns the artist line of the result.
func (r SearchResult) Subtitle() string {
	switch {
	case r.Track != nil:
		return r.Track.ArtistNames()
	case r.Album != nil:
		names := make([]string, len(r.Album.Artists))
		for i, a := range r.Album.Artists {
			names[i] = a.Name
		}
		s := strings.Join(names, ", ")
		if year, _, _ := strings.Cut(r.Album.ReleaseDate, "-"); year != "" {
			s += " (" + year + ")"
		}
		return s
	default:
		return ""
	}
}

// Searcher runs the queries behind the wizard.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]core.Track, error)
	SearchAlbums(ctx context.Context, query string, limit int) ([]core.AlbumSummary, error)
}

const searchLimit = 15

// SearchModel is the bubbletea model for the search wizard.
type SearchModel struct {
	ctx        context.Context
	input      textinput.Model
	results    []SearchResult
	cursor     int
	searchType SearchType
	searcher   Searcher
	selected   *SearchResult
	err        error
	debounce   time.Duration
	lastQuery  string
	searching  bool
	embedded   bool
	width      int
	height     int
}

// SearchClosedMsg is emitted by an embedded SearchModel instead of quitting
// the program. Selected is nil when the user backed out.
type SearchClosedMsg struct {
	Selected *SearchResult
}

// Styles
var (
	searchTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	searchTabStyle = lipgloss.NewStyle().
			Padding(0, 2)

	searchActiveTabStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Background(lipgloss.Color("205")).
				Foreground(lipgloss.Color("0"))

	searchResultStyle = lipgloss.NewStyle().
				PaddingLeft(2)

	searchSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	searchSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))
)

// NewSearchModel creates a new search wizard model.
func NewSearchModel(ctx context.Context, searcher Searcher, initial SearchType) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Search for tracks or albums..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return SearchModel{
		ctx:        ctx,
		input:      ti,
		searcher:   searcher,
		debounce:   300 * time.Millisecond,
		searchType: initial,
		width:      80,
		height:     20,
	}
}

// Embedded returns a copy that reports SearchClosedMsg instead of quitting,
// for use as an overlay inside another program.
func (m SearchModel) Embedded() SearchModel {
	m.embedded = true
	return m
}

func (m SearchModel) close() tea.Cmd {
	if !m.embedded {
		return tea.Quit
	}
	selected := m.selected
	return func() tea.Msg {
		return SearchClosedMsg{Selected: selected}
	}
}

// Init initializes the model.
func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

// debounceMsg is sent after the debounce period.
type debounceMsg struct {
	query string
}

// searchResultsMsg contains search results for one query and type.
type searchResultsMsg struct {
	query      string
	searchType SearchType
	results    []SearchResult
	err        error
}

// Update handles messages.
func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, m.close()

		case "enter":
			if len(m.results) > 0 && m.cursor < len(m.results) {
				m.selected = &m.results[m.cursor]
				return m, m.close()
			}

		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case "down", "ctrl+n":
			if m.cursor < len(m.results)-1 {
				m.cursor++
			}
			return m, nil

		case "tab", "shift+tab":
			m.searchType = (m.searchType + 1) % SearchType(len(searchTabs))
			if q := m.input.Value(); q != "" {
				m.searching = true
				return m, m.doSearch(q)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 4

	case debounceMsg:
		if msg.query == m.input.Value() && msg.query != m.lastQuery {
			m.lastQuery = msg.query
			m.searching = true
			return m, m.doSearch(msg.query)
		}
		return m, nil

	case searchResultsMsg:
		// Drop answers to queries the user has already typed past.
		if msg.query != m.input.Value() || msg.searchType != m.searchType {
			return m, nil
		}
		m.searching = false
		m.results = msg.results
		m.err = msg.err
		m.cursor = 0
		return m, nil
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	if q := m.input.Value(); q != m.lastQuery {
		cmds = append(cmds, tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return debounceMsg{query: q}
		}))
	}

	return m, tea.Batch(cmds...)
}

// doSearch performs the search.
func (m SearchModel) doSearch(query string) tea.Cmd {
	searchType := m.searchType
	ctx := m.ctx
	searcher := m.searcher
	return func() tea.Msg {
		msg := searchResultsMsg{query: query, searchType: searchType}
		if strings.TrimSpace(query) == "" {
			return msg
		}
		switch searchType {
		case SearchAlbums:
			albums, err := searcher.SearchAlbums(ctx, query, searchLimit)
			msg.err = err
			for i := range albums {
				msg.results = append(msg.results, SearchResult{Album: &albums[i]})
			}
		default:
			tracks, err := searcher.Search(ctx, query, searchLimit)
			msg.err = err
			for i := range tracks {
				msg.results = append(msg.results, SearchResult{Track: &tracks[i]})
			}
		}
		return msg
	}
}

// View renders the model.
func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(searchTitleStyle.Render("🔍 Search"))
	b.WriteString("\n\n")

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for i, tab := range searchTabs {
		if SearchType(i) == m.searchType {
			b.WriteString(searchActiveTabStyle.Render(tab))
		} else {
			b.WriteString(searchTabStyle.Render(tab))
		}
	}
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("Error: " + m.err.Error()))
	case m.searching:
		b.WriteString("Searching...")
	case len(m.results) == 0 && m.input.Value() != "":
		b.WriteString("No results found")
	default:
		maxResults := max(m.height-10, 5)
		lineWidth := max(m.width-6, 20)
		for i, result := range m.results {
			if i >= maxResults {
				b.WriteString(searchSubtitleStyle.Render("  ...and more"))
				break
			}

			title := runewidth.Truncate(result.Title(), lineWidth, "…")
			line := title
			if sub := result.Subtitle(); sub != "" {
				room := lineWidth - runewidth.StringWidth(title) - 1
				if room > 3 {
					line += " " + searchSubtitleStyle.Render(runewidth.Truncate(sub, room, "…"))
				}
			}

			if i == m.cursor {
				b.WriteString(searchSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(searchResultStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(searchSubtitleStyle.Render("↑/↓ navigate • tab switch type • enter select • esc quit"))

	return b.String()
}

// Selected returns the selected result, or nil if none.
func (m SearchModel) Selected() *SearchResult {
	return m.selected
}

// RunSearch runs the search wizard and returns the selected result.
func RunSearch(ctx context.Context, searcher Searcher, initial SearchType) (*SearchResult, error) {
	model := NewSearchModel(ctx, searcher, initial)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(SearchModel).Selected(), nil
}
