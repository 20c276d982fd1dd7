package wizard

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/turntable/internal/core"
)

type fakeSearcher struct {
	tracks []core.Track
	albums []core.AlbumSummary
	calls  []string
}

func (s *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]core.Track, error) {
	s.calls = append(s.calls, "track:"+query)
	return s.tracks, nil
}

func (s *fakeSearcher) SearchAlbums(ctx context.Context, query string, limit int) ([]core.AlbumSummary, error) {
	s.calls = append(s.calls, "album:"+query)
	return s.albums, nil
}

func typed(m SearchModel, s string) SearchModel {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(SearchModel)
	}
	return m
}

func TestSearchResultLabels(t *testing.T) {
	tr := core.Track{Name: "Song", Artists: core.ArtistsFromNames("A", "B")}
	al := core.AlbumSummary{Name: "Blue", Artists: core.ArtistsFromNames("Joni"), ReleaseDate: "1971-06-22"}

	tests := []struct {
		name         string
		r            SearchResult
		wantTitle    string
		wantSubtitle string
	}{
		{"track", SearchResult{Track: &tr}, "Song", "A, B"},
		{"album", SearchResult{Album: &al}, "Blue", "Joni (1971)"},
		{"empty", SearchResult{}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Title(); got != tt.wantTitle {
				t.Errorf("Title() = %q, want %q", got, tt.wantTitle)
			}
			if got := tt.r.Subtitle(); got != tt.wantSubtitle {
				t.Errorf("Subtitle() = %q, want %q", got, tt.wantSubtitle)
			}
		})
	}
}

func TestSearchRunsForCurrentType(t *testing.T) {
	s := &fakeSearcher{
		tracks: []core.Track{{ID: "t1", Name: "One"}},
		albums: []core.AlbumSummary{{ID: "al1", Name: "Album"}},
	}
	m := typed(NewSearchModel(context.Background(), s, SearchTracks), "hey")

	msg := m.doSearch("hey")()
	next, _ := m.Update(msg)
	m = next.(SearchModel)
	if len(m.results) != 1 || m.results[0].Track == nil || m.results[0].Track.ID != "t1" {
		t.Fatalf("results = %+v, want track t1", m.results)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(SearchModel)
	if m.searchType != SearchAlbums {
		t.Fatalf("searchType = %v, want albums", m.searchType)
	}
	if cmd == nil {
		t.Fatal("tab with a query should search again")
	}
	next, _ = m.Update(cmd())
	m = next.(SearchModel)
	if len(m.results) != 1 || m.results[0].Album == nil {
		t.Fatalf("results = %+v, want album", m.results)
	}
	if got := strings.Join(s.calls, ","); got != "track:hey,album:hey" {
		t.Errorf("calls = %s", got)
	}
}

func TestStaleResultsAreDropped(t *testing.T) {
	s := &fakeSearcher{}
	m := typed(NewSearchModel(context.Background(), s, SearchTracks), "abc")

	stale := searchResultsMsg{
		query:      "ab",
		searchType: SearchTracks,
		results:    []SearchResult{{Track: &core.Track{ID: "old"}}},
	}
	next, _ := m.Update(stale)
	m = next.(SearchModel)
	if len(m.results) != 0 {
		t.Errorf("stale results applied: %+v", m.results)
	}
}

func TestEnterSelects(t *testing.T) {
	s := &fakeSearcher{}
	m := NewSearchModel(context.Background(), s, SearchTracks)
	m.results = []SearchResult{
		{Track: &core.Track{ID: "a"}},
		{Track: &core.Track{ID: "b"}},
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(SearchModel)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(SearchModel)

	if m.Selected() == nil || m.Selected().Track.ID != "b" {
		t.Fatalf("Selected() = %+v, want b", m.Selected())
	}
	if cmd == nil {
		t.Error("enter should quit")
	}
}

func TestViewTruncatesLongTitles(t *testing.T) {
	m := NewSearchModel(context.Background(), &fakeSearcher{}, SearchTracks)
	m.width = 30
	m.results = []SearchResult{{Track: &core.Track{Name: strings.Repeat("x", 100)}}}

	view := m.View()
	if strings.Contains(view, strings.Repeat("x", 100)) {
		t.Error("long title not truncated")
	}
	if !strings.Contains(view, "…") {
		t.Error("truncation marker missing")
	}
}

func TestEmbeddedReportsInsteadOfQuitting(t *testing.T) {
	m := NewSearchModel(context.Background(), &fakeSearcher{}, SearchTracks).Embedded()
	m.results = []SearchResult{{Track: &core.Track{ID: "a"}}}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	closed, ok := cmd().(SearchClosedMsg)
	if !ok {
		t.Fatalf("command produced %T, want SearchClosedMsg", cmd())
	}
	if closed.Selected == nil || closed.Selected.Track.ID != "a" {
		t.Errorf("Selected = %+v, want a", closed.Selected)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if closed, ok := cmd().(SearchClosedMsg); !ok || closed.Selected != nil {
		t.Errorf("esc produced %+v, want empty SearchClosedMsg", cmd())
	}
}
