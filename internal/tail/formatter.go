package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/tessro/turntable/internal/core"
)

type eventMeta struct {
	name  string
	emoji string
	// verb prefixes the subject track; empty for events without one.
	verb     string
	fallback string
}

var eventTable = map[EventType]eventMeta{
	EventTrackChange:   {"track_change", "🎵", "Now playing", "Track changed"},
	EventTrackComplete: {"track_complete", "✅", "Finished", "Track completed"},
	EventTrackSkip:     {"track_skip", "⏭️", "Skipped", "Track skipped"},
	EventPause:         {"pause", "⏸️", "", "Paused"},
	EventResume:        {"resume", "▶️", "", "Resumed"},
	EventVolumeChange:  {"volume_change", "🔊", "", "Volume changed"},
	EventDeviceChange:  {"device_change", "📱", "", "Device changed"},
}

func (t EventType) meta() eventMeta {
	if m, ok := eventTable[t]; ok {
		return m
	}
	return eventMeta{name: "unknown", emoji: "❓", fallback: "Unknown event"}
}

// String returns the snake_case name used in templates.
func (t EventType) String() string {
	return t.meta().name
}

// Formatter renders events as one line each.
type Formatter struct {
	emoji     bool
	timestamp bool
	template  *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji prefixes each line with the event's emoji.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) { f.emoji = enabled }
}

// WithTimestamp prefixes each line with the local time of the event.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) { f.timestamp = enabled }
}

// WithTemplate renders events through a text/template instead. A template
// that does not parse is ignored.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl == "" {
			return
		}
		if t, err := template.New("event").Parse(tmpl); err == nil {
			f.template = t
		}
	}
}

// NewFormatter creates a formatter. Emoji are on unless disabled.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{emoji: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format renders e.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		var buf bytes.Buffer
		if err := f.template.Execute(&buf, newTemplateData(e)); err == nil {
			return buf.String()
		}
	}

	var b strings.Builder
	if f.timestamp {
		b.WriteString(e.Timestamp.Format("15:04:05"))
		b.WriteByte(' ')
	}
	if f.emoji {
		b.WriteString(e.Type.meta().emoji)
		b.WriteByte(' ')
	}
	b.WriteString(describe(e))
	return b.String()
}

// subject is the track an event is about: the one that ended for
// completions and skips, the live one otherwise.
func subject(e Event) *core.Track {
	s := e.Current
	if e.Type == EventTrackComplete || e.Type == EventTrackSkip {
		s = e.Previous
	}
	if s == nil {
		return nil
	}
	return s.Track
}

func describe(e Event) string {
	m := e.Type.meta()
	if m.verb != "" {
		if t := subject(e); t != nil {
			return m.verb + ": " + trackLabel(t)
		}
		return m.fallback
	}

	switch {
	case e.Type == EventVolumeChange && e.Current != nil:
		return fmt.Sprintf("Volume: %d%%", e.Current.Volume)
	case e.Type == EventDeviceChange && e.Current != nil && e.Current.Device != nil:
		return "Device: " + e.Current.Device.Name
	}
	return m.fallback
}

func trackLabel(t *core.Track) string {
	s := t.ArtistNames() + " - " + t.Name
	if t.Liked {
		s += " ♥"
	}
	return s
}

// templateData is what --format templates can reference.
type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Title     string
	Artist    string
	Album     string
	URI       string
	Liked     bool
	Device    string
	Volume    int
	Progress  string
}

func newTemplateData(e Event) templateData {
	data := templateData{
		Type:      e.Type.String(),
		Emoji:     e.Type.meta().emoji,
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
	}
	if t := subject(e); t != nil {
		data.Title = t.Name
		data.Artist = t.ArtistNames()
		data.Album = t.Album.Name
		data.URI = t.URI
		data.Liked = t.Liked
	}
	if c := e.Current; c != nil {
		data.Volume = c.Volume
		data.Progress = formatProgress(c.Progress)
		if c.Device != nil {
			data.Device = c.Device.Name
		}
	}
	return data
}

// formatProgress renders a playback offset as m:ss.
func formatProgress(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
