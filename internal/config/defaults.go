package config

import "github.com/tessro/turntable/internal/history"

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:8888/callback",
			Market:      "US",
		},
		Playback: PlaybackConfig{
			RemoteTimeoutMs:     10000,
			AlbumSettleMs:       1000,
			ReconcileIntervalMs: 5000,
			HistoryLimit:        history.DefaultLimit,
		},
		Tail: TailConfig{
			Interval: 1000,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}
	if c.Spotify.Market == "" {
		c.Spotify.Market = d.Spotify.Market
	}

	// Playback
	if c.Playback.RemoteTimeoutMs == 0 {
		c.Playback.RemoteTimeoutMs = d.Playback.RemoteTimeoutMs
	}
	if c.Playback.AlbumSettleMs == 0 {
		c.Playback.AlbumSettleMs = d.Playback.AlbumSettleMs
	}
	if c.Playback.ReconcileIntervalMs == 0 {
		c.Playback.ReconcileIntervalMs = d.Playback.ReconcileIntervalMs
	}
	if c.Playback.HistoryLimit == 0 {
		c.Playback.HistoryLimit = d.Playback.HistoryLimit
	}

	// Tail
	if c.Tail.Interval == 0 {
		c.Tail.Interval = d.Tail.Interval
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = d.Log.MaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = d.Log.MaxBackups
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = d.Log.MaxAgeDays
	}
}
