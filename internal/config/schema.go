package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify"`
	Store    StoreConfig    `toml:"store"`
	Playback PlaybackConfig `toml:"playback"`
	Tail     TailConfig     `toml:"tail"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	Market       string `toml:"market"`
}

// StoreConfig locates the history database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// PlaybackConfig tunes the playback controller. Durations are milliseconds.
type PlaybackConfig struct {
	RemoteTimeoutMs     int `toml:"remote_timeout_ms"`
	AlbumSettleMs       int `toml:"album_settle_ms"`
	ReconcileIntervalMs int `toml:"reconcile_interval_ms"`
	HistoryLimit        int `toml:"history_limit"`
}

// RemoteTimeout returns the per-call remote timeout.
func (c PlaybackConfig) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutMs) * time.Millisecond
}

// AlbumSettle returns the pause between starting an album and reading its
// tracks. A negative setting disables it.
func (c PlaybackConfig) AlbumSettle() time.Duration {
	return time.Duration(c.AlbumSettleMs) * time.Millisecond
}

// ReconcileInterval returns how often the live snapshot is polled.
func (c PlaybackConfig) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalMs) * time.Millisecond
}

// TailConfig holds settings for tail/follow mode.
type TailConfig struct {
	Interval  int    `toml:"interval"`
	Plain     bool   `toml:"plain"`
	Timestamp bool   `toml:"timestamp"`
	Format    string `toml:"format"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}
