package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	tterrors "github.com/tessro/turntable/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TURNTABLE_"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.turntablerc, $XDG_CONFIG_HOME/turntable/config.toml,
// ~/.config/turntable/config.toml. A .env file in the working directory is
// loaded first and never overrides variables already set.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}

	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, tterrors.Wrap(tterrors.ErrInvalidConfig, fmt.Errorf("%s: %w", path, err))
		}
	}

	cfg.ApplyDefaults()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	loadDotEnv()

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, tterrors.Wrap(tterrors.ErrConfigNotFound, err)
		}
		return nil, tterrors.Wrap(tterrors.ErrInvalidConfig, fmt.Errorf("%s: %w", path, err))
	}
	cfg.ApplyDefaults()
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns where a new config file is written.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".turntablerc"
	}
	return filepath.Join(home, ".turntablerc")
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# turntable configuration")
	_, _ = fmt.Fprintln(f)

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func loadDotEnv() {
	// Missing .env is the common case.
	_ = godotenv.Load()
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".turntablerc"),
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "turntable", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) error {
	var errs []error

	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		i, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = i
	}

	// Spotify
	str("SPOTIFY_CLIENT_ID", &cfg.Spotify.ClientID)
	str("SPOTIFY_CLIENT_SECRET", &cfg.Spotify.ClientSecret)
	str("SPOTIFY_REDIRECT_URI", &cfg.Spotify.RedirectURI)
	str("SPOTIFY_MARKET", &cfg.Spotify.Market)

	// Store
	str("STORE_PATH", &cfg.Store.Path)

	// Playback
	num("PLAYBACK_REMOTE_TIMEOUT_MS", &cfg.Playback.RemoteTimeoutMs)
	num("PLAYBACK_ALBUM_SETTLE_MS", &cfg.Playback.AlbumSettleMs)
	num("PLAYBACK_RECONCILE_INTERVAL_MS", &cfg.Playback.ReconcileIntervalMs)
	num("PLAYBACK_HISTORY_LIMIT", &cfg.Playback.HistoryLimit)

	// Tail
	num("TAIL_INTERVAL", &cfg.Tail.Interval)

	// TUI
	str("TUI_THEME", &cfg.TUI.Theme)
	num("TUI_REFRESH_INTERVAL", &cfg.TUI.RefreshInterval)

	// Log
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FILE", &cfg.Log.File)

	if len(errs) > 0 {
		return tterrors.Wrap(tterrors.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
