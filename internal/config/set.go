package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	tterrors "github.com/tessro/turntable/internal/errors"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindBool
)

var settableKeys = map[string]keyKind{
	"spotify.client_id":              kindString,
	"spotify.client_secret":          kindString,
	"spotify.redirect_uri":           kindString,
	"spotify.market":                 kindString,
	"store.path":                     kindString,
	"playback.remote_timeout_ms":     kindInt,
	"playback.album_settle_ms":       kindInt,
	"playback.reconcile_interval_ms": kindInt,
	"playback.history_limit":         kindInt,
	"tail.interval":                  kindInt,
	"tail.plain":                     kindBool,
	"tail.timestamp":                 kindBool,
	"tail.format":                    kindString,
	"tui.theme":                      kindString,
	"tui.refresh_interval":           kindInt,
	"log.level":                      kindString,
	"log.file":                       kindString,
	"log.max_size_mb":                kindInt,
	"log.max_backups":                kindInt,
	"log.max_age_days":               kindInt,
}

// Keys lists every key Set accepts, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set updates a single "section.key" in the config file at path, keeping
// any other keys the file already has. The result must still validate.
func Set(path, key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return tterrors.WithSuggestion(
			fmt.Errorf("%w: unknown key %q", tterrors.ErrInvalidConfig, key),
			"Supported keys: "+strings.Join(Keys(), ", "),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tterrors.WithSuggestion(
				tterrors.Wrap(tterrors.ErrConfigNotFound, err),
				"Run 'turntable config init' first",
			)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return tterrors.Wrap(tterrors.ErrInvalidConfig, err)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = map[string]any{}
		raw[section] = sectionMap
	}

	switch kind {
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: value must be an integer for %s", tterrors.ErrInvalidConfig, key)
		}
		sectionMap[field] = int64(i)
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: value must be true or false for %s", tterrors.ErrInvalidConfig, key)
		}
		sectionMap[field] = b
	default:
		sectionMap[field] = value
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	check := &Config{}
	if _, err := toml.Decode(buf.String(), check); err != nil {
		return tterrors.Wrap(tterrors.ErrInvalidConfig, err)
	}
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}

	return Save(path, raw)
}
