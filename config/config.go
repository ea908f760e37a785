// Package config loads SyncPlay's tunables with koanf: code defaults
// first, then an optional YAML file layered on top, mirroring the
// defaults-then-file pattern used elsewhere in the example corpus.
package config

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/deluan/syncplay"
)

// fileShape mirrors syncplay.Config's fields with koanf struct tags; the
// durations and ping value are expressed in milliseconds in YAML for
// human-friendly config files.
type fileShape struct {
	TimeSyncOffsetMS     int64   `koanf:"timeSyncOffsetMs"`
	MaxPlaybackOffsetMS  int64   `koanf:"maxPlaybackOffsetMs"`
	DefaultPingMS        float64 `koanf:"defaultPingMs"`
	GracePeriodMS        int64   `koanf:"gracePeriodMs"`
	OpenPlaybackAccess   bool    `koanf:"openPlaybackAccess"`
	OpenPlaylistAccess   bool    `koanf:"openPlaylistAccess"`
}

func defaults() fileShape {
	d := syncplay.DefaultConfig()
	return fileShape{
		TimeSyncOffsetMS:    d.TimeSyncOffset.Milliseconds(),
		MaxPlaybackOffsetMS: d.MaxPlaybackOffset.Milliseconds(),
		DefaultPingMS:       d.DefaultPingMS,
		GracePeriodMS:       d.GracePeriod.Milliseconds(),
		OpenPlaybackAccess:  d.OpenPlaybackAccess,
		OpenPlaylistAccess:  d.OpenPlaylistAccess,
	}
}

// Default returns the built-in defaults as a syncplay.Config, with no
// file overlay.
func Default() syncplay.Config {
	return toConfig(defaults())
}

// Load reads code defaults, then overlays path (if non-empty and
// present) as a YAML file, and returns the resulting syncplay.Config.
// A missing path is not an error: defaults apply unmodified.
func Load(path string) (syncplay.Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return syncplay.Config{}, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return syncplay.Config{}, err
		}
	}
	var fs fileShape
	if err := k.Unmarshal("", &fs); err != nil {
		return syncplay.Config{}, err
	}
	return toConfig(fs), nil
}

func toConfig(fs fileShape) syncplay.Config {
	return syncplay.Config{
		TimeSyncOffset:     time.Duration(fs.TimeSyncOffsetMS) * time.Millisecond,
		MaxPlaybackOffset:  time.Duration(fs.MaxPlaybackOffsetMS) * time.Millisecond,
		DefaultPingMS:      fs.DefaultPingMS,
		GracePeriod:        time.Duration(fs.GracePeriodMS) * time.Millisecond,
		OpenPlaybackAccess: fs.OpenPlaybackAccess,
		OpenPlaylistAccess: fs.OpenPlaylistAccess,
	}
}
