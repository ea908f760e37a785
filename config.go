package syncplay

import "time"

// Config holds the coordinator's tunables; production code loads these
// via the config package's koanf-based loader, tests use DefaultConfig()
// or a struct literal directly.
type Config struct {
	TimeSyncOffset     time.Duration
	MaxPlaybackOffset  time.Duration
	DefaultPingMS      float64
	GracePeriod        time.Duration
	OpenPlaybackAccess bool
	OpenPlaylistAccess bool
}

// DefaultConfig returns sensible defaults: 2000ms time-sync offset,
// 500ms max playback offset, 500ms default ping, immediate (zero grace
// period) group sweep, open playback/playlist access.
func DefaultConfig() Config {
	return Config{
		TimeSyncOffset:     2000 * time.Millisecond,
		MaxPlaybackOffset:  500 * time.Millisecond,
		DefaultPingMS:      DefaultPingMS,
		GracePeriod:        0,
		OpenPlaybackAccess: true,
		OpenPlaylistAccess: true,
	}
}
