package syncplay

import (
	"time"

	"github.com/mitchellh/mapstructure"
)

// RequestKind enumerates the request vocabulary of spec.md §4.4.
type RequestKind string

const (
	RequestPlay                RequestKind = "Play"
	RequestPause               RequestKind = "Pause"
	RequestUnpause             RequestKind = "Unpause"
	RequestStop                RequestKind = "Stop"
	RequestSeek                RequestKind = "Seek"
	RequestBuffering           RequestKind = "Buffering"
	RequestReady               RequestKind = "Ready"
	RequestSetIgnoreWait       RequestKind = "SetIgnoreWait"
	RequestNextTrack           RequestKind = "NextTrack"
	RequestPreviousTrack       RequestKind = "PreviousTrack"
	RequestSetPlaylistItem     RequestKind = "SetPlaylistItem"
	RequestQueue               RequestKind = "Queue"
	RequestRemoveFromPlaylist  RequestKind = "RemoveFromPlaylist"
	RequestMovePlaylistItem    RequestKind = "MovePlaylistItem"
	RequestSetRepeatMode       RequestKind = "SetRepeatMode"
	RequestSetShuffleMode      RequestKind = "SetShuffleMode"
	RequestPing                RequestKind = "Ping"
)

// Request is the generic envelope a transport decodes off the wire before
// handing it to the Manager; Params is decoded into a typed struct per
// Kind via decodeParams.
type Request struct {
	Kind      RequestKind
	SessionID string
	Params    map[string]interface{}
}

func decodeParams(params map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return dec.Decode(params)
}

// PlayParams carries the initial queue seed for RequestPlay.
type PlayParams struct {
	PlayingQueue        []string
	PlayingItemPosition int
	StartPositionTicks  Ticks
}

// SeekParams carries the target position for RequestSeek.
type SeekParams struct {
	PositionTicks Ticks
}

// BufferingParams carries a member's buffering report.
type BufferingParams struct {
	When            time.Time
	PositionTicks   Ticks
	IsPlaying       bool
	PlaylistItemID  string
	BufferingDone   bool
}

// ReadyParams carries a member's readiness report.
type ReadyParams struct {
	When           time.Time
	PositionTicks  Ticks
	IsPlaying      bool
	PlaylistItemID string
}

// SetIgnoreWaitParams toggles a member's ignore-wait flag.
type SetIgnoreWaitParams struct {
	IgnoreWait bool
}

// TrackNavParams carries the playlist-item-id the client believes is
// ending, for RequestNextTrack/RequestPreviousTrack.
type TrackNavParams struct {
	PlaylistItemID string
}

// SetPlaylistItemParams selects the current item by playlist-item-id.
type SetPlaylistItemParams struct {
	PlaylistItemID string
}

// QueueParams carries items to append or insert-next.
type QueueParams struct {
	ItemIDs []string
	Mode    string // "Queue" or "QueueNext"
}

// RemoveFromPlaylistParams carries playlist-item-ids to remove.
type RemoveFromPlaylistParams struct {
	PlaylistItemIDs []string
}

// MovePlaylistItemParams carries a reorder instruction.
type MovePlaylistItemParams struct {
	PlaylistItemID string
	NewIndex       int
}

// SetRepeatModeParams carries the requested RepeatMode name.
type SetRepeatModeParams struct {
	Mode string
}

// SetShuffleModeParams carries the requested ShuffleMode name.
type SetShuffleModeParams struct {
	Mode string
}

// PingParams carries a member's round-trip latency sample.
type PingParams struct {
	Ping float64
}
