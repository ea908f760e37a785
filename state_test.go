package syncplay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) (*GroupController, fixedClock) {
	t.Helper()
	clock := fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	ctl := newGroupController("g1", "test group", VisibilityPublic, "admin", cfg, clock, nil, nil, nil)
	ctl.AddSession("sessA", "admin")
	return ctl, clock
}

func TestIdlePlayTransitionsToWaiting(t *testing.T) {
	ctl, _ := newTestController(t)
	err := ctl.Handle(context.Background(), Request{
		Kind:      RequestPlay,
		SessionID: "sessA",
		Params: map[string]interface{}{
			"PlayingQueue":        []string{"i1", "i2"},
			"PlayingItemPosition": 0,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Waiting", ctl.State())
	assert.True(t, ctl.pendingResume)
}

func TestWaitingReadyTransitionsToPlaying(t *testing.T) {
	ctl, clock := newTestController(t)
	ctl.Queue.SetPlaylist([]string{"i1"})
	ctl.SetState(waitingState)
	ctl.pendingResume = true
	ctl.SetAllBuffering(true)

	itemID, pid, _ := ctl.Queue.CurrentItem()
	_ = itemID
	err := ctl.Handle(context.Background(), Request{
		Kind:      RequestReady,
		SessionID: "sessA",
		Params: map[string]interface{}{
			"When":           clock.Now(),
			"PositionTicks":  0,
			"IsPlaying":      true,
			"PlaylistItemID": pid,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Playing", ctl.State())
}

func TestPlayingPauseComputesPosition(t *testing.T) {
	ctl, clock := newTestController(t)
	ctl.Queue.SetPlaylist([]string{"i1"})
	ctl.SetState(playingState)
	ctl.LastActivity = clock.Now()
	ctl.RunTimeTicks = TicksFromDuration(time.Hour)

	advanced := fixedClock{t: clock.Now().Add(5 * time.Second)}
	ctl.clock = advanced

	err := ctl.Handle(context.Background(), Request{Kind: RequestPause, SessionID: "sessA"})
	require.NoError(t, err)
	assert.Equal(t, "Paused", ctl.State())
	assert.Equal(t, TicksFromDuration(5*time.Second), ctl.PositionTicks)
}

func TestPausedUnpauseTransitionsToWaiting(t *testing.T) {
	ctl, _ := newTestController(t)
	ctl.Queue.SetPlaylist([]string{"i1"})
	ctl.SetState(pausedState)

	err := ctl.Handle(context.Background(), Request{Kind: RequestUnpause, SessionID: "sessA"})
	require.NoError(t, err)
	assert.Equal(t, "Waiting", ctl.State())
	assert.True(t, ctl.pendingResume)
}

func TestPausedDuplicatePauseAcknowledged(t *testing.T) {
	ctl, _ := newTestController(t)
	ctl.Queue.SetPlaylist([]string{"i1"})
	ctl.SetState(pausedState)

	err := ctl.Handle(context.Background(), Request{Kind: RequestPause, SessionID: "sessA"})
	require.NoError(t, err)
	assert.Equal(t, "Paused", ctl.State())
	envelopes := ctl.drainOutbox()
	require.Len(t, envelopes, 1)
	assert.NotNil(t, envelopes[0].command)
	assert.Equal(t, CommandPause, envelopes[0].command.Command)
}

func TestNonAdminForbiddenFromPlaylistEdit(t *testing.T) {
	ctl, _ := newTestController(t)
	ctl.Queue.SetPlaylist([]string{"i1"})
	ctl.Access.OpenPlaylistAccess = false
	ctl.AddSession("sessB", "userB")

	err := ctl.Handle(context.Background(), Request{
		Kind:      RequestQueue,
		SessionID: "sessB",
		Params:    map[string]interface{}{"ItemIDs": []string{"i2"}, "Mode": "Queue"},
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPingBypassesStateDispatch(t *testing.T) {
	ctl, _ := newTestController(t)
	err := ctl.Handle(context.Background(), Request{
		Kind:      RequestPing,
		SessionID: "sessA",
		Params:    map[string]interface{}{"Ping": 42.0},
	})
	require.NoError(t, err)
	m, ok := ctl.Member("sessA")
	require.True(t, ok)
	assert.Equal(t, 42.0, m.PingMS)
}
