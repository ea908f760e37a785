package syncplay_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deluan/syncplay"
	"github.com/deluan/syncplay/synctest"
)

type harness struct {
	clock    *synctest.VirtualClock
	sessions *synctest.FakeSessions
	users    *synctest.FakeUsers
	library  *synctest.FakeLibrary
	delivery *synctest.FakeDeliverer
	manager  *syncplay.SyncPlayManager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:    synctest.NewVirtualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		sessions: synctest.NewFakeSessions(),
		users:    synctest.NewFakeUsers(),
		library:  synctest.NewFakeLibrary(),
		delivery: synctest.NewFakeDeliverer(),
	}
	cfg := syncplay.DefaultConfig()
	h.manager = syncplay.NewSyncPlayManager(cfg, h.clock, h.sessions, h.users, h.library, h.delivery)
	return h
}

func (h *harness) addSession(sessionID, userID string) {
	h.sessions.Add(syncplay.SessionInfo{SessionID: sessionID, UserID: userID})
}

func TestCreateAndSoloPlay(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")

	_, err := h.manager.NewGroup(ctx, "sessA", "G", syncplay.VisibilityPublic)
	require.NoError(t, err)

	err = h.manager.HandleRequest(ctx, syncplay.Request{
		Kind:      syncplay.RequestPlay,
		SessionID: "sessA",
		Params: map[string]interface{}{
			"PlayingQueue":        []string{"i1", "i2", "i3"},
			"PlayingItemPosition": 0,
			"StartPositionTicks":  0,
		},
	})
	require.NoError(t, err)

	before := h.delivery.Count()
	err = h.manager.HandleRequest(ctx, syncplay.Request{
		Kind:      syncplay.RequestReady,
		SessionID: "sessA",
		Params: map[string]interface{}{
			"When":           h.clock.Now(),
			"PositionTicks":  0,
			"IsPlaying":      true,
			"PlaylistItemID": "1",
		},
	})
	require.NoError(t, err)

	require.True(t, h.delivery.WaitFor(before+1, time.Second))
	cmds := h.delivery.CommandsFor("sessA")
	require.NotEmpty(t, cmds)
	last := cmds[len(cmds)-1]
	assert.Equal(t, syncplay.CommandUnpause, last.Command)
}

func TestSynchronizedPause(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")
	h.addSession("sessB", "userB")

	groupID, err := h.manager.NewGroup(ctx, "sessA", "G", syncplay.VisibilityPublic)
	require.NoError(t, err)
	require.NoError(t, h.manager.JoinGroup(ctx, "sessB", groupID))

	require.NoError(t, h.manager.HandleRequest(ctx, syncplay.Request{
		Kind: syncplay.RequestPlay, SessionID: "sessA",
		Params: map[string]interface{}{"PlayingQueue": []string{"i1"}, "PlayingItemPosition": 0, "StartPositionTicks": 0},
	}))
	for _, s := range []string{"sessA", "sessB"} {
		require.NoError(t, h.manager.HandleRequest(ctx, syncplay.Request{
			Kind: syncplay.RequestReady, SessionID: s,
			Params: map[string]interface{}{"When": h.clock.Now(), "PositionTicks": 0, "IsPlaying": true, "PlaylistItemID": "1"},
		}))
	}

	h.clock.Advance(10 * time.Second)
	before := h.delivery.Count()
	require.NoError(t, h.manager.HandleRequest(ctx, syncplay.Request{Kind: syncplay.RequestPause, SessionID: "sessB"}))

	require.True(t, h.delivery.WaitFor(before+1, time.Second))
	cmds := h.delivery.CommandsFor("sessA")
	require.NotEmpty(t, cmds)
	last := cmds[len(cmds)-1]
	assert.Equal(t, syncplay.CommandPause, last.Command)
	// Playing started scheduled TimeSyncOffset+highestPing ahead of the
	// Ready reports, so only the remainder of the 10s advance elapsed
	// as actual playback time.
	cfg := syncplay.DefaultConfig()
	startupOffset := cfg.TimeSyncOffset + time.Duration(syncplay.DefaultPingMS)*time.Millisecond
	expected := syncplay.TicksFromDuration(10*time.Second - startupOffset)
	assert.Equal(t, expected, last.PositionTicks)
}

func TestWebRTCRelayUnicast(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")
	h.addSession("sessB", "userB")

	groupID, err := h.manager.NewGroup(ctx, "sessA", "G", syncplay.VisibilityPublic)
	require.NoError(t, err)
	require.NoError(t, h.manager.JoinGroup(ctx, "sessB", groupID))

	before := h.delivery.Count()
	require.NoError(t, h.manager.HandleWebRTC(ctx, "sessA", syncplay.WebRTCPayload{To: "sessB"}))
	require.True(t, h.delivery.WaitFor(before+1, time.Second))

	updates := h.delivery.UpdatesFor("sessB")
	last := updates[len(updates)-1]
	assert.Equal(t, syncplay.UpdateWebRTC, last.Type)

	for _, u := range h.delivery.UpdatesFor("sessA") {
		assert.NotEqual(t, syncplay.UpdateWebRTC, u.Type)
	}
}

func TestLibraryAccessDeniedBlocksQueueMutation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")
	h.addSession("sessC", "userC")
	h.users.RatingCaps["userC"] = 12
	h.library.Items["adult"] = syncplay.LibraryItem{ItemID: "adult", ParentalRating: 18}

	groupID, err := h.manager.NewGroup(ctx, "sessA", "G", syncplay.VisibilityPublic)
	require.NoError(t, err)
	require.NoError(t, h.manager.JoinGroup(ctx, "sessC", groupID))

	err = h.manager.HandleRequest(ctx, syncplay.Request{
		Kind: syncplay.RequestPlay, SessionID: "sessA",
		Params: map[string]interface{}{"PlayingQueue": []string{"adult"}, "PlayingItemPosition": 0, "StartPositionTicks": 0},
	})
	assert.ErrorIs(t, err, syncplay.ErrLibraryAccessDenied)
}

func TestSetPlaylistItemDeniedForInaccessibleQueuedItem(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")
	h.addSession("sessC", "userC")
	h.users.RatingCaps["userC"] = 12
	h.library.Items["adult"] = syncplay.LibraryItem{ItemID: "adult", ParentalRating: 18}

	groupID, err := h.manager.NewGroup(ctx, "sessA", "G", syncplay.VisibilityPublic)
	require.NoError(t, err)

	require.NoError(t, h.manager.HandleRequest(ctx, syncplay.Request{
		Kind: syncplay.RequestPlay, SessionID: "sessA",
		Params: map[string]interface{}{"PlayingQueue": []string{"safe", "adult"}, "PlayingItemPosition": 0, "StartPositionTicks": 0},
	}))

	// userC joins after the inaccessible item is already queued: join
	// itself must succeed (scenario 4's "join succeeds with an
	// inaccessible item already in queue" rule).
	require.NoError(t, h.manager.JoinGroup(ctx, "sessC", groupID))

	err = h.manager.HandleRequest(ctx, syncplay.Request{
		Kind: syncplay.RequestSetPlaylistItem, SessionID: "sessA",
		Params: map[string]interface{}{"PlaylistItemID": "2"},
	})
	assert.ErrorIs(t, err, syncplay.ErrLibraryAccessDenied)
}

func TestLeaveGroupIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")
	assert.NoError(t, h.manager.LeaveGroup(ctx, "sessA"))
}

func TestListAvailableUsersFiltersByPolicy(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")
	h.addSession("sessB", "userB")
	h.users.Allowed["userB"] = false

	users, err := h.manager.ListAvailableUsers(ctx, "sessA")
	require.NoError(t, err)

	var ids []string
	for _, u := range users {
		ids = append(ids, u.UserID)
	}
	assert.Contains(t, ids, "userA")
	assert.NotContains(t, ids, "userB")
}

func TestAlreadyInGroup(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.addSession("sessA", "userA")
	_, err := h.manager.NewGroup(ctx, "sessA", "G", syncplay.VisibilityPublic)
	require.NoError(t, err)
	_, err = h.manager.NewGroup(ctx, "sessA", "G2", syncplay.VisibilityPublic)
	assert.ErrorIs(t, err, syncplay.ErrAlreadyInGroup)
}
