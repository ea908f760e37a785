package syncplay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func newTestQueue() *PlayQueue {
	return NewPlayQueue(fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
}

func TestPlayQueueSetPlaylist(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c"})
	require.Equal(t, 0, q.CurrentIndex())
	itemID, pid, ok := q.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "a", itemID)
	assert.Equal(t, "1", pid)
	assert.Equal(t, 3, q.Len())
}

func TestPlayQueueQueueNextInsertsAfterCursor(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c"})
	q.SetPlayingItemByIndex(1) // cursor on "b"
	q.QueueNext([]string{"x"})
	playlist := q.GetPlaylist()
	itemIDs := make([]string, len(playlist))
	for i, it := range playlist {
		itemIDs[i] = it.ItemID
	}
	assert.Equal(t, []string{"a", "b", "x", "c"}, itemIDs)
	assert.Equal(t, 1, q.CurrentIndex()) // cursor stays on "b"
}

func TestPlayQueueRemoveCurrentAdvances(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c"})
	_, pid, _ := q.CurrentItem()
	removedCurrent := q.RemoveFromPlaylist([]string{pid})
	assert.True(t, removedCurrent)
	itemID, _, ok := q.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "b", itemID)
}

func TestPlayQueueRemoveCurrentPastEndWrapsToStart(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c"})
	q.SetPlayingItemByIndex(2) // "c", the last item
	_, pid, _ := q.CurrentItem()
	removedCurrent := q.RemoveFromPlaylist([]string{pid})
	assert.True(t, removedCurrent)
	itemID, _, ok := q.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "a", itemID)
}

func TestPlayQueueRemoveNonCurrentPreservesCursor(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c"})
	q.SetPlayingItemByIndex(1) // "b"
	removedCurrent := q.RemoveFromPlaylist([]string{"1"}) // remove "a"
	assert.False(t, removedCurrent)
	itemID, _, ok := q.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "b", itemID)
}

func TestPlayQueueMovePreservesCursorIdentity(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c"})
	q.SetPlayingItemByIndex(2) // "c"
	_, currentPID, _ := q.CurrentItem()
	ok := q.MovePlaylistItem("1", 2) // move "a" to the end
	require.True(t, ok)
	itemID, pid, _ := q.CurrentItem()
	assert.Equal(t, "c", itemID)
	assert.Equal(t, currentPID, pid)
}

func TestPlayQueueNextRepeatModes(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b"})

	q.SetRepeatMode(RepeatNone)
	require.True(t, q.Next()) // a -> b
	assert.False(t, q.Next()) // at end, stays

	q.SetPlayingItemByIndex(0)
	q.SetRepeatMode(RepeatAll)
	require.True(t, q.Next()) // a -> b
	require.True(t, q.Next()) // b -> wraps to a
	itemID, _, _ := q.CurrentItem()
	assert.Equal(t, "a", itemID)

	q.SetRepeatMode(RepeatOne)
	idx := q.CurrentIndex()
	require.True(t, q.Next())
	assert.Equal(t, idx, q.CurrentIndex())
}

func TestPlayQueueShuffleRoundTrip(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c", "d", "e"})
	before := q.GetPlaylist()
	_, currentPID, _ := q.CurrentItem()

	q.SetShuffleMode(ShuffleShuffle)
	_, afterShufflePID, _ := q.CurrentItem()
	assert.Equal(t, currentPID, afterShufflePID)

	q.SetShuffleMode(ShuffleSorted)
	after := q.GetPlaylist()
	assert.Equal(t, before, after)
	_, restoredPID, _ := q.CurrentItem()
	assert.Equal(t, currentPID, restoredPID)
}

func TestPlayQueueRemoveSpanningCurrentAndEarlierItem(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b", "c", "d", "e"})
	q.SetPlayingItemByIndex(2) // "c", pid "3"
	_, currentPID, _ := q.CurrentItem()
	require.Equal(t, "3", currentPID)

	removedCurrent := q.RemoveFromPlaylist([]string{"2", currentPID}) // remove "b" and "c"
	assert.True(t, removedCurrent)
	itemID, _, ok := q.CurrentItem()
	require.True(t, ok)
	assert.Equal(t, "d", itemID)
}

func TestPlayQueueQueueThenRemoveRestoresState(t *testing.T) {
	q := newTestQueue()
	q.SetPlaylist([]string{"a", "b"})
	before := q.GetPlaylist()
	beforeIdx := q.CurrentIndex()

	q.Queue([]string{"x"})
	playlist := q.GetPlaylist()
	q.RemoveFromPlaylist([]string{playlist[len(playlist)-1].PlaylistItemID})

	assert.Equal(t, before, q.GetPlaylist())
	assert.Equal(t, beforeIdx, q.CurrentIndex())
}
