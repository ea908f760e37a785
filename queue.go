package syncplay

import (
	"math/rand"
	"strconv"
	"time"
)

// ShuffleMode selects how PlayQueue.GetPlaylist presents the canonical
// order.
type ShuffleMode string

const (
	ShuffleSorted  ShuffleMode = "Sorted"
	ShuffleShuffle ShuffleMode = "Shuffle"
)

// RepeatMode controls Next/Previous behavior at the ends of the queue.
type RepeatMode string

const (
	RepeatNone RepeatMode = "RepeatNone"
	RepeatOne  RepeatMode = "RepeatOne"
	RepeatAll  RepeatMode = "RepeatAll"
)

type queueItem struct {
	itemID         string
	playlistItemID string
}

// PlayQueue is an ordered playlist with shuffle/repeat, insertion modes, a
// cursor, and a monotonic change-version. It keeps one canonical backing
// slice (insertion order) and an overlaid permutation (order) for the
// visible view, so Shuffle/Sorted round-trip losslessly and the cursor
// survives reorders by tracking playlist-item-id rather than a raw index.
type PlayQueue struct {
	items []queueItem // canonical, insertion order
	order []int       // permutation of indices into items; the visible view

	currentIndex int // index into order, or -1 if empty
	shuffle      ShuffleMode
	repeat       RepeatMode

	version    int64
	lastChange time.Time

	nextPID int64
	clock   Clock
}

// NewPlayQueue returns an empty queue in Sorted/RepeatAll mode.
func NewPlayQueue(clock Clock) *PlayQueue {
	return &PlayQueue{
		currentIndex: -1,
		shuffle:      ShuffleSorted,
		repeat:       RepeatAll,
		clock:        clock,
	}
}

func (q *PlayQueue) touch() {
	q.version++
	q.lastChange = q.clock.Now()
}

func (q *PlayQueue) assignPID() string {
	q.nextPID++
	return strconv.FormatInt(q.nextPID, 10)
}

// Reset empties the queue.
func (q *PlayQueue) Reset() {
	q.items = nil
	q.order = nil
	q.currentIndex = -1
	q.touch()
}

// SetPlaylist replaces the entire queue with fresh playlist-item-ids,
// positioning the cursor at the first item (or -1 if itemIDs is empty).
func (q *PlayQueue) SetPlaylist(itemIDs []string) {
	q.items = make([]queueItem, len(itemIDs))
	q.order = make([]int, len(itemIDs))
	for i, id := range itemIDs {
		q.items[i] = queueItem{itemID: id, playlistItemID: q.assignPID()}
		q.order[i] = i
	}
	if len(itemIDs) > 0 {
		q.currentIndex = 0
	} else {
		q.currentIndex = -1
	}
	q.touch()
}

// Len reports the number of items currently queued.
func (q *PlayQueue) Len() int { return len(q.items) }

// CurrentIndex returns the cursor's position in the visible order, or -1.
func (q *PlayQueue) CurrentIndex() int { return q.currentIndex }

// CurrentItem returns the item the cursor points to, if any.
func (q *PlayQueue) CurrentItem() (itemID, playlistItemID string, ok bool) {
	if q.currentIndex < 0 || q.currentIndex >= len(q.order) {
		return "", "", false
	}
	it := q.items[q.order[q.currentIndex]]
	return it.itemID, it.playlistItemID, true
}

// SetPlayingItemByIndex moves the cursor to visible index i.
func (q *PlayQueue) SetPlayingItemByIndex(i int) bool {
	if i < 0 || i >= len(q.order) {
		return false
	}
	q.currentIndex = i
	q.touch()
	return true
}

// SetPlayingItemByPlaylistId moves the cursor to the item with the given
// playlist-item-id.
func (q *PlayQueue) SetPlayingItemByPlaylistId(pid string) bool {
	for vi, ci := range q.order {
		if q.items[ci].playlistItemID == pid {
			q.currentIndex = vi
			q.touch()
			return true
		}
	}
	return false
}

// SetPlayingItemById moves the cursor to the first visible occurrence of
// itemID.
func (q *PlayQueue) SetPlayingItemById(itemID string) bool {
	for vi, ci := range q.order {
		if q.items[ci].itemID == itemID {
			q.currentIndex = vi
			q.touch()
			return true
		}
	}
	return false
}

// Queue appends itemIDs to the end of the canonical order (and, in Sorted
// mode, the visible order); in Shuffle mode the new items are appended to
// the tail of the current shuffled view too.
func (q *PlayQueue) Queue(itemIDs []string) {
	q.insert(itemIDs, len(q.order))
}

// QueueNext inserts itemIDs immediately after the current cursor position
// in the visible order.
func (q *PlayQueue) QueueNext(itemIDs []string) {
	at := q.currentIndex + 1
	if q.currentIndex < 0 {
		at = 0
	}
	q.insert(itemIDs, at)
}

func (q *PlayQueue) insert(itemIDs []string, at int) {
	newIdx := make([]int, len(itemIDs))
	base := len(q.items)
	for i, id := range itemIDs {
		q.items = append(q.items, queueItem{itemID: id, playlistItemID: q.assignPID()})
		newIdx[i] = base + i
	}
	if at < 0 {
		at = 0
	}
	if at > len(q.order) {
		at = len(q.order)
	}
	tail := append([]int{}, q.order[at:]...)
	q.order = append(q.order[:at], append(newIdx, tail...)...)
	if q.currentIndex < 0 && len(q.order) > 0 {
		q.currentIndex = 0
	} else if q.currentIndex >= at {
		q.currentIndex += len(itemIDs)
	}
	q.touch()
}

// MovePlaylistItem relocates the item identified by pid to newIndex in
// the visible order, preserving cursor identity.
func (q *PlayQueue) MovePlaylistItem(pid string, newIndex int) bool {
	from := -1
	for vi, ci := range q.order {
		if q.items[ci].playlistItemID == pid {
			from = vi
			break
		}
	}
	if from < 0 {
		return false
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= len(q.order) {
		newIndex = len(q.order) - 1
	}
	_, _, ok := q.CurrentItem()
	var currentPID string
	if ok {
		_, currentPID, _ = q.CurrentItem()
	}
	moved := q.order[from]
	q.order = append(q.order[:from], q.order[from+1:]...)
	tail := append([]int{moved}, q.order[newIndex:]...)
	q.order = append(q.order[:newIndex], tail...)
	if currentPID != "" {
		q.SetPlayingItemByPlaylistId(currentPID)
	}
	q.touch()
	return true
}

// removalPlan is the pure (non-mutating) result of computing what
// RemoveFromPlaylist would do; PeekItemAfterRemoval and RemoveFromPlaylist
// both build one, so the access-check peek and the actual mutation can
// never disagree about the resulting cursor.
type removalPlan struct {
	items          []queueItem
	order          []int
	currentIndex   int
	removedCurrent bool
}

func (q *PlayQueue) planRemoval(pids []string) removalPlan {
	toRemove := make(map[string]struct{}, len(pids))
	for _, p := range pids {
		toRemove[p] = struct{}{}
	}

	_, currentPID, hadCurrent := q.CurrentItem()
	_, removedCurrent := toRemove[currentPID]
	removedCurrent = removedCurrent && hadCurrent

	// How many items before the old cursor position survive removal:
	// that count is the new visible index of the item that was
	// immediately after the old current item, i.e. the "next remaining
	// item" the contract promises.
	keptBefore := 0
	if removedCurrent {
		for _, ci := range q.order[:q.currentIndex] {
			if _, drop := toRemove[q.items[ci].playlistItemID]; !drop {
				keptBefore++
			}
		}
	}

	newOrder := make([]int, 0, len(q.order))
	for _, ci := range q.order {
		if _, drop := toRemove[q.items[ci].playlistItemID]; !drop {
			newOrder = append(newOrder, ci)
		}
	}

	newItems := make([]queueItem, 0, len(q.items))
	keepIndex := make(map[int]int, len(q.items))
	for i, it := range q.items {
		if _, drop := toRemove[it.playlistItemID]; !drop {
			keepIndex[i] = len(newItems)
			newItems = append(newItems, it)
		}
	}
	for i, ci := range newOrder {
		newOrder[i] = keepIndex[ci]
	}

	var newCurrentIndex int
	switch {
	case len(newOrder) == 0:
		newCurrentIndex = -1
	case removedCurrent:
		if keptBefore >= len(newOrder) {
			newCurrentIndex = 0
		} else {
			newCurrentIndex = keptBefore
		}
	default:
		newCurrentIndex = 0
		for vi, ci := range newOrder {
			if newItems[ci].playlistItemID == currentPID {
				newCurrentIndex = vi
				break
			}
		}
	}

	return removalPlan{items: newItems, order: newOrder, currentIndex: newCurrentIndex, removedCurrent: removedCurrent}
}

// PeekItemAfterRemoval reports the item-id that would become the current
// item if pids were removed right now, without mutating the queue. Used
// by access checks that must verify the post-removal state before
// committing to it.
func (q *PlayQueue) PeekItemAfterRemoval(pids []string) (itemID string, ok bool) {
	plan := q.planRemoval(pids)
	if plan.currentIndex < 0 || plan.currentIndex >= len(plan.order) {
		return "", false
	}
	return plan.items[plan.order[plan.currentIndex]].itemID, true
}

// RemoveFromPlaylist removes every item whose playlist-item-id is in pids,
// reporting whether the currently playing item was among them. If so, the
// cursor advances to the next remaining item, wrapping to the first if
// past the end, or becomes -1 if the queue is now empty.
func (q *PlayQueue) RemoveFromPlaylist(pids []string) bool {
	plan := q.planRemoval(pids)
	q.items = plan.items
	q.order = plan.order
	q.currentIndex = plan.currentIndex
	q.touch()
	return plan.removedCurrent
}

// ItemIDForPlaylistID looks up the item-id for a playlist-item-id in the
// visible order, without mutating the cursor.
func (q *PlayQueue) ItemIDForPlaylistID(pid string) (itemID string, ok bool) {
	for _, ci := range q.order {
		if q.items[ci].playlistItemID == pid {
			return q.items[ci].itemID, true
		}
	}
	return "", false
}

// PeekNext reports what Next() would select without mutating the cursor,
// mirroring Next()'s repeat-mode semantics exactly.
func (q *PlayQueue) PeekNext() (itemID string, ok bool) {
	if len(q.order) == 0 {
		return "", false
	}
	switch q.repeat {
	case RepeatOne:
		return q.items[q.order[q.currentIndex]].itemID, true
	case RepeatAll:
		idx := (q.currentIndex + 1) % len(q.order)
		return q.items[q.order[idx]].itemID, true
	default: // RepeatNone
		if q.currentIndex+1 >= len(q.order) {
			return "", false
		}
		return q.items[q.order[q.currentIndex+1]].itemID, true
	}
}

// PeekPrevious reports what Previous() would select without mutating the
// cursor, mirroring Previous()'s repeat-mode semantics exactly.
func (q *PlayQueue) PeekPrevious() (itemID string, ok bool) {
	if len(q.order) == 0 {
		return "", false
	}
	switch q.repeat {
	case RepeatOne:
		return q.items[q.order[q.currentIndex]].itemID, true
	case RepeatAll:
		idx := (q.currentIndex - 1 + len(q.order)) % len(q.order)
		return q.items[q.order[idx]].itemID, true
	default:
		if q.currentIndex <= 0 {
			return "", false
		}
		return q.items[q.order[q.currentIndex-1]].itemID, true
	}
}

// Next advances the cursor per repeat mode: RepeatOne is a no-op that
// still reports true (client may restart the same item); RepeatAll wraps;
// RepeatNone returns false without moving past the last item.
func (q *PlayQueue) Next() bool {
	if len(q.order) == 0 {
		return false
	}
	switch q.repeat {
	case RepeatOne:
		return true
	case RepeatAll:
		q.currentIndex = (q.currentIndex + 1) % len(q.order)
		q.touch()
		return true
	default: // RepeatNone
		if q.currentIndex+1 >= len(q.order) {
			return false
		}
		q.currentIndex++
		q.touch()
		return true
	}
}

// Previous moves the cursor back one position, with the same repeat
// semantics as Next (mirrored at the start of the queue).
func (q *PlayQueue) Previous() bool {
	if len(q.order) == 0 {
		return false
	}
	switch q.repeat {
	case RepeatOne:
		return true
	case RepeatAll:
		q.currentIndex = (q.currentIndex - 1 + len(q.order)) % len(q.order)
		q.touch()
		return true
	default:
		if q.currentIndex <= 0 {
			return false
		}
		q.currentIndex--
		q.touch()
		return true
	}
}

// SetRepeatMode changes the repeat policy used by Next/Previous.
func (q *PlayQueue) SetRepeatMode(m RepeatMode) {
	q.repeat = m
	q.touch()
}

// RepeatModeValue returns the active repeat mode.
func (q *PlayQueue) RepeatModeValue() RepeatMode { return q.repeat }

// SetShuffleMode switches between Shuffle and Sorted views, keeping the
// currently playing item selected across the switch.
func (q *PlayQueue) SetShuffleMode(m ShuffleMode) {
	if m == q.shuffle {
		return
	}
	_, currentPID, hadCurrent := q.CurrentItem()
	q.shuffle = m
	switch m {
	case ShuffleSorted:
		q.order = make([]int, len(q.items))
		for i := range q.items {
			q.order[i] = i
		}
	case ShuffleShuffle:
		q.order = rand.Perm(len(q.items))
	}
	if hadCurrent {
		q.SetPlayingItemByPlaylistId(currentPID)
	}
	q.touch()
}

// ShuffleModeValue returns the active shuffle mode.
func (q *PlayQueue) ShuffleModeValue() ShuffleMode { return q.shuffle }

// GetPlaylist returns the current visible order.
func (q *PlayQueue) GetPlaylist() []QueueItemSnapshot {
	out := make([]QueueItemSnapshot, len(q.order))
	for i, ci := range q.order {
		out[i] = QueueItemSnapshot{ItemID: q.items[ci].itemID, PlaylistItemID: q.items[ci].playlistItemID}
	}
	return out
}

// AllItemIDs returns the item-id of every queued item regardless of view,
// used by access-policy checks that must cover the whole effective queue.
func (q *PlayQueue) AllItemIDs() []string {
	out := make([]string, len(q.items))
	for i, it := range q.items {
		out[i] = it.itemID
	}
	return out
}

// Version returns the monotonic change-version.
func (q *PlayQueue) Version() int64 { return q.version }

// LastChange returns the timestamp of the most recent mutation.
func (q *PlayQueue) LastChange() time.Time { return q.lastChange }

// Snapshot returns the JSON-shaped projection used in outbound messages.
func (q *PlayQueue) Snapshot() QueueSnapshot {
	return QueueSnapshot{
		Items:        q.GetPlaylist(),
		CurrentIndex: q.currentIndex,
		ShuffleMode:  q.shuffle,
		RepeatMode:   q.repeat,
		Version:      q.version,
	}
}
