package syncplay

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	synclog "github.com/deluan/syncplay/log"
)

// Visibility controls who may discover and join a group.
type Visibility string

const (
	VisibilityPublic     Visibility = "Public"
	VisibilityInviteOnly Visibility = "InviteOnly"
	VisibilityPrivate    Visibility = "Private"
)

// GroupController owns one group's members, access list, queue, and
// state. It is not internally thread-safe: every exported method assumes
// its caller already holds the owning group's lock (see
// SyncPlayManager.withGroup).
type GroupController struct {
	clock Clock
	cfg   Config

	users    UserService
	library  LibraryAccess
	delivery Deliverer

	GroupID    string
	Name       string
	Visibility Visibility
	invited    map[string]struct{}

	Access *AccessList
	Queue  *PlayQueue
	state  State

	members map[string]*Member // sessionID -> Member

	RunTimeTicks  Ticks
	PositionTicks Ticks
	LastActivity  time.Time

	pendingResume       bool
	latestReportedReady time.Time

	outbox []outboundEnvelope
}

// newGroupController constructs a Controller in Idle state with an empty
// queue and access list, administered by creatorUserID.
func newGroupController(groupID, name string, visibility Visibility, creatorUserID string, cfg Config, clock Clock, users UserService, library LibraryAccess, delivery Deliverer) *GroupController {
	ctl := &GroupController{
		clock:      clock,
		cfg:        cfg,
		users:      users,
		library:    library,
		delivery:   delivery,
		GroupID:    groupID,
		Name:       name,
		Visibility: visibility,
		invited:    make(map[string]struct{}),
		Access:     NewAccessList(cfg.OpenPlaybackAccess, cfg.OpenPlaylistAccess),
		Queue:      NewPlayQueue(clock),
		state:      idleState,
		members:    make(map[string]*Member),
	}
	ctl.Access.AddAdministrator(creatorUserID)
	ctl.LastActivity = clock.Now()
	return ctl
}

// State returns the current state's name, for diagnostics/tests.
func (c *GroupController) State() string { return c.state.Name() }

// SetState transitions the controller to s.
func (c *GroupController) SetState(s State) { c.state = s }

// now returns the controller's clock reading.
func (c *GroupController) now() time.Time { return c.clock.Now() }

// IsInvited reports whether userID is on the invited list.
func (c *GroupController) IsInvited(userID string) bool {
	_, ok := c.invited[userID]
	return ok
}

// SetInvited replaces the invited-user set.
func (c *GroupController) SetInvited(userIDs []string) {
	c.invited = make(map[string]struct{}, len(userIDs))
	for _, u := range userIDs {
		c.invited[u] = struct{}{}
	}
}

// CanJoin applies the visibility rule of spec.md §4.3.
func (c *GroupController) CanJoin(userID string) bool {
	switch c.Visibility {
	case VisibilityPublic:
		return true
	case VisibilityInviteOnly:
		return c.IsInvited(userID) || c.Access.IsAdministrator(userID)
	default: // Private
		return c.Access.IsAdministrator(userID)
	}
}

// AddSession registers a new member and materializes its permissions.
func (c *GroupController) AddSession(sessionID, userID string) {
	c.members[sessionID] = NewMember(sessionID, userID)
	c.Access.TouchPermissions(userID)
}

// RemoveSession drops a member, reporting whether the group is now empty.
func (c *GroupController) RemoveSession(sessionID string) (empty bool) {
	delete(c.members, sessionID)
	return len(c.members) == 0
}

// MemberCount returns the number of current members.
func (c *GroupController) MemberCount() int { return len(c.members) }

// Member looks up a member by session id.
func (c *GroupController) Member(sessionID string) (*Member, bool) {
	m, ok := c.members[sessionID]
	return m, ok
}

// SetBuffering marks a single member's buffering flag.
func (c *GroupController) SetBuffering(sessionID string, buffering bool) {
	if m, ok := c.members[sessionID]; ok {
		m.IsBuffering = buffering
	}
}

// SetAllBuffering marks every member's buffering flag, used when a state
// transition invalidates everyone's readiness at once.
func (c *GroupController) SetAllBuffering(buffering bool) {
	for _, m := range c.members {
		m.IsBuffering = buffering
	}
}

// IsBuffering reports whether any non-ignored member is still buffering.
func (c *GroupController) IsBuffering() bool {
	for _, m := range c.members {
		if m.IsBuffering && !m.IgnoreWait {
			return true
		}
	}
	return false
}

// UpdatePing records a member's latest round-trip latency sample.
func (c *GroupController) UpdatePing(sessionID string, pingMS float64) {
	if m, ok := c.members[sessionID]; ok {
		m.PingMS = pingMS
	}
}

// GetHighestPing returns the largest ping among current members, or the
// default if the group has no members.
func (c *GroupController) GetHighestPing() time.Duration {
	if len(c.members) == 0 {
		return time.Duration(DefaultPingMS * float64(time.Millisecond))
	}
	highest := 0.0
	for _, m := range c.members {
		if m.PingMS > highest {
			highest = m.PingMS
		}
	}
	return time.Duration(highest * float64(time.Millisecond))
}

// SanitizePositionTicks clamps t into [0, RunTimeTicks]. While
// RunTimeTicks is not positive (run time unknown), only the lower bound
// is applied.
func (c *GroupController) SanitizePositionTicks(t Ticks) Ticks {
	if t < 0 {
		return 0
	}
	if c.RunTimeTicks > 0 && t > c.RunTimeTicks {
		return c.RunTimeTicks
	}
	return t
}

// ClampReportedTime clamps a client-reported timestamp to now if it falls
// outside ±TimeSyncOffset, per spec.md §4.6's tie-break rule.
func (c *GroupController) ClampReportedTime(reported time.Time) time.Time {
	now := c.now()
	offset := c.cfg.TimeSyncOffset
	if reported.Before(now.Add(-offset)) || reported.After(now.Add(offset)) {
		return now
	}
	return reported
}

// RestartCurrentItem resets position tracking for a freshly selected
// queue item.
func (c *GroupController) RestartCurrentItem() {
	c.PositionTicks = 0
	c.LastActivity = c.now()
}

// checkAccess verifies every current member's user can access every item
// in itemIDs (parental rating cap and enabled-folders), per spec.md
// §4.5's item access policy.
func (c *GroupController) checkAccess(ctx context.Context, itemIDs []string) error {
	if len(itemIDs) == 0 || c.library == nil {
		return nil
	}
	items, err := c.library.GetItems(ctx, itemIDs)
	if err != nil {
		return errors.Wrap(err, "resolving library items")
	}
	userIDs := make(map[string]struct{})
	for _, m := range c.members {
		userIDs[m.UserID] = struct{}{}
	}
	for userID := range userIDs {
		cap_, hasCap, err := c.users.ParentalRatingCap(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "resolving parental rating cap")
		}
		allFolders, folders, err := c.users.EnabledFolders(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "resolving enabled folders")
		}
		enabled := make(map[string]struct{}, len(folders))
		for _, f := range folders {
			enabled[f] = struct{}{}
		}
		for _, id := range itemIDs {
			item, ok := items[id]
			if !ok {
				continue
			}
			if hasCap && item.ParentalRating > cap_ {
				return ErrLibraryAccessDenied
			}
			if !allFolders {
				if _, ok := enabled[item.CollectionFolder]; !ok {
					return ErrLibraryAccessDenied
				}
			}
		}
	}
	return nil
}

func (c *GroupController) loadRunTime(ctx context.Context, itemID string) {
	if c.library == nil || itemID == "" {
		return
	}
	items, err := c.library.GetItems(ctx, []string{itemID})
	if err != nil {
		return
	}
	if it, ok := items[itemID]; ok {
		c.RunTimeTicks = it.RunTimeTicks
	}
}

// SetPlayQueue replaces the queue wholesale, first verifying every
// member's access to the new items.
func (c *GroupController) SetPlayQueue(ctx context.Context, itemIDs []string, startIndex int, startPosition Ticks) bool {
	if err := c.checkAccess(ctx, itemIDs); err != nil {
		return false
	}
	c.Queue.SetPlaylist(itemIDs)
	if startIndex > 0 {
		c.Queue.SetPlayingItemByIndex(startIndex)
	}
	itemID, _, ok := c.Queue.CurrentItem()
	if ok {
		c.loadRunTime(ctx, itemID)
	}
	c.PositionTicks = c.SanitizePositionTicks(startPosition)
	c.LastActivity = c.now()
	return true
}

// AddToPlayQueue appends items (mode "Queue") or inserts them after the
// cursor (mode "QueueNext"), first verifying access over the resulting
// effective queue.
func (c *GroupController) AddToPlayQueue(ctx context.Context, itemIDs []string, queueNext bool) bool {
	all := append(append([]string{}, c.Queue.AllItemIDs()...), itemIDs...)
	if err := c.checkAccess(ctx, all); err != nil {
		return false
	}
	if queueNext {
		c.Queue.QueueNext(itemIDs)
	} else {
		c.Queue.Queue(itemIDs)
	}
	return true
}

// RemoveFromPlayQueue removes the given playlist-item-ids, first
// verifying every member can access whatever item would become current as
// a result (the unchanged current item if the currently playing item
// isn't among pids). Returns ErrLibraryAccessDenied without removing anything if that
// check fails.
func (c *GroupController) RemoveFromPlayQueue(ctx context.Context, pids []string) error {
	if itemID, ok := c.Queue.PeekItemAfterRemoval(pids); ok {
		if err := c.checkAccess(ctx, []string{itemID}); err != nil {
			return err
		}
	}
	if c.Queue.RemoveFromPlaylist(pids) {
		itemID, _, ok := c.Queue.CurrentItem()
		if ok {
			c.loadRunTime(ctx, itemID)
		}
		c.RestartCurrentItem()
	}
	return nil
}

// MoveItemInPlayQueue reorders a queue item, first verifying every member
// can still access the currently playing item (reordering never changes
// which item is current, but a member's access may have changed since it
// was selected). Returns ErrStaleRequest if pid does not identify a
// queued item, ErrLibraryAccessDenied if the access check fails.
func (c *GroupController) MoveItemInPlayQueue(ctx context.Context, pid string, newIndex int) error {
	if itemID, _, ok := c.Queue.CurrentItem(); ok {
		if err := c.checkAccess(ctx, []string{itemID}); err != nil {
			return err
		}
	}
	if !c.Queue.MovePlaylistItem(pid, newIndex) {
		return ErrStaleRequest
	}
	return nil
}

// NextItemInQueue advances the queue cursor, first verifying every member
// can access the item it would land on, and reloads run-time/position
// tracking for the new current item. The bool reports whether there was a
// next item to advance to (false just means end-of-queue, not an error);
// a non-nil error means the access check failed and nothing advanced.
func (c *GroupController) NextItemInQueue(ctx context.Context) (bool, error) {
	itemID, ok := c.Queue.PeekNext()
	if !ok {
		return false, nil
	}
	if err := c.checkAccess(ctx, []string{itemID}); err != nil {
		return false, err
	}
	if !c.Queue.Next() {
		return false, nil
	}
	c.loadRunTime(ctx, itemID)
	c.RestartCurrentItem()
	return true, nil
}

// PreviousItemInQueue moves the queue cursor back, first verifying every
// member can access the item it would land on, and reloads run-time/
// position tracking for the new current item. See NextItemInQueue for the
// bool/error split.
func (c *GroupController) PreviousItemInQueue(ctx context.Context) (bool, error) {
	itemID, ok := c.Queue.PeekPrevious()
	if !ok {
		return false, nil
	}
	if err := c.checkAccess(ctx, []string{itemID}); err != nil {
		return false, err
	}
	if !c.Queue.Previous() {
		return false, nil
	}
	c.loadRunTime(ctx, itemID)
	c.RestartCurrentItem()
	return true, nil
}

// SetPlayingItemByPlaylistID moves the cursor directly to pid, first
// verifying every member can access the target item, and reloads
// run-time/position tracking. Returns ErrStaleRequest if pid does not
// identify a currently queued item, ErrLibraryAccessDenied if any member
// fails the access check.
func (c *GroupController) SetPlayingItemByPlaylistID(ctx context.Context, pid string) error {
	itemID, ok := c.Queue.ItemIDForPlaylistID(pid)
	if !ok {
		return ErrStaleRequest
	}
	if err := c.checkAccess(ctx, []string{itemID}); err != nil {
		return err
	}
	c.Queue.SetPlayingItemByPlaylistId(pid)
	c.loadRunTime(ctx, itemID)
	c.RestartCurrentItem()
	return nil
}

// HandleReportedPosition advances to the next queue item when a member
// reports a position past the current item's run time (beyond the
// MaxPlaybackOffset tolerance, to absorb clock/position-reporting
// jitter right at the boundary) while still actively playing, per
// spec.md §4.6's tie-break rule. Reports whether it advanced the track,
// so callers can skip their normal Ready/Buffering handling for this
// report.
func (c *GroupController) HandleReportedPosition(ctx context.Context, reported Ticks, isPlaying bool) bool {
	if !isPlaying || c.RunTimeTicks <= 0 {
		return false
	}
	tolerance := TicksFromDuration(c.cfg.MaxPlaybackOffset)
	if reported <= c.RunTimeTicks+tolerance {
		return false
	}
	advanced, _ := c.NextItemInQueue(ctx)
	return advanced
}

// sessionsFor returns the session ids belonging to audience, given the
// triggering session id "from".
func (c *GroupController) sessionsFor(audience Audience, from string) []string {
	var out []string
	switch audience {
	case AudienceCurrentSession:
		if _, ok := c.members[from]; ok {
			out = append(out, from)
		}
	case AudienceAllGroup:
		for id := range c.members {
			out = append(out, id)
		}
	case AudienceAllExceptCurrentSession:
		for id := range c.members {
			if id != from {
				out = append(out, id)
			}
		}
	case AudienceAllReady:
		for id, m := range c.members {
			if !m.IsBuffering || m.IgnoreWait {
				out = append(out, id)
			}
		}
	}
	return out
}

// SendGroupUpdate composes a GroupUpdate for later dispatch; it must be
// called while the group lock is held, and the Manager drains the outbox
// and dispatches after releasing the lock.
func (c *GroupController) SendGroupUpdate(from string, audience Audience, updateType GroupUpdateType, payload interface{}) {
	c.outbox = append(c.outbox, outboundEnvelope{
		recipients: c.sessionsFor(audience, from),
		update:     &GroupUpdate{GroupID: c.GroupID, Type: updateType, Payload: payload},
	})
}

// NewSyncPlayCommand builds a Command carrying the group's current
// playing item, LastActivity, and position, stamped with the controller's
// clock as EmittedAt.
func (c *GroupController) NewSyncPlayCommand(cmdType CommandType) Command {
	_, pid, _ := c.Queue.CurrentItem()
	return Command{
		GroupID:        c.GroupID,
		PlayingItemPID: pid,
		When:           c.LastActivity,
		Command:        cmdType,
		PositionTicks:  c.PositionTicks,
		EmittedAt:      c.now(),
	}
}

// SendCommand composes a Command for later dispatch, same discipline as
// SendGroupUpdate.
func (c *GroupController) SendCommand(from string, audience Audience, cmdType CommandType) {
	c.outbox = append(c.outbox, outboundEnvelope{
		recipients: c.sessionsFor(audience, from),
		command:    ptr(c.NewSyncPlayCommand(cmdType)),
	})
}

func ptr[T any](v T) *T { return &v }

// drainOutbox empties and returns the composed outbox; called by the
// Manager immediately before releasing the group lock.
func (c *GroupController) drainOutbox() []outboundEnvelope {
	out := c.outbox
	c.outbox = nil
	return out
}

// Snapshot returns the JSON-shaped projection of the whole group.
func (c *GroupController) Snapshot() GroupSnapshot {
	return GroupSnapshot{
		GroupID:       c.GroupID,
		Name:          c.Name,
		Queue:         c.Queue.Snapshot(),
		PositionTicks: c.PositionTicks,
		RunTimeTicks:  c.RunTimeTicks,
		State:         c.state.Name(),
	}
}

// Handle dispatches req to the current state after authorizing it; Ping
// is handled directly (permNone) and never reaches a state.
func (c *GroupController) Handle(ctx context.Context, req Request) error {
	if req.Kind == RequestPing {
		var p PingParams
		if err := decodeParams(req.Params, &p); err != nil {
			return errors.Wrap(err, "decoding ping params")
		}
		c.UpdatePing(req.SessionID, p.Ping)
		return nil
	}
	m, ok := c.members[req.SessionID]
	if !ok {
		return ErrNotInGroup
	}
	if err := c.Access.CheckRequest(m.UserID, req.Kind); err != nil {
		return err
	}
	return c.state.Handle(ctx, c, req)
}

// WebRTCPayload mirrors spec.md §4.5's relay envelope.
type WebRTCPayload struct {
	To             string
	FromSessionID  string
	IsNewSession   bool
	IsLeaving      bool
	ICECandidate   *ICECandidateInit
	Offer          *SessionDescription
	Answer         *SessionDescription
}

// HandleWebRTC relays a signaling payload: unicast if To names a current
// member, broadcast to all-but-sender if To is empty, otherwise dropped.
func (c *GroupController) HandleWebRTC(from string, payload WebRTCPayload) {
	payload.FromSessionID = from
	if payload.To == "" {
		c.SendGroupUpdate(from, AudienceAllExceptCurrentSession, UpdateWebRTC, payload)
		return
	}
	if _, ok := c.members[payload.To]; ok {
		c.outbox = append(c.outbox, outboundEnvelope{
			recipients: []string{payload.To},
			update:     &GroupUpdate{GroupID: c.GroupID, Type: UpdateWebRTC, Payload: payload},
		})
		return
	}
	synclog.Warn(context.Background(), "webrtc recipient not in group, dropped", "session", from, "to", payload.To)
}
