package syncplay

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	synclog "github.com/deluan/syncplay/log"
)

type groupEntry struct {
	mu  sync.Mutex
	ctl *GroupController
}

// SyncPlayManager is the top-level registry of groups; it routes session
// operations to the right group under correct locking and enforces the
// cross-group invariant that a session belongs to at most one group.
//
// Lock order is fixed: mapMu (for groups/sessionGroup) is acquired only
// to add/remove a group, bind/unbind a session, or look up an entry
// pointer, and is never taken while a group's own lock is held. The only
// place both are held together is the empty-group sweep, which takes
// mapMu first and then briefly the group lock. A Controller never calls
// back into the Manager while its group lock is held.
type SyncPlayManager struct {
	mapMu        sync.Mutex
	groups       map[string]*groupEntry
	sessionGroup map[string]string

	cfg      Config
	clock    Clock
	sessions SessionRegistry
	users    UserService
	library  LibraryAccess
	delivery Deliverer
}

// NewSyncPlayManager wires the collaborator interfaces this package
// consumes but never implements.
func NewSyncPlayManager(cfg Config, clock Clock, sessions SessionRegistry, users UserService, library LibraryAccess, delivery Deliverer) *SyncPlayManager {
	if clock == nil {
		clock = RealClock
	}
	return &SyncPlayManager{
		groups:       make(map[string]*groupEntry),
		sessionGroup: make(map[string]string),
		cfg:          cfg,
		clock:        clock,
		sessions:     sessions,
		users:        users,
		library:      library,
		delivery:     delivery,
	}
}

// entryFor looks up a group's entry pointer under the map lock, then
// releases the map lock before returning: callers take entry.mu
// themselves, so the map lock is never held concurrently with a group
// lock.
func (m *SyncPlayManager) entryFor(groupID string) (*groupEntry, bool) {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	e, ok := m.groups[groupID]
	return e, ok
}

func (m *SyncPlayManager) groupOf(sessionID string) (string, bool) {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	g, ok := m.sessionGroup[sessionID]
	return g, ok
}

func (m *SyncPlayManager) bindSession(sessionID, groupID string) {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	m.sessionGroup[sessionID] = groupID
}

func (m *SyncPlayManager) unbindSession(sessionID string) {
	m.mapMu.Lock()
	defer m.mapMu.Unlock()
	delete(m.sessionGroup, sessionID)
}

// withGroup resolves groupID to its entry, takes the group lock, runs fn,
// drains and dispatches the resulting outbox, then (if the group is now
// empty) schedules the sweep per the configured grace period. The map
// lock is never held while fn runs.
func (m *SyncPlayManager) withGroup(ctx context.Context, groupID string, fn func(*GroupController) error) error {
	e, ok := m.entryFor(groupID)
	if !ok {
		return ErrGroupNotFound
	}
	e.mu.Lock()
	err := fn(e.ctl)
	envelopes := e.ctl.drainOutbox()
	empty := e.ctl.MemberCount() == 0
	e.mu.Unlock()

	m.dispatch(ctx, envelopes)
	if empty {
		m.scheduleSweep(groupID)
	}
	return err
}

func (m *SyncPlayManager) scheduleSweep(groupID string) {
	sweep := func() {
		m.mapMu.Lock()
		defer m.mapMu.Unlock()
		e, ok := m.groups[groupID]
		if !ok {
			return
		}
		e.mu.Lock()
		empty := e.ctl.MemberCount() == 0
		e.mu.Unlock()
		if empty {
			delete(m.groups, groupID)
		}
	}
	if m.cfg.GracePeriod <= 0 {
		sweep()
		return
	}
	time.AfterFunc(m.cfg.GracePeriod, sweep)
}

// dispatch fans the composed envelopes out to the Deliverer, fire-and-
// forget per recipient: one goroutine per delivery, never awaited by the
// caller, and delivery failures never roll back committed group state.
func (m *SyncPlayManager) dispatch(ctx context.Context, envelopes []outboundEnvelope) {
	if m.delivery == nil {
		return
	}
	for _, env := range envelopes {
		for _, sessionID := range env.recipients {
			sessionID := sessionID
			env := env
			go func() {
				var err error
				switch {
				case env.update != nil:
					err = m.delivery.DeliverUpdate(ctx, sessionID, *env.update)
				case env.command != nil:
					err = m.delivery.DeliverCommand(ctx, sessionID, *env.command)
				}
				if err != nil {
					synclog.Error(ctx, "delivery failed", "session", sessionID, "err", err)
				}
			}()
		}
	}
}

// NewGroup creates a group for session, with it as sole administrator,
// seeding the queue from its now-playing state if any.
func (m *SyncPlayManager) NewGroup(ctx context.Context, sessionID, name string, visibility Visibility) (string, error) {
	if _, ok := m.groupOf(sessionID); ok {
		return "", ErrAlreadyInGroup
	}
	info, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if m.users != nil {
		ok, err := m.users.HasSyncPlayAccess(ctx, info.UserID)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrCreateDenied
		}
	}

	groupID := uuid.NewString()
	ctl := newGroupController(groupID, name, visibility, info.UserID, m.cfg, m.clock, m.users, m.library, m.delivery)
	ctl.AddSession(sessionID, info.UserID)

	if info.NowPlaying != nil && len(info.NowPlaying.QueueItemIDs) > 0 {
		np := info.NowPlaying
		if !ctl.SetPlayQueue(ctx, np.QueueItemIDs, np.QueueIndex, np.PositionTicks) {
			return "", ErrLibraryAccessDenied
		}
		ctl.pendingResume = !np.IsPaused
		ctl.SetState(waitingState)
		ctl.SetAllBuffering(true)
	}

	ctl.SendGroupUpdate(sessionID, AudienceCurrentSession, UpdateGroupJoined, ctl.Snapshot())
	envelopes := ctl.drainOutbox()

	m.mapMu.Lock()
	m.groups[groupID] = &groupEntry{ctl: ctl}
	m.sessionGroup[sessionID] = groupID
	m.mapMu.Unlock()

	m.dispatch(ctx, envelopes)
	return groupID, nil
}

// JoinGroup binds session to groupID, auto-leaving any prior group first.
func (m *SyncPlayManager) JoinGroup(ctx context.Context, sessionID, groupID string) error {
	if current, ok := m.groupOf(sessionID); ok {
		if current == groupID {
			return ErrAlreadyInGroup
		}
		if err := m.LeaveGroup(ctx, sessionID); err != nil {
			return err
		}
	}
	info, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	err = m.withGroup(ctx, groupID, func(ctl *GroupController) error {
		if !ctl.CanJoin(info.UserID) {
			return ErrJoinDenied
		}
		ctl.AddSession(sessionID, info.UserID)
		ctl.SendGroupUpdate(sessionID, AudienceCurrentSession, UpdateGroupJoined, ctl.Snapshot())
		ctl.SendGroupUpdate(sessionID, AudienceAllExceptCurrentSession, UpdateUserJoined, info.UserID)
		return nil
	})
	if err == nil {
		m.bindSession(sessionID, groupID)
	}
	return err
}

// RestoreSession rebinds a reconnecting session to its existing group
// without re-running join-acceptance, and re-sends only that session its
// current GroupJoined snapshot.
func (m *SyncPlayManager) RestoreSession(ctx context.Context, sessionID, groupID, userID string) error {
	err := m.withGroup(ctx, groupID, func(ctl *GroupController) error {
		ctl.AddSession(sessionID, userID)
		ctl.SendGroupUpdate(sessionID, AudienceCurrentSession, UpdateGroupJoined, ctl.Snapshot())
		return nil
	})
	if err == nil {
		m.bindSession(sessionID, groupID)
	}
	return err
}

// LeaveGroup removes session from its group, a no-op if it is not a
// member of any group.
func (m *SyncPlayManager) LeaveGroup(ctx context.Context, sessionID string) error {
	groupID, ok := m.groupOf(sessionID)
	if !ok {
		return nil
	}
	err := m.withGroup(ctx, groupID, func(ctl *GroupController) error {
		if leaving, ok := ctl.Member(sessionID); ok && ctl.Access.IsAdministrator(leaving.UserID) {
			stillPresent := false
			for id, mem := range ctl.members {
				if id != sessionID && mem.UserID == leaving.UserID {
					stillPresent = true
					break
				}
			}
			if !stillPresent {
				ctl.Access.RemoveAdministrator(leaving.UserID)
			}
		}
		empty := ctl.RemoveSession(sessionID)
		if empty {
			ctl.SetState(idleState)
		} else {
			ctl.SendGroupUpdate(sessionID, AudienceAllGroup, UpdateUserLeft, sessionID)
		}
		return nil
	})
	m.unbindSession(sessionID)
	return err
}

// GroupSettings carries the administrator-only changes UpdateGroupSettings
// applies to a group's name, visibility, invited users, open defaults, and
// per-user rows.
type GroupSettings struct {
	Name               *string
	Visibility         *Visibility
	InvitedUsers       []string
	OpenPlaybackAccess *bool
	OpenPlaylistAccess *bool
	AccessListUserIDs  []string
	AccessListPlayback []bool
	AccessListPlaylist []bool
}

// UpdateGroupSettings applies settings, authorized to administrators only.
func (m *SyncPlayManager) UpdateGroupSettings(ctx context.Context, sessionID string, settings GroupSettings) error {
	groupID, ok := m.groupOf(sessionID)
	if !ok {
		return ErrNotInGroup
	}
	return m.withGroup(ctx, groupID, func(ctl *GroupController) error {
		member, ok := ctl.Member(sessionID)
		if !ok {
			return ErrNotInGroup
		}
		if !ctl.Access.IsAdministrator(member.UserID) {
			return ErrForbidden
		}
		if settings.Name != nil {
			ctl.Name = *settings.Name
		}
		if settings.Visibility != nil {
			ctl.Visibility = *settings.Visibility
		}
		if settings.InvitedUsers != nil {
			ctl.SetInvited(settings.InvitedUsers)
		}
		if settings.OpenPlaybackAccess != nil {
			ctl.Access.OpenPlaybackAccess = *settings.OpenPlaybackAccess
		}
		if settings.OpenPlaylistAccess != nil {
			ctl.Access.OpenPlaylistAccess = *settings.OpenPlaylistAccess
		}
		for i, userID := range settings.AccessListUserIDs {
			playback := i < len(settings.AccessListPlayback) && settings.AccessListPlayback[i]
			playlist := i < len(settings.AccessListPlaylist) && settings.AccessListPlaylist[i]
			ctl.Access.SetPermissions(userID, playback, playlist)
		}
		ctl.SendGroupUpdate(sessionID, AudienceAllGroup, UpdateGroupUpdate, ctl.Snapshot())
		return nil
	})
}

// GroupInfo is the listing projection returned by ListGroups.
type GroupInfo struct {
	GroupID    string
	Name       string
	Visibility Visibility
}

// ListGroups returns every group the session's user could join
// (visibility filter only, does not exclude groups already joined).
func (m *SyncPlayManager) ListGroups(ctx context.Context, sessionID string) ([]GroupInfo, error) {
	info, err := m.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m.mapMu.Lock()
	entries := make([]*groupEntry, 0, len(m.groups))
	for _, e := range m.groups {
		entries = append(entries, e)
	}
	m.mapMu.Unlock()

	var out []GroupInfo
	for _, e := range entries {
		e.mu.Lock()
		if e.ctl.CanJoin(info.UserID) {
			out = append(out, GroupInfo{GroupID: e.ctl.GroupID, Name: e.ctl.Name, Visibility: e.ctl.Visibility})
		}
		e.mu.Unlock()
	}
	return out, nil
}

// UserInfo is the listing projection returned by ListAvailableUsers.
type UserInfo struct {
	UserID string
}

// ListAvailableUsers returns every user who holds SyncPlay policy and is
// currently reachable (has at least one connected session), per spec.md
// §4.3. The requesting session need only exist; it is not excluded from
// the result.
func (m *SyncPlayManager) ListAvailableUsers(ctx context.Context, sessionID string) ([]UserInfo, error) {
	if _, err := m.sessions.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	userIDs, err := m.sessions.ActiveUserIDs(ctx)
	if err != nil {
		return nil, err
	}
	var out []UserInfo
	for _, userID := range userIDs {
		if m.users != nil {
			ok, err := m.users.HasSyncPlayAccess(ctx, userID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, UserInfo{UserID: userID})
	}
	return out, nil
}

// HandleRequest forwards req to session's group; silently dropped (nil
// error) if the session is not currently in a group.
func (m *SyncPlayManager) HandleRequest(ctx context.Context, req Request) error {
	groupID, ok := m.groupOf(req.SessionID)
	if !ok {
		return nil
	}
	return m.withGroup(ctx, groupID, func(ctl *GroupController) error {
		return ctl.Handle(ctx, req)
	})
}

// HandleWebRTC forwards a signaling payload to session's group.
func (m *SyncPlayManager) HandleWebRTC(ctx context.Context, sessionID string, payload WebRTCPayload) error {
	groupID, ok := m.groupOf(sessionID)
	if !ok {
		return nil
	}
	return m.withGroup(ctx, groupID, func(ctl *GroupController) error {
		ctl.HandleWebRTC(sessionID, payload)
		return nil
	})
}
