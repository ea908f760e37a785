package syncplay

// Permissions is the effective {playback, playlist} pair a user is
// authorized for within a group.
type Permissions struct {
	Playback bool
	Playlist bool
}

// AccessList is the per-group permission table: an administrator set plus
// a per-user override map, falling back to the group's open defaults.
type AccessList struct {
	administrators map[string]struct{}
	permissions    map[string]Permissions

	OpenPlaybackAccess bool
	OpenPlaylistAccess bool
}

// NewAccessList builds an AccessList with the given open defaults and no
// administrators yet; callers add the creating user separately.
func NewAccessList(openPlayback, openPlaylist bool) *AccessList {
	return &AccessList{
		administrators:     make(map[string]struct{}),
		permissions:        make(map[string]Permissions),
		OpenPlaybackAccess: openPlayback,
		OpenPlaylistAccess: openPlaylist,
	}
}

// AddAdministrator grants a user unconditional pass on every check.
func (a *AccessList) AddAdministrator(userID string) {
	a.administrators[userID] = struct{}{}
}

// RemoveAdministrator revokes administrator status. Per spec.md §4.6, the
// set is never auto-refilled: a group can end up with zero administrators.
func (a *AccessList) RemoveAdministrator(userID string) {
	delete(a.administrators, userID)
}

// IsAdministrator reports whether userID is in the administrator set.
func (a *AccessList) IsAdministrator(userID string) bool {
	_, ok := a.administrators[userID]
	return ok
}

// TouchPermissions materializes a permission-map entry for userID from the
// current open defaults, if one does not already exist. Called on join so
// a later change to the open defaults does not retroactively affect users
// who already have an explicit (even if default-valued) entry.
func (a *AccessList) TouchPermissions(userID string) {
	if _, ok := a.permissions[userID]; ok {
		return
	}
	a.permissions[userID] = Permissions{
		Playback: a.OpenPlaybackAccess,
		Playlist: a.OpenPlaylistAccess,
	}
}

// SetPermissions records an explicit override for userID.
func (a *AccessList) SetPermissions(userID string, playback, playlist bool) {
	a.permissions[userID] = Permissions{Playback: playback, Playlist: playlist}
}

// ClearPermissions drops userID's override; a later TouchPermissions will
// re-materialize it from the (possibly since-changed) open defaults.
func (a *AccessList) ClearPermissions(userID string) {
	delete(a.permissions, userID)
}

// Resolve returns the effective permissions for userID: their explicit
// entry if present, else the open defaults.
func (a *AccessList) Resolve(userID string) Permissions {
	if p, ok := a.permissions[userID]; ok {
		return p
	}
	return Permissions{Playback: a.OpenPlaybackAccess, Playlist: a.OpenPlaylistAccess}
}

// requiredPermission classifies a RequestKind per the table in spec.md §4.4.
// permNone requests (Ping) are authorized by the Controller directly and
// never reach CheckRequest.
type requiredPermission int

const (
	permPlayback requiredPermission = iota
	permPlaylist
	permNone
)

func (k RequestKind) required() requiredPermission {
	switch k {
	case RequestPlay, RequestPause, RequestUnpause, RequestStop, RequestSeek,
		RequestBuffering, RequestReady, RequestSetIgnoreWait,
		RequestNextTrack, RequestPreviousTrack:
		return permPlayback
	case RequestSetPlaylistItem, RequestQueue, RequestRemoveFromPlaylist,
		RequestMovePlaylistItem, RequestSetRepeatMode, RequestSetShuffleMode:
		return permPlaylist
	default:
		return permNone
	}
}

// CheckRequest authorizes a request for userID: administrators always
// pass; otherwise the resolved permission pair must cover what the
// request's kind requires.
func (a *AccessList) CheckRequest(userID string, kind RequestKind) error {
	if a.IsAdministrator(userID) {
		return nil
	}
	perm := a.Resolve(userID)
	switch kind.required() {
	case permPlayback:
		if !perm.Playback {
			return ErrForbidden
		}
	case permPlaylist:
		if !perm.Playlist {
			return ErrForbidden
		}
	}
	return nil
}
