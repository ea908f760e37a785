package syncplay

import "context"

// SessionInfo is the subset of session-registry state this package needs:
// who owns the session and, if applicable, what it was already playing
// when it asked to create a group.
type SessionInfo struct {
	SessionID string
	UserID    string
	NowPlaying *NowPlaying
}

// NowPlaying describes a session's playback state at the moment it
// requests to create a group, used to seed the new group's queue.
type NowPlaying struct {
	QueueItemIDs  []string
	QueueIndex    int
	PositionTicks Ticks
	IsPaused      bool
}

// SessionRegistry resolves session identity and current now-playing
// state. Implemented externally (HTTP/WebSocket layer); this package only
// consumes it.
type SessionRegistry interface {
	GetSession(ctx context.Context, sessionID string) (SessionInfo, error)

	// ActiveUserIDs returns the user ids with at least one currently
	// connected session, used by SyncPlayManager.ListAvailableUsers to
	// resolve which SyncPlay-capable users are reachable right now.
	ActiveUserIDs(ctx context.Context) ([]string, error)
}

// UserService answers SyncPlay policy and capability questions about a
// user. Implemented externally (user directory).
type UserService interface {
	HasSyncPlayAccess(ctx context.Context, userID string) (bool, error)
	ParentalRatingCap(ctx context.Context, userID string) (int, bool, error) // cap, hasCap, err
	EnabledFolders(ctx context.Context, userID string) (all bool, folders []string, err error)
}

// LibraryItem is the subset of catalog metadata this package needs for
// access checks and run-time loading.
type LibraryItem struct {
	ItemID         string
	RunTimeTicks   Ticks
	ParentalRating int
	CollectionFolder string
}

// LibraryAccess resolves item metadata for access checks and run-time
// loading. Implemented externally (library catalog).
type LibraryAccess interface {
	GetItems(ctx context.Context, itemIDs []string) (map[string]LibraryItem, error)
}

// Deliverer is the only awaitable boundary: actually handing a composed
// message to a client socket. Implemented externally by the transport
// layer; this package dispatches to it fire-and-forget, after releasing
// its group lock.
type Deliverer interface {
	DeliverUpdate(ctx context.Context, sessionID string, update GroupUpdate) error
	DeliverCommand(ctx context.Context, sessionID string, command Command) error
}
