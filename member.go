package syncplay

// DefaultPingMS is a new member's ping estimate before its first Ping
// request arrives.
const DefaultPingMS = 500.0

// Member is a single connected session's presence record within a group.
type Member struct {
	SessionID   string
	UserID      string
	PingMS      float64
	IsBuffering bool
	IgnoreWait  bool
}

// NewMember returns a Member with the default ping estimate and no
// outstanding flags.
func NewMember(sessionID, userID string) *Member {
	return &Member{SessionID: sessionID, UserID: userID, PingMS: DefaultPingMS}
}
