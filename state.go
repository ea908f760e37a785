package syncplay

import "context"

// State is a tagged variant of the group state machine (Idle, Waiting,
// Playing, Paused). Each is a stateless singleton value; handlers receive
// the Controller per call rather than holding a long-lived reference, so
// a State can never be called without its caller already holding the
// group lock that guards the Controller.
type State interface {
	Name() string
	Handle(ctx context.Context, ctl *GroupController, req Request) error
}

var (
	idleState    State = idleStateT{}
	waitingState State = waitingStateT{}
	playingState State = playingStateT{}
	pausedState  State = pausedStateT{}
)
