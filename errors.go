package syncplay

import "github.com/cockroachdb/errors"

// Sentinel errors for every refusal kind in the request/response contract.
// Callers compare with errors.Is; the transport layer is responsible for
// translating these into the out-of-band GroupUpdate it sends back to the
// requesting session (spec's error-handling design keeps the command
// channel itself fire-and-forget).
var (
	ErrAlreadyInGroup      = errors.New("syncplay: session already belongs to a group")
	ErrNotInGroup          = errors.New("syncplay: session does not belong to a group")
	ErrGroupNotFound       = errors.New("syncplay: group not found")
	ErrJoinDenied          = errors.New("syncplay: join denied by group visibility")
	ErrCreateDenied        = errors.New("syncplay: user lacks SyncPlay policy")
	ErrLibraryAccessDenied = errors.New("syncplay: user cannot access one or more queue items")
	ErrForbidden           = errors.New("syncplay: non-administrator attempted an administrator operation")
	ErrInvalidRequest      = errors.New("syncplay: malformed or out-of-state request")
	ErrStaleRequest        = errors.New("syncplay: request refers to a prior playlist item or position")
)
