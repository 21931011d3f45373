// internal/game/errors.go
package game

import "fmt"

// ErrorKind classifies a rejected action. Every kind is recoverable: the action
// is refused, session state is untouched, and only the requester is told.
type ErrorKind string

const (
	KindInvalidPhase     ErrorKind = "invalid_phase"
	KindInvalidSelection ErrorKind = "invalid_selection"
	KindAlreadySelected  ErrorKind = "already_selected"
	KindNotFound         ErrorKind = "not_found"
	KindCapacityExceeded ErrorKind = "capacity_exceeded"
)

// GameError is returned by every session and registry operation that rejects an action.
type GameError struct {
	Kind    ErrorKind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// Is matches on Kind so callers can use errors.Is against the sentinels below
// regardless of the message.
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidPhase     = &GameError{Kind: KindInvalidPhase, Message: "action not allowed in the current phase"}
	ErrInvalidSelection = &GameError{Kind: KindInvalidSelection, Message: "invalid card selection"}
	ErrAlreadySelected  = &GameError{Kind: KindAlreadySelected, Message: "a card is already selected this turn"}
	ErrNotFound         = &GameError{Kind: KindNotFound, Message: "game or player not found"}
	ErrCapacityExceeded = &GameError{Kind: KindCapacityExceeded, Message: "player count out of range"}
)

func newError(kind ErrorKind, format string, args ...interface{}) *GameError {
	return &GameError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
