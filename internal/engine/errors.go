package engine

import (
	"errors"
	"fmt"
)

// ErrorKind identifies a rejection class. Kinds are stable strings; the
// delivery layer sends them verbatim as the error code of the control
// protocol.
type ErrorKind string

const (
	ErrInvalidPhaseTransition ErrorKind = "invalid_phase_transition"
	ErrInsufficientPlayers    ErrorKind = "insufficient_players"
	ErrPlayerNotFound         ErrorKind = "player_not_found"
	ErrNameTaken              ErrorKind = "name_taken"
	ErrAlreadyVoted           ErrorKind = "already_voted"
	ErrInvalidTarget          ErrorKind = "invalid_target"
	ErrInvalidLocation        ErrorKind = "invalid_location"
	ErrNotSpy                 ErrorKind = "not_spy"
	ErrSpyAlreadyActed        ErrorKind = "spy_already_acted"
	ErrSessionExpired         ErrorKind = "session_expired"
	ErrInvalidToken           ErrorKind = "invalid_token"
	ErrContentValidation      ErrorKind = "content_validation_error"
	ErrGameAlreadyEnded       ErrorKind = "game_already_ended"
	ErrNotHost                ErrorKind = "not_host"
	ErrUnknownAction          ErrorKind = "unknown_action"
)

// Error is the value every rejected operation returns. Guard failures
// never mutate state; callers treat these as values, not panics.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrorKind from err, or "" if err is not an engine
// error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
