package errors

import "errors"

var (
	ErrInvalidMove       = errors.New("invalid move")
	ErrOccupiedCell      = errors.New("cell is already occupied")
	ErrNoSuggestion      = errors.New("no suggestion available")
	ErrMalformedRecord   = errors.New("malformed external record")
	ErrNoDeletedSequence = errors.New("no deleted board to restore")
	ErrRecordNotFound    = errors.New("record not found")
	ErrEngineUnavailable = errors.New("engine is not running")
	ErrInternal          = errors.New("internal error")
)
