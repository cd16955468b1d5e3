package brackets

import "errors"

// Errors returned by the bracket engine. They are wrapped with the round and
// match that caused them, so callers should compare with errors.Is.
var (
	ErrUnplayableMatch             = errors.New("unplayable match")
	ErrInvalidPlayerSelection      = errors.New("invalid selected player")
	ErrSlotAlreadyOccupied         = errors.New("slot already occupied")
	ErrNoRecoveryForFinalists      = errors.New("finalists cannot be recovered")
	ErrRecoveryBracketsUnavailable = errors.New("recovery brackets are not available")
	ErrMalformedBracket            = errors.New("malformed bracket")
	ErrTournamentNotFinished       = errors.New("tournament is not finished")
)
