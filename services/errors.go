package services

import (
	"errors"

	"github.com/Dosada05/judo-tournament/brackets"
	"github.com/Dosada05/judo-tournament/repositories"
)

var (
	ErrValidationFailed = errors.New("validation failed")

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")

	ErrNoAthletes          = errors.New("at least one athlete is required")
	ErrDuplicateAthlete    = errors.New("athlete is listed more than once")
	ErrAthleteNotInMatch   = errors.New("athlete does not take part in this match")
	ErrMatchNotInBracket   = errors.New("match is not part of the tournament brackets")
	ErrInvalidTatamiNumber = errors.New("tatami number must be at least 1")

	ErrTournamentConflict        = errors.New("a tournament already exists for this competition category")
	ErrTournamentVersionConflict = errors.New("tournament was modified concurrently, retry")

	// ErrTournamentNotFinished is the engine error, re-exported so handlers
	// only depend on this package.
	ErrTournamentNotFinished = brackets.ErrTournamentNotFinished
)

// handleRepositoryError maps repository sentinels to service sentinels and
// passes everything else through.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrTournamentConflict):
		return ErrTournamentConflict
	case errors.Is(err, repositories.ErrTournamentVersionConflict):
		return ErrTournamentVersionConflict
	default:
		return err
	}
}
