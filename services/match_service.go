package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/judo-tournament/brackets"
	"github.com/Dosada05/judo-tournament/models"
	"github.com/Dosada05/judo-tournament/repositories"
	"github.com/Dosada05/judo-tournament/storage"
)

// UpdateMatchInput carries the fields the table officials may change. Nil
// fields are left as they are. Setting WinnerAthleteID decides the match.
type UpdateMatchInput struct {
	WinnerAthleteID *string             `json:"winner_athlete_id,omitempty"`
	IsStarted       *bool               `json:"is_started,omitempty"`
	IsOver          *bool               `json:"is_over,omitempty"`
	Scores          *models.MatchScores `json:"match_scores,omitempty"`
}

func (in UpdateMatchInput) hasDetails() bool {
	return in.IsStarted != nil || in.IsOver != nil || in.Scores != nil
}

type MatchService interface {
	Get(ctx context.Context, id string) (*models.Match, error)
	Update(ctx context.Context, id string, input UpdateMatchInput) (*models.Match, error)
}

type matchService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	store          *bracketStore
	locks          *TournamentLocks
	publisher      *resultsPublisher
	logger         *slog.Logger
}

func NewMatchService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	locks *TournamentLocks,
	hub Broadcaster,
	uploader storage.FileUploader,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		store:          &bracketStore{tournamentRepo: tournamentRepo, matchRepo: matchRepo},
		locks:          locks,
		publisher: &resultsPublisher{
			hub:            hub,
			uploader:       uploader,
			tournamentRepo: tournamentRepo,
			logger:         logger,
		},
		logger: logger,
	}
}

func (s *matchService) Get(ctx context.Context, id string) (*models.Match, error) {
	if err := validateID(id, ErrMatchNotFound); err != nil {
		return nil, err
	}
	m, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return m, nil
}

// decision is what a committed update leaves for the post-commit steps.
type decision struct {
	tournament  *models.Tournament
	bracketsNow brackets.Brackets
	decided     bool
	finished    bool
}

func (s *matchService) Update(ctx context.Context, id string, input UpdateMatchInput) (*models.Match, error) {
	if !input.hasDetails() && input.WinnerAthleteID == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidationFailed)
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	logger := s.logger.With(slog.String("tournament_id", current.TournamentID), slog.String("match_id", id))

	unlock := s.locks.Lock(current.TournamentID)
	defer unlock()

	var d decision
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		d, txErr = s.apply(ctx, exec, current.TournamentID, id, input)
		return txErr
	})
	if err != nil {
		logger.WarnContext(ctx, "match update rejected", slog.Any("error", err))
		return nil, err
	}

	updated, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if d.decided {
		logger.InfoContext(ctx, "match decided",
			slog.String("winner", derefString(updated.WinnerAthleteID)),
			slog.Int("version", d.tournament.Version))
		s.publisher.bracketUpdated(d.tournament, id)
	}
	if d.finished {
		leaderboard, err := leaderboardOf(d.bracketsNow, true)
		if err != nil {
			logger.ErrorContext(ctx, "failed to derive leaderboard of finished tournament", slog.Any("error", err))
			return updated, nil
		}
		logger.InfoContext(ctx, "tournament finished")
		s.publisher.tournamentFinished(ctx, d.tournament, leaderboard)
	}
	return updated, nil
}

func (s *matchService) apply(ctx context.Context, exec repositories.SQLExecutor, tournamentID, matchID string, input UpdateMatchInput) (decision, error) {
	t, err := s.tournamentRepo.GetForUpdate(ctx, exec, tournamentID)
	if err != nil {
		return decision{}, handleRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return decision{}, err
	}

	var row *models.Match
	for i := range matches {
		if matches[i].ID == matchID {
			row = &matches[i]
			break
		}
	}
	if row == nil {
		return decision{}, ErrMatchNotFound
	}

	if input.hasDetails() {
		if input.IsStarted != nil {
			row.IsStarted = *input.IsStarted
		}
		if input.IsOver != nil {
			row.IsOver = *input.IsOver
		}
		if input.Scores != nil {
			row.Scores = *input.Scores
		}
		if err := s.matchRepo.UpdateDetails(ctx, exec, row); err != nil {
			return decision{}, handleRepositoryError(err)
		}
	}

	if input.WinnerAthleteID == nil {
		return decision{tournament: t}, nil
	}

	bs, err := toEngineBrackets(t, matches)
	if err != nil {
		return decision{}, err
	}
	pos, ok := bs.Locate(matchID)
	if !ok {
		return decision{}, ErrMatchNotInBracket
	}
	slot, err := winnerSlot(row, *input.WinnerAthleteID)
	if err != nil {
		return decision{}, err
	}

	next, err := bs.Apply(pos, slot)
	if err != nil {
		return decision{}, err
	}

	wasFinished := t.Finished
	if err := s.store.save(ctx, exec, t, next, matches); err != nil {
		return decision{}, err
	}
	return decision{
		tournament:  t,
		bracketsNow: next,
		decided:     true,
		finished:    !wasFinished && t.Finished,
	}, nil
}

// winnerSlot translates an athlete id into the slot of the match: white is
// slot 0, red slot 1.
func winnerSlot(m *models.Match, athleteID string) (int, error) {
	switch {
	case m.WhiteAthleteID != nil && *m.WhiteAthleteID == athleteID:
		return 0, nil
	case m.RedAthleteID != nil && *m.RedAthleteID == athleteID:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrAthleteNotInMatch, athleteID)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
