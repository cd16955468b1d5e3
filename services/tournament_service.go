package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/judo-tournament/brackets"
	"github.com/Dosada05/judo-tournament/models"
	"github.com/Dosada05/judo-tournament/repositories"
	"github.com/Dosada05/judo-tournament/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	CompetitionID string   `json:"competition_id"`
	CategoryID    string   `json:"category_id"`
	AthleteIDs    []string `json:"athlete_ids"`
}

type LeaderboardEntry struct {
	Place     int    `json:"place"`
	AthleteID string `json:"athlete_id"`
}

type TournamentService interface {
	// Create seeds the brackets of a new tournament from its roster.
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	Get(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	// ListMatches returns the matches in the order they are called to the tatami.
	ListMatches(ctx context.Context, id string) ([]models.Match, error)
	Leaderboard(ctx context.Context, id string) ([]LeaderboardEntry, error)
	ReserveTatami(ctx context.Context, id string, tatamiNumber int) error
	// Delete removes the tournament with its matches so it can be generated again.
	Delete(ctx context.Context, id string) error
}

type tournamentService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	locks          *TournamentLocks
	publisher      *resultsPublisher
	logger         *slog.Logger
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	locks *TournamentLocks,
	hub Broadcaster,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
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

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	players, err := validateCreateInput(&input)
	if err != nil {
		return nil, err
	}

	bs := brackets.GenerateBrackets(players)
	t := &models.Tournament{
		ID:            uuid.NewString(),
		CompetitionID: input.CompetitionID,
		CategoryID:    input.CategoryID,
		AthleteIDs:    input.AthleteIDs,
		Finished:      bs.Finished(),
	}
	grids, rows := fromEngineBrackets(t.ID, bs, nil)
	t.MainBracket, t.Recovery1, t.Recovery2 = grids[0], grids[1], grids[2]

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.Create(ctx, exec, t); err != nil {
			return handleRepositoryError(err)
		}
		return s.matchRepo.UpsertMany(ctx, exec, rows)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", t.ID),
		slog.Int("athletes", len(players)),
		slog.Int("rounds", len(bs.Main)),
		slog.Bool("recovery", bs.HasRecovery()))

	// A lone athlete wins at creation.
	if t.Finished {
		leaderboard, err := leaderboardOf(bs, true)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to derive leaderboard of finished tournament",
				slog.String("tournament_id", t.ID), slog.Any("error", err))
			return t, nil
		}
		s.publisher.tournamentFinished(ctx, t, leaderboard)
		t.ResultsURL = s.publisher.publicURL(t)
	}
	return t, nil
}

func validateCreateInput(input *CreateTournamentInput) ([]brackets.Player, error) {
	input.CompetitionID = strings.TrimSpace(input.CompetitionID)
	input.CategoryID = strings.TrimSpace(input.CategoryID)
	if input.CompetitionID == "" || input.CategoryID == "" {
		return nil, fmt.Errorf("%w: competition_id and category_id are required", ErrValidationFailed)
	}
	if len(input.AthleteIDs) == 0 {
		return nil, ErrNoAthletes
	}

	seen := make(map[string]bool, len(input.AthleteIDs))
	players := make([]brackets.Player, 0, len(input.AthleteIDs))
	for i, id := range input.AthleteIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: athlete_ids[%d] is empty", ErrValidationFailed, i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAthlete, id)
		}
		seen[id] = true
		input.AthleteIDs[i] = id
		players = append(players, brackets.Player(id))
	}
	return players, nil
}

func validateID(id string, notFound error) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound
	}
	return nil
}

func (s *tournamentService) Get(ctx context.Context, id string) (*models.Tournament, error) {
	if err := validateID(id, ErrTournamentNotFound); err != nil {
		return nil, err
	}

	var (
		t       *models.Tournament
		matches []models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = s.tournamentRepo.GetByID(gCtx, nil, id)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, nil, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.Matches = matches
	t.ResultsURL = s.publisher.publicURL(t)
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must not be negative", ErrValidationFailed)
	}
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		tournaments[i].ResultsURL = s.publisher.publicURL(&tournaments[i])
	}
	return tournaments, nil
}

// load reads the tournament, its match rows and the engine view of both.
func (s *tournamentService) load(ctx context.Context, id string) (*models.Tournament, []models.Match, brackets.Brackets, error) {
	if err := validateID(id, ErrTournamentNotFound); err != nil {
		return nil, nil, brackets.Brackets{}, err
	}
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, nil, brackets.Brackets{}, handleRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, id)
	if err != nil {
		return nil, nil, brackets.Brackets{}, err
	}
	bs, err := toEngineBrackets(t, matches)
	if err != nil {
		return nil, nil, brackets.Brackets{}, err
	}
	return t, matches, bs, nil
}

func (s *tournamentService) ListMatches(ctx context.Context, id string) ([]models.Match, error) {
	_, matches, bs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	order := bs.PlayOrder()
	ordered := make([]models.Match, 0, len(order))
	for _, pos := range order {
		if m := bs.MatchAt(pos); m != nil {
			ordered = append(ordered, byID[m.ID])
		}
	}
	return ordered, nil
}

func (s *tournamentService) Leaderboard(ctx context.Context, id string) ([]LeaderboardEntry, error) {
	t, _, bs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return leaderboardOf(bs, t.Finished)
}

func leaderboardOf(bs brackets.Brackets, finished bool) ([]LeaderboardEntry, error) {
	placements, err := brackets.DeriveLeaderboard(bs, finished)
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, len(placements))
	for i, p := range placements {
		entries[i] = LeaderboardEntry{Place: p.Place, AthleteID: string(p.Player)}
	}
	return entries, nil
}

func (s *tournamentService) ReserveTatami(ctx context.Context, id string, tatamiNumber int) error {
	if tatamiNumber < 1 {
		return ErrInvalidTatamiNumber
	}
	if err := validateID(id, ErrTournamentNotFound); err != nil {
		return err
	}
	if err := s.tournamentRepo.UpdateTatami(ctx, id, tatamiNumber); err != nil {
		return handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "tatami reserved", slog.String("tournament_id", id), slog.Int("tatami", tatamiNumber))
	return nil
}

func (s *tournamentService) Delete(ctx context.Context, id string) error {
	if err := validateID(id, ErrTournamentNotFound); err != nil {
		return err
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	var deleted *models.Tournament
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		t, err := s.tournamentRepo.GetForUpdate(ctx, exec, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if err := s.matchRepo.DeleteByTournament(ctx, exec, id); err != nil {
			return err
		}
		if err := s.tournamentRepo.Delete(ctx, exec, id); err != nil {
			return handleRepositoryError(err)
		}
		deleted = t
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrTournamentNotFound) {
			s.logger.ErrorContext(ctx, "failed to delete tournament", slog.String("tournament_id", id), slog.Any("error", err))
		}
		return err
	}

	s.publisher.deleteArchive(ctx, deleted)
	s.logger.InfoContext(ctx, "tournament deleted", slog.String("tournament_id", id))
	return nil
}
