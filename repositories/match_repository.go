package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/judo-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
)

type MatchRepository interface {
	// UpsertMany inserts the matches or, for ids already stored, refreshes
	// their players, winner, recovered flag and type. Scores and the
	// started/over flags of stored matches are kept.
	UpsertMany(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error)
	UpdateDetails(ctx context.Context, exec SQLExecutor, match *models.Match) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, white_athlete_id, red_athlete_id, winner_athlete_id,
	loser_recovered, is_started, is_over, match_type, match_scores, created_at, updated_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.WhiteAthleteID, &m.RedAthleteID, &m.WinnerAthleteID,
		&m.LoserRecovered, &m.IsStarted, &m.IsOver, &m.MatchType, &m.Scores, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) UpsertMany(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	const columnsPerRow = 10
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO matches (
			id, tournament_id, white_athlete_id, red_athlete_id, winner_athlete_id,
			loser_recovered, is_started, is_over, match_type, match_scores
		) VALUES `)
	args := make([]interface{}, 0, len(matches)*columnsPerRow)
	for i, m := range matches {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholders(i*columnsPerRow+1, columnsPerRow))
		args = append(args,
			m.ID, m.TournamentID, m.WhiteAthleteID, m.RedAthleteID, m.WinnerAthleteID,
			m.LoserRecovered, m.IsStarted, m.IsOver, m.MatchType, m.Scores,
		)
	}
	sb.WriteString(`
		ON CONFLICT (id) DO UPDATE SET
			white_athlete_id = EXCLUDED.white_athlete_id,
			red_athlete_id = EXCLUDED.red_athlete_id,
			winner_athlete_id = EXCLUDED.winner_athlete_id,
			loser_recovered = EXCLUDED.loser_recovered,
			match_type = EXCLUDED.match_type,
			updated_at = NOW()`)

	if _, err := executor.ExecContext(ctx, sb.String(), args...); err != nil {
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		if mapped := r.handleMatchError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY created_at, id`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match: %w", scanErr)
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateDetails(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			is_started = $1,
			is_over = $2,
			match_scores = $3,
			updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := executor.QueryRowContext(ctx, query, m.IsStarted, m.IsOver, m.Scores, m.ID).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return r.handleMatchError(err)
	}
	return nil
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM matches WHERE tournament_id = $1`
	if _, err := executor.ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to delete matches of tournament %s: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503":
			if pqErr.Constraint == "matches_tournament_id_fkey" {
				return ErrMatchTournamentInvalid
			}
		case "22P02":
			return ErrMatchNotFound
		}
	}
	return err
}
