package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/judo-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrTournamentConflict        = errors.New("tournament already exists")
	ErrTournamentVersionConflict = errors.New("tournament was modified concurrently")
)

type ListTournamentsFilter struct {
	CompetitionID *string
	CategoryID    *string
	Finished      *bool
	Limit         int
	Offset        int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error)
	// GetForUpdate loads the tournament and locks its row until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// UpdateBrackets saves the bracket grids and the finished flag if the
	// stored version still matches tournament.Version, then bumps the version.
	UpdateBrackets(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateTatami(ctx context.Context, id string, tatamiNumber int) error
	UpdateResultsKey(ctx context.Context, exec SQLExecutor, id string, resultsKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id string) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, competition_id, category_id, athlete_ids, finished, tatami_number, version,
	main_bracket, recovery_bracket_1, recovery_bracket_2, results_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.CompetitionID, &t.CategoryID, pq.Array(&t.AthleteIDs), &t.Finished, &t.TatamiNumber, &t.Version,
		&t.MainBracket, &t.Recovery1, &t.Recovery2, &t.ResultsKey, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (
			id, competition_id, category_id, athlete_ids, finished, tatami_number,
			main_bracket, recovery_bracket_1, recovery_bracket_2
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING version, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		t.ID, t.CompetitionID, t.CategoryID, pq.Array(t.AthleteIDs), t.Finished, t.TatamiNumber,
		t.MainBracket, t.Recovery1, t.Recovery2,
	).Scan(&t.Version, &t.CreatedAt, &t.UpdatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.getOne(ctx, r.getExecutor(exec), query, id)
}

func (r *postgresTournamentRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, r.getExecutor(exec), query, id)
}

func (r *postgresTournamentRepository) getOne(ctx context.Context, executor SQLExecutor, query, id string) (*models.Tournament, error) {
	t, err := scanTournament(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		if mapped := r.handleTournamentError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to get tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	executor := r.getExecutor(nil)
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.CompetitionID != nil {
		query += fmt.Sprintf(" AND competition_id = $%d", argID)
		args = append(args, *filter.CompetitionID)
		argID++
	}
	if filter.CategoryID != nil {
		query += fmt.Sprintf(" AND category_id = $%d", argID)
		args = append(args, *filter.CategoryID)
		argID++
	}
	if filter.Finished != nil {
		query += fmt.Sprintf(" AND finished = $%d", argID)
		args = append(args, *filter.Finished)
		argID++
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", scanErr)
		}
		tournaments = append(tournaments, *t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateBrackets(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			main_bracket = $1,
			recovery_bracket_1 = $2,
			recovery_bracket_2 = $3,
			finished = $4,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at`

	err := executor.QueryRowContext(ctx, query,
		t.MainBracket, t.Recovery1, t.Recovery2, t.Finished, t.ID, t.Version,
	).Scan(&t.Version, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentVersionConflict
		}
		return r.handleTournamentError(err)
	}
	return nil
}

func (r *postgresTournamentRepository) UpdateTatami(ctx context.Context, id string, tatamiNumber int) error {
	executor := r.getExecutor(nil)
	query := `UPDATE tournaments SET tatami_number = $1, updated_at = NOW() WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, tatamiNumber, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateResultsKey(ctx context.Context, exec SQLExecutor, id string, resultsKey *string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET results_key = $1 WHERE id = $2`
	result, err := executor.ExecContext(ctx, query, resultsKey, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament results key: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id string) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "tournaments_pkey" || pqErr.Constraint == "tournaments_competition_id_category_id_key" {
				return ErrTournamentConflict
			}
		case "22P02":
			// invalid uuid text
			return ErrTournamentNotFound
		}
	}
	return err
}
