package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/judo-tournament/brackets"
	"github.com/Dosada05/judo-tournament/models"
	"github.com/Dosada05/judo-tournament/repositories"
	"github.com/google/uuid"
)

// toEngineBrackets rebuilds the engine view of a tournament from its stored
// bracket grids and match rows.
func toEngineBrackets(t *models.Tournament, matches []models.Match) (brackets.Brackets, error) {
	byID := make(map[string]*models.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}

	if len(t.MainBracket) == 0 {
		return brackets.Brackets{}, fmt.Errorf("%w: tournament %s", models.ErrEmptyBracketRefs, t.ID)
	}

	var bs brackets.Brackets
	var err error
	if bs.Main, err = toEngineBracket(t.MainBracket, byID); err != nil {
		return brackets.Brackets{}, err
	}
	for i, refs := range []models.BracketRefs{t.Recovery1, t.Recovery2} {
		if bs.Recovery[i], err = toEngineBracket(refs, byID); err != nil {
			return brackets.Brackets{}, err
		}
	}
	return bs, nil
}

func toEngineBracket(refs models.BracketRefs, byID map[string]*models.Match) (brackets.Bracket, error) {
	b := make(brackets.Bracket, len(refs))
	for r, round := range refs {
		b[r] = make(brackets.Round, len(round))
		for i, ref := range round {
			if ref == nil {
				continue
			}
			row, ok := byID[*ref]
			if !ok {
				return nil, fmt.Errorf("%w: match %s referenced by round %d is missing", brackets.ErrMalformedBracket, *ref, r)
			}
			m, err := toEngineMatch(row)
			if err != nil {
				return nil, err
			}
			b[r][i] = m
		}
	}
	return b, nil
}

func toEngineMatch(row *models.Match) (*brackets.Match, error) {
	m := brackets.NewMatch(athleteSlot(row.WhiteAthleteID), athleteSlot(row.RedAthleteID))
	m.ID = row.ID
	m.Recovered = row.LoserRecovered

	if row.WinnerAthleteID != nil {
		switch {
		case row.WhiteAthleteID != nil && *row.WinnerAthleteID == *row.WhiteAthleteID:
			m.Outcome = brackets.FirstWins
		case row.RedAthleteID != nil && *row.WinnerAthleteID == *row.RedAthleteID:
			m.Outcome = brackets.SecondWins
		default:
			return nil, fmt.Errorf("%w: winner of match %s is not one of its athletes", brackets.ErrMalformedBracket, row.ID)
		}
	}
	return m, nil
}

func athleteSlot(id *string) brackets.Slot {
	if id == nil {
		return brackets.EmptySlot()
	}
	return brackets.Occupied(brackets.Player(*id))
}

func slotAthlete(s brackets.Slot) *string {
	p, ok := s.Player()
	if !ok {
		return nil
	}
	id := string(p)
	return &id
}

// fromEngineBrackets assigns an id to every match that has none yet and
// returns the bracket grids and the match rows to store. Rows already in
// existing keep their scores and flags.
func fromEngineBrackets(tournamentID string, bs brackets.Brackets, existing map[string]models.Match) ([3]models.BracketRefs, []*models.Match) {
	var grids [3]models.BracketRefs
	var rows []*models.Match

	ids := []brackets.BracketID{brackets.MainBracket, brackets.FirstRecoveryBracket, brackets.SecondRecoveryBracket}
	for g, id := range ids {
		b, _ := bs.Bracket(id)
		grid := make(models.BracketRefs, len(b))
		for r, round := range b {
			grid[r] = make([]*string, len(round))
			for i, m := range round {
				if m == nil {
					continue
				}
				if m.ID == "" {
					m.ID = uuid.NewString()
				}
				matchID := m.ID
				grid[r][i] = &matchID
				rows = append(rows, matchRow(tournamentID, m, matchTypeAt(id, r, len(b)), existing))
			}
		}
		grids[g] = grid
	}
	return grids, rows
}

func matchRow(tournamentID string, m *brackets.Match, matchType models.MatchType, existing map[string]models.Match) *models.Match {
	row, ok := existing[m.ID]
	if !ok {
		row = models.Match{ID: m.ID, TournamentID: tournamentID}
	}
	row.WhiteAthleteID = slotAthlete(m.Players[0])
	row.RedAthleteID = slotAthlete(m.Players[1])
	row.WinnerAthleteID = nil
	if winner, ok := m.Winner(); ok {
		id := string(winner)
		row.WinnerAthleteID = &id
	}
	row.LoserRecovered = m.Recovered
	row.MatchType = matchType
	return &row
}

func matchTypeAt(id brackets.BracketID, roundIdx, totalRounds int) models.MatchType {
	if id != brackets.MainBracket {
		if roundIdx == totalRounds-1 {
			return models.MatchTypeFinal35
		}
		return models.MatchTypeRecovery
	}
	switch brackets.StageOf(roundIdx, totalRounds) {
	case brackets.StageFinal:
		return models.MatchTypeFinal12
	case brackets.StageSemiFinal:
		return models.MatchTypeSemiFinal
	case brackets.StageQuarterFinal:
		return models.MatchTypeQuarterFinal
	default:
		return models.MatchTypeMain
	}
}

// bracketStore persists engine brackets for a tournament.
type bracketStore struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
}

// save upserts every match of bs and writes the grids of t with its version
// check. t is updated in place.
func (s *bracketStore) save(ctx context.Context, exec repositories.SQLExecutor, t *models.Tournament, bs brackets.Brackets, existing []models.Match) error {
	byID := make(map[string]models.Match, len(existing))
	for _, m := range existing {
		byID[m.ID] = m
	}

	grids, rows := fromEngineBrackets(t.ID, bs, byID)
	if err := s.matchRepo.UpsertMany(ctx, exec, rows); err != nil {
		return fmt.Errorf("failed to store matches of tournament %s: %w", t.ID, err)
	}

	t.MainBracket, t.Recovery1, t.Recovery2 = grids[0], grids[1], grids[2]
	t.Finished = bs.Finished()
	if err := s.tournamentRepo.UpdateBrackets(ctx, exec, t); err != nil {
		return handleRepositoryError(err)
	}
	return nil
}
