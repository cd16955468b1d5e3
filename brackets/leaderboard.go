package brackets

// Placement is one line of the final ranking.
type Placement struct {
	Place  int    `json:"place"`
	Player Player `json:"player"`
}

// DeriveLeaderboard ranks the medallists of a finished tournament: the main
// final gives places 1 and 2, the winners of the recovery finals share place 3
// and their losers share place 5. Places nobody earned (small rosters,
// walkovers) are left out.
func DeriveLeaderboard(bs Brackets, finished bool) ([]Placement, error) {
	if !finished {
		return nil, ErrTournamentNotFinished
	}

	first, second := finalists(bs.Main)
	var thirds, fifths [2]Slot
	for i, rec := range bs.Recovery {
		thirds[i], fifths[i] = finalists(rec)
	}

	ranked := []struct {
		place int
		slot  Slot
	}{
		{1, first},
		{2, second},
		{3, thirds[0]},
		{3, thirds[1]},
		{5, fifths[0]},
		{5, fifths[1]},
	}

	board := make([]Placement, 0, len(ranked))
	for _, r := range ranked {
		if p, ok := r.slot.Player(); ok {
			board = append(board, Placement{Place: r.place, Player: p})
		}
	}
	return board, nil
}

func finalists(b Bracket) (winner, loser Slot) {
	final := b.FinalMatch()
	if final == nil {
		return EmptySlot(), EmptySlot()
	}
	slot, ok := final.Outcome.WinnerSlot()
	if !ok {
		return EmptySlot(), EmptySlot()
	}
	return final.Players[slot], final.Players[1-slot]
}
