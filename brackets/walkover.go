package brackets

type position struct {
	round int
	match int
}

// ResolveWalkovers decides every recovery match whose only player can no
// longer receive an opponent. With rosters that are not a power of two some
// recovery slots are fed only by byes, and without this the repechage would
// stall. The player advances as if the match had been won.
func ResolveWalkovers(bs Brackets) (Brackets, error) {
	if !bs.HasRecovery() {
		return bs, nil
	}
	out := bs.Clone()
	feeders := mainFeeders(len(out.Main))

	for b, rec := range out.Recovery {
		for r := range rec {
			for i, m := range rec[r] {
				if m == nil || m.Decided() || m.occupiedSlots() != 1 {
					continue
				}
				slot := 0
				if m.Players[0].IsEmpty() {
					slot = 1
				}
				if !out.slotDead(feeders, Location{Bracket: b, Round: r, Match: i, Slot: 1 - slot}) {
					continue
				}
				if err := applyVictory(rec, r, i, slot); err != nil {
					return Brackets{}, err
				}
			}
		}
	}
	return out, nil
}

// mainFeeders lists, for every recovery slot, the main matches whose loser
// may be routed there.
func mainFeeders(totalRounds int) map[Location][]position {
	feeders := make(map[Location][]position)
	for r := 0; r < totalRounds-1; r++ {
		for i := 0; i < MatchCount(r, totalRounds); i++ {
			loc, err := RecoveryLocation(r, totalRounds, i)
			if err != nil {
				continue
			}
			feeders[loc] = append(feeders[loc], position{round: r, match: i})
		}
	}
	return feeders
}

// slotDead reports whether an empty recovery slot will stay empty forever.
func (bs Brackets) slotDead(feeders map[Location][]position, loc Location) bool {
	rec := bs.Recovery[loc.Bracket]
	if m, ok := rec.At(loc.Round, loc.Match); ok && m != nil && !m.Players[loc.Slot].IsEmpty() {
		return false
	}
	if sources, ok := feeders[loc]; ok {
		for _, p := range sources {
			if !bs.routed(p) {
				return false
			}
		}
		return true
	}
	if loc.Round == 0 {
		return true
	}
	return !bs.producesWinner(feeders, loc.Bracket, loc.Round-1, ChildMatchIndex(loc.Match, loc.Slot))
}

func (bs Brackets) producesWinner(feeders map[Location][]position, bracket, roundIdx, matchIdx int) bool {
	m, ok := bs.Recovery[bracket].At(roundIdx, matchIdx)
	if !ok {
		return false
	}
	if m != nil && m.Decided() {
		return true
	}
	for slot := 0; slot < 2; slot++ {
		if !bs.slotDead(feeders, Location{Bracket: bracket, Round: roundIdx, Match: matchIdx, Slot: slot}) {
			return true
		}
	}
	return false
}

// routed reports whether the main match at p can no longer send a loser to
// the repechage: either its routing already happened, or the quarter-final
// that would trigger it was a bye.
func (bs Brackets) routed(p position) bool {
	total := len(bs.Main)
	trigger := p
	if StageOf(p.round, total) != StageSemiFinal {
		qf := total - 3
		trigger = position{round: qf, match: p.match >> (qf - p.round)}
	}
	m, ok := bs.Main.At(trigger.round, trigger.match)
	if !ok || m == nil {
		return false
	}
	return m.Recovered || (m.Decided() && m.IsBye())
}
