package brackets

import "fmt"

// Quartile is one quarter of the slots of a main-bracket round.
type Quartile int

const (
	QuartileA Quartile = iota
	QuartileB
	QuartileC
	QuartileD
)

func (q Quartile) String() string {
	if q < QuartileA || q > QuartileD {
		return fmt.Sprintf("Quartile(%d)", int(q))
	}
	return string("ABCD"[q])
}

// secondary quartiles (B and D) feed the second half of their recovery bracket.
func (q Quartile) secondary() bool {
	return q == QuartileB || q == QuartileD
}

// QuartileOf returns the quartile that slot of match matchIdx belongs to.
func QuartileOf(roundIdx, totalRounds, matchIdx, slot int) (Quartile, error) {
	if StageOf(roundIdx, totalRounds) == StageFinal {
		return 0, fmt.Errorf("%w: round %d is the final", ErrNoRecoveryForFinalists, roundIdx)
	}
	slots := 2 * MatchCount(roundIdx, totalRounds)
	order := 2*matchIdx + slot
	if slots == 0 || order < 0 || order >= slots {
		return 0, fmt.Errorf("%w: round %d match %d slot %d", ErrMalformedBracket, roundIdx, matchIdx, slot)
	}
	return Quartile(4 * order / slots), nil
}

// RecoveryBracketIndex maps a quartile to recovery bracket 0 (A, B) or 1 (C, D).
// Semi-final losers go to the opposite bracket so that they never meet again
// someone from their own half.
func RecoveryBracketIndex(q Quartile, semiFinal bool) int {
	top := q == QuartileA || q == QuartileB
	if semiFinal {
		top = !top
	}
	if top {
		return 0
	}
	return 1
}

// Location addresses a slot of a recovery bracket.
type Location struct {
	Bracket int
	Round   int
	Match   int
	Slot    int
}

// RecoveryLocation returns where the loser of main match (roundIdx, matchIdx)
// enters the repechage.
func RecoveryLocation(roundIdx, totalRounds, matchIdx int) (Location, error) {
	recRounds, err := RecoveryRoundCount(totalRounds)
	if err != nil {
		return Location{}, err
	}
	stage := StageOf(roundIdx, totalRounds)
	if stage == StageFinal {
		return Location{}, fmt.Errorf("%w: round %d is the final", ErrNoRecoveryForFinalists, roundIdx)
	}
	q, err := QuartileOf(roundIdx, totalRounds, matchIdx, 0)
	if err != nil {
		return Location{}, err
	}

	if stage == StageSemiFinal {
		return Location{
			Bracket: RecoveryBracketIndex(q, true),
			Round:   recRounds - 1,
			Match:   0,
			Slot:    1,
		}, nil
	}

	loc := Location{
		Bracket: RecoveryBracketIndex(q, false),
		Round:   max(roundIdx-1, 0),
	}
	if totalRounds == 3 {
		// quarter-finals are the first round: A meets B, C meets D.
		if q.secondary() {
			loc.Slot = 1
		}
		return loc, nil
	}
	if q.secondary() {
		loc.Match = 1 << (recRounds - loc.Round - 3)
	}
	if roundIdx > 0 {
		loc.Slot = 1
	}
	return loc, nil
}

// RecoverLosers routes into the recovery brackets the losers owed by the main
// match at (roundIdx, matchIdx), which must already be decided.
//
// A semi-final sends its own loser. A quarter-final sends its loser and the
// loser of every earlier match its winner came through. Earlier rounds route
// nothing, their losers are collected once the quarter-final is decided.
// Calling it twice for the same match changes nothing.
func RecoverLosers(bs Brackets, roundIdx, matchIdx int) (Brackets, error) {
	total := len(bs.Main)
	if !bs.HasRecovery() {
		return Brackets{}, fmt.Errorf("%w: main bracket has %d rounds", ErrRecoveryBracketsUnavailable, total)
	}
	stage := StageOf(roundIdx, total)
	if stage == StageFinal {
		return Brackets{}, fmt.Errorf("%w: round %d is the final", ErrNoRecoveryForFinalists, roundIdx)
	}
	m, ok := bs.Main.At(roundIdx, matchIdx)
	if !ok || m == nil {
		return Brackets{}, fmt.Errorf("%w: round %d match %d does not exist", ErrMalformedBracket, roundIdx, matchIdx)
	}
	if stage == StageEarly || m.Recovered {
		return bs, nil
	}

	out := bs.Clone()
	lowest := roundIdx
	if stage == StageQuarterFinal {
		lowest = 0
	}
	idx := matchIdx
	for r := roundIdx; r >= lowest; r-- {
		m, ok := out.Main.At(r, idx)
		if !ok || m == nil {
			return Brackets{}, fmt.Errorf("%w: round %d match %d does not exist", ErrMalformedBracket, r, idx)
		}
		winnerSlot, decided := m.Outcome.WinnerSlot()
		if !decided {
			return Brackets{}, fmt.Errorf("%w: round %d match %d has no winner", ErrMalformedBracket, r, idx)
		}
		m.Recovered = true
		if err := out.placeLoser(r, idx, m); err != nil {
			return Brackets{}, err
		}
		idx = ChildMatchIndex(idx, winnerSlot)
	}
	return out, nil
}

func (bs Brackets) placeLoser(roundIdx, matchIdx int, m *Match) error {
	loser, ok := m.Loser()
	if !ok {
		return nil
	}
	loc, err := RecoveryLocation(roundIdx, len(bs.Main), matchIdx)
	if err != nil {
		return err
	}
	rec := bs.Recovery[loc.Bracket]
	if loc.Round >= len(rec) {
		return fmt.Errorf("%w: recovery bracket %d has no round %d", ErrMalformedBracket, loc.Bracket, loc.Round)
	}
	return seat(rec[loc.Round], loc.Match, loc.Slot, loser)
}
