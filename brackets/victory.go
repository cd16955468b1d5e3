package brackets

import "fmt"

// Decide records that the player at winnerSlot won the match at
// (roundIdx, matchIdx) and advances the winner into the parent match. The
// input bracket is left untouched; the updated copy is returned.
func Decide(b Bracket, roundIdx, matchIdx, winnerSlot int) (Bracket, error) {
	if err := checkPlayable(b, roundIdx, matchIdx, winnerSlot); err != nil {
		return nil, err
	}
	if next, ok := b.At(roundIdx+1, ParentMatchIndex(matchIdx)); ok && next != nil {
		if !next.Players[ParentSlot(matchIdx)].IsEmpty() {
			return nil, fmt.Errorf("%w: round %d match %d slot %d",
				ErrSlotAlreadyOccupied, roundIdx+1, ParentMatchIndex(matchIdx), ParentSlot(matchIdx))
		}
	}

	out := b.Clone()
	if err := applyVictory(out, roundIdx, matchIdx, winnerSlot); err != nil {
		return nil, err
	}
	return out, nil
}

func checkPlayable(b Bracket, roundIdx, matchIdx, winnerSlot int) error {
	m, ok := b.At(roundIdx, matchIdx)
	if !ok || m == nil {
		return fmt.Errorf("%w: round %d match %d does not exist", ErrUnplayableMatch, roundIdx, matchIdx)
	}
	if m.Decided() {
		return fmt.Errorf("%w: round %d match %d already has a winner", ErrUnplayableMatch, roundIdx, matchIdx)
	}
	if m.occupiedSlots() < 2 {
		return fmt.Errorf("%w: round %d match %d is missing a player", ErrUnplayableMatch, roundIdx, matchIdx)
	}
	if winnerSlot != 0 && winnerSlot != 1 {
		return fmt.Errorf("%w: slot %d", ErrInvalidPlayerSelection, winnerSlot)
	}
	return nil
}

// applyVictory mutates b in place. The match must exist and the winning slot
// must be occupied.
func applyVictory(b Bracket, roundIdx, matchIdx, winnerSlot int) error {
	m := b[roundIdx][matchIdx]
	winner, ok := m.Players[winnerSlot].Player()
	if !ok {
		return fmt.Errorf("%w: slot %d of round %d match %d is empty", ErrInvalidPlayerSelection, winnerSlot, roundIdx, matchIdx)
	}
	if roundIdx+1 < len(b) {
		if err := seat(b[roundIdx+1], ParentMatchIndex(matchIdx), ParentSlot(matchIdx), winner); err != nil {
			return err
		}
	}
	m.Outcome = OutcomeForSlot(winnerSlot)
	return nil
}

// seat places p into the given slot of round[idx], creating the match when
// nobody has been seated there yet.
func seat(round Round, idx, slot int, p Player) error {
	if idx < 0 || idx >= len(round) {
		return fmt.Errorf("%w: match %d is outside a round of %d matches", ErrMalformedBracket, idx, len(round))
	}
	m := round[idx]
	if m == nil {
		m = NewMatch(EmptySlot(), EmptySlot())
		round[idx] = m
	}
	if !m.Players[slot].IsEmpty() {
		return fmt.Errorf("%w: match %d slot %d", ErrSlotAlreadyOccupied, idx, slot)
	}
	m.Players[slot] = Occupied(p)
	return nil
}

// DecideMain decides a match of the main bracket, then routes the losers of
// quarter-finals and semi-finals into the recovery brackets and resolves any
// walkover that opens up.
func DecideMain(bs Brackets, roundIdx, matchIdx, winnerSlot int) (Brackets, error) {
	main, err := Decide(bs.Main, roundIdx, matchIdx, winnerSlot)
	if err != nil {
		return Brackets{}, err
	}
	out := Brackets{Main: main, Recovery: bs.Recovery}
	if out.HasRecovery() && StageOf(roundIdx, len(main)) != StageFinal {
		out, err = RecoverLosers(out, roundIdx, matchIdx)
		if err != nil {
			return Brackets{}, err
		}
	}
	return ResolveWalkovers(out)
}

// DecideRecovery decides a match of recovery bracket which (0 or 1).
func DecideRecovery(bs Brackets, which, roundIdx, matchIdx, winnerSlot int) (Brackets, error) {
	if which != 0 && which != 1 {
		return Brackets{}, fmt.Errorf("%w: recovery bracket %d does not exist", ErrUnplayableMatch, which)
	}
	rec, err := Decide(bs.Recovery[which], roundIdx, matchIdx, winnerSlot)
	if err != nil {
		return Brackets{}, err
	}
	out := Brackets{Main: bs.Main, Recovery: bs.Recovery}
	out.Recovery[which] = rec
	return ResolveWalkovers(out)
}
