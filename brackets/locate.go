package brackets

import "fmt"

// BracketID names one of the three brackets of a tournament.
type BracketID int

const (
	MainBracket BracketID = iota
	FirstRecoveryBracket
	SecondRecoveryBracket
)

func (id BracketID) String() string {
	switch id {
	case MainBracket:
		return "main"
	case FirstRecoveryBracket:
		return "recovery_1"
	case SecondRecoveryBracket:
		return "recovery_2"
	default:
		return fmt.Sprintf("BracketID(%d)", int(id))
	}
}

// Position addresses a match inside a tournament.
type Position struct {
	Bracket BracketID
	Round   int
	Match   int
}

// Bracket returns the bracket a BracketID refers to.
func (bs Brackets) Bracket(id BracketID) (Bracket, bool) {
	switch id {
	case MainBracket:
		return bs.Main, true
	case FirstRecoveryBracket:
		return bs.Recovery[0], true
	case SecondRecoveryBracket:
		return bs.Recovery[1], true
	default:
		return nil, false
	}
}

// MatchAt returns the match at pos, or nil.
func (bs Brackets) MatchAt(pos Position) *Match {
	b, ok := bs.Bracket(pos.Bracket)
	if !ok {
		return nil
	}
	m, _ := b.At(pos.Round, pos.Match)
	return m
}

// Locate finds the position of the match with the given storage ID.
func (bs Brackets) Locate(matchID string) (Position, bool) {
	if matchID == "" {
		return Position{}, false
	}
	for _, id := range []BracketID{MainBracket, FirstRecoveryBracket, SecondRecoveryBracket} {
		b, _ := bs.Bracket(id)
		for r, round := range b {
			for i, m := range round {
				if m != nil && m.ID == matchID {
					return Position{Bracket: id, Round: r, Match: i}, true
				}
			}
		}
	}
	return Position{}, false
}

// Apply decides the match at pos for the player at winnerSlot.
func (bs Brackets) Apply(pos Position, winnerSlot int) (Brackets, error) {
	switch pos.Bracket {
	case MainBracket:
		return DecideMain(bs, pos.Round, pos.Match, winnerSlot)
	case FirstRecoveryBracket:
		return DecideRecovery(bs, 0, pos.Round, pos.Match, winnerSlot)
	case SecondRecoveryBracket:
		return DecideRecovery(bs, 1, pos.Round, pos.Match, winnerSlot)
	default:
		return Brackets{}, fmt.Errorf("%w: unknown bracket %s", ErrUnplayableMatch, pos.Bracket)
	}
}

// PlayOrder lists the existing matches in the order they are called to the
// tatami: each main round is followed by the recovery rounds it unlocks, and
// the recovery finals come right before the main final.
func (bs Brackets) PlayOrder() []Position {
	var order []Position
	add := func(id BracketID, roundIdx int) {
		b, _ := bs.Bracket(id)
		if roundIdx < 0 || roundIdx >= len(b) {
			return
		}
		for i, m := range b[roundIdx] {
			if m != nil {
				order = append(order, Position{Bracket: id, Round: roundIdx, Match: i})
			}
		}
	}

	final := len(bs.Main) - 1
	for r := 0; r < final; r++ {
		add(MainBracket, r)
		if r > 0 {
			add(FirstRecoveryBracket, r-1)
			add(SecondRecoveryBracket, r-1)
		}
	}
	add(FirstRecoveryBracket, final-1)
	add(SecondRecoveryBracket, final-1)
	add(MainBracket, final)
	return order
}
