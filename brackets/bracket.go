package brackets

// Player identifies an athlete. The engine never looks inside it, it only
// compares players for equality.
type Player string

// Slot is one of the two player positions of a match: either empty or
// occupied by a player.
type Slot struct {
	player   Player
	occupied bool
}

func EmptySlot() Slot {
	return Slot{}
}

func Occupied(p Player) Slot {
	return Slot{player: p, occupied: true}
}

// Player returns the player in the slot and whether the slot is occupied.
func (s Slot) Player() (Player, bool) {
	return s.player, s.occupied
}

func (s Slot) IsEmpty() bool {
	return !s.occupied
}

// Outcome records which slot won a match. The zero value is Undecided.
type Outcome int8

const (
	Undecided Outcome = iota
	FirstWins
	SecondWins
)

// OutcomeForSlot returns the outcome in which the player at slot wins.
func OutcomeForSlot(slot int) Outcome {
	if slot == 0 {
		return FirstWins
	}
	return SecondWins
}

// WinnerSlot returns the index of the winning slot, if any.
func (o Outcome) WinnerSlot() (int, bool) {
	switch o {
	case FirstWins:
		return 0, true
	case SecondWins:
		return 1, true
	default:
		return 0, false
	}
}

// Match is a single bout between the players of its two slots.
type Match struct {
	// ID is the storage identifier. It stays empty until the match is stored.
	ID      string
	Players [2]Slot
	Outcome Outcome
	// Recovered is set once the loser of this match has been routed to a
	// recovery bracket (or the match has been walked while routing one).
	Recovered bool
}

func NewMatch(first, second Slot) *Match {
	return &Match{Players: [2]Slot{first, second}}
}

func (m *Match) Decided() bool {
	return m.Outcome != Undecided
}

// Winner returns the winning player of a decided match.
func (m *Match) Winner() (Player, bool) {
	slot, ok := m.Outcome.WinnerSlot()
	if !ok {
		return "", false
	}
	return m.Players[slot].Player()
}

// Loser returns the losing player of a decided match. Byes and walkovers have
// no loser.
func (m *Match) Loser() (Player, bool) {
	slot, ok := m.Outcome.WinnerSlot()
	if !ok {
		return "", false
	}
	return m.Players[1-slot].Player()
}

// IsBye reports whether exactly one slot of the match is occupied.
func (m *Match) IsBye() bool {
	return m.occupiedSlots() == 1
}

func (m *Match) occupiedSlots() int {
	n := 0
	for _, s := range m.Players {
		if !s.IsEmpty() {
			n++
		}
	}
	return n
}

// Round holds the matches of one round. A nil entry is a match whose players
// are not known yet.
type Round []*Match

// Bracket is a sequence of rounds, round 0 first and the final last.
type Bracket []Round

// Clone returns a deep copy of the bracket.
func (b Bracket) Clone() Bracket {
	if b == nil {
		return nil
	}
	out := make(Bracket, len(b))
	for r, round := range b {
		out[r] = make(Round, len(round))
		for i, m := range round {
			if m == nil {
				continue
			}
			cp := *m
			out[r][i] = &cp
		}
	}
	return out
}

// At returns the match at the given position. ok is false when the position
// lies outside the bracket; the match itself may still be nil.
func (b Bracket) At(roundIdx, matchIdx int) (m *Match, ok bool) {
	if roundIdx < 0 || roundIdx >= len(b) {
		return nil, false
	}
	if matchIdx < 0 || matchIdx >= len(b[roundIdx]) {
		return nil, false
	}
	return b[roundIdx][matchIdx], true
}

// FinalMatch returns the single match of the last round, or nil.
func (b Bracket) FinalMatch() *Match {
	if len(b) == 0 || len(b[len(b)-1]) == 0 {
		return nil
	}
	return b[len(b)-1][0]
}

// Brackets is the main bracket of a tournament together with its two
// recovery brackets. It is always mutated as a unit.
type Brackets struct {
	Main     Bracket
	Recovery [2]Bracket
}

func (bs Brackets) Clone() Brackets {
	return Brackets{
		Main:     bs.Main.Clone(),
		Recovery: [2]Bracket{bs.Recovery[0].Clone(), bs.Recovery[1].Clone()},
	}
}

// HasRecovery reports whether the repechage is played at all.
func (bs Brackets) HasRecovery() bool {
	return len(bs.Main) >= 3 && len(bs.Recovery[0]) > 0 && len(bs.Recovery[1]) > 0
}

// Finished reports whether the final of the main bracket has a winner.
func (bs Brackets) Finished() bool {
	final := bs.Main.FinalMatch()
	return final != nil && final.Decided()
}
