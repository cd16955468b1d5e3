package brackets

import "fmt"

// newBracket allocates a bracket of roundCount rounds with every match nil.
func newBracket(roundCount int) Bracket {
	b := make(Bracket, roundCount)
	for r := range b {
		b[r] = make(Round, MatchCount(r, roundCount))
	}
	return b
}

func seatAt(players []Player, i int) Slot {
	if i < len(players) {
		return Occupied(players[i])
	}
	return EmptySlot()
}

// GenerateMainBracket seeds players into round 0 of a new main bracket. Match i
// pairs players[i] with players[i+half], so every first-round match has a
// player in slot 0 as long as there are more players than matches. Matches
// with a single player are decided on the spot and their player advances.
func GenerateMainBracket(players []Player) Bracket {
	total := RoundCount(len(players))
	b := newBracket(total)
	half := MatchCount(0, total)

	for i := 0; i < half; i++ {
		b[0][i] = NewMatch(seatAt(players, i), seatAt(players, i+half))
	}

	for i, m := range b[0] {
		if !m.IsBye() {
			continue
		}
		slot := 0
		if m.Players[0].IsEmpty() {
			slot = 1
		}
		if err := applyVictory(b, 0, i, slot); err != nil {
			panic(fmt.Sprintf("brackets: advancing bye of match %d: %v", i, err))
		}
	}
	return b
}

// GenerateRecoveryBrackets returns two empty recovery brackets for a main
// bracket of totalRounds rounds. Both are zero-round brackets when the main
// bracket is too small to hold a repechage.
func GenerateRecoveryBrackets(totalRounds int) [2]Bracket {
	rounds, err := RecoveryRoundCount(totalRounds)
	if err != nil {
		return [2]Bracket{{}, {}}
	}
	return [2]Bracket{newBracket(rounds), newBracket(rounds)}
}

// GenerateBrackets builds the main bracket and its recovery brackets.
func GenerateBrackets(players []Player) Brackets {
	main := GenerateMainBracket(players)
	return Brackets{
		Main:     main,
		Recovery: GenerateRecoveryBrackets(len(main)),
	}
}
