package brackets

import (
	"fmt"
	"math/bits"
)

// RoundCount returns ceil(log2(max(playerCount, 2))).
func RoundCount(playerCount int) int {
	if playerCount < 2 {
		playerCount = 2
	}
	return bits.Len(uint(playerCount - 1))
}

// MatchCount returns the number of matches of round roundIdx in a bracket of
// totalRounds rounds, or 0 for a round outside the bracket.
func MatchCount(roundIdx, totalRounds int) int {
	if roundIdx < 0 || roundIdx >= totalRounds {
		return 0
	}
	return 1 << (totalRounds - roundIdx - 1)
}

// ParentMatchIndex returns the index of the next-round match fed by match idx.
func ParentMatchIndex(idx int) int {
	return idx / 2
}

// ParentSlot returns the slot of the parent match that match idx feeds.
func ParentSlot(idx int) int {
	return idx % 2
}

// ChildMatchIndex returns the previous-round match that feeds slot of match idx.
func ChildMatchIndex(idx, slot int) int {
	return idx*2 + slot
}

// RecoveryRoundCount returns the number of rounds of each recovery bracket.
// Recovery brackets need a main bracket of at least three rounds (8 players).
func RecoveryRoundCount(totalRounds int) (int, error) {
	if totalRounds < 3 {
		return 0, fmt.Errorf("%w: main bracket has %d rounds, at least 3 required", ErrRecoveryBracketsUnavailable, totalRounds)
	}
	return totalRounds - 1, nil
}

// Stage classifies a round by its distance from the final.
type Stage int

const (
	StageEarly Stage = iota
	StageQuarterFinal
	StageSemiFinal
	StageFinal
)

func (s Stage) String() string {
	switch s {
	case StageQuarterFinal:
		return "quarter_final"
	case StageSemiFinal:
		return "semi_final"
	case StageFinal:
		return "final"
	default:
		return "early"
	}
}

func StageOf(roundIdx, totalRounds int) Stage {
	switch totalRounds - 1 - roundIdx {
	case 0:
		return StageFinal
	case 1:
		return StageSemiFinal
	case 2:
		return StageQuarterFinal
	default:
		return StageEarly
	}
}
