package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func roster(n int) []Player {
	players := make([]Player, n)
	for i := range players {
		players[i] = Player(fmt.Sprintf("p%d", i+1))
	}
	return players
}

func slotOf(p string) Slot {
	if p == "" {
		return EmptySlot()
	}
	return Occupied(Player(p))
}

func requirePlayers(t *testing.T, m *Match, first, second string) {
	t.Helper()
	require.NotNil(t, m)
	require.Equal(t, [2]Slot{slotOf(first), slotOf(second)}, m.Players)
}

func decideMain(t *testing.T, bs Brackets, roundIdx, matchIdx, winnerSlot int) Brackets {
	t.Helper()
	out, err := DecideMain(bs, roundIdx, matchIdx, winnerSlot)
	require.NoError(t, err, "main round %d match %d", roundIdx, matchIdx)
	return out
}

func decideRecovery(t *testing.T, bs Brackets, which, roundIdx, matchIdx, winnerSlot int) Brackets {
	t.Helper()
	out, err := DecideRecovery(bs, which, roundIdx, matchIdx, winnerSlot)
	require.NoError(t, err, "recovery %d round %d match %d", which, roundIdx, matchIdx)
	return out
}

// playEightToTheEnd plays a full 8-player tournament where slot 0 wins every
// main match until the final and recovery results are fixed.
func playEightToTheEnd(t *testing.T) Brackets {
	t.Helper()
	bs := GenerateBrackets(roster(8))
	for i := 0; i < 4; i++ {
		bs = decideMain(t, bs, 0, i, 0)
	}
	bs = decideMain(t, bs, 1, 0, 0)
	bs = decideMain(t, bs, 1, 1, 0)
	bs = decideRecovery(t, bs, 0, 0, 0, 0)
	bs = decideRecovery(t, bs, 1, 0, 0, 0)
	bs = decideMain(t, bs, 2, 0, 0)
	bs = decideRecovery(t, bs, 0, 1, 0, 1)
	bs = decideRecovery(t, bs, 1, 1, 0, 0)
	return bs
}
