package brackets

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assignIDs(bs Brackets) {
	for _, id := range []BracketID{MainBracket, FirstRecoveryBracket, SecondRecoveryBracket} {
		b, _ := bs.Bracket(id)
		for r, round := range b {
			for i, m := range round {
				if m != nil {
					m.ID = fmt.Sprintf("%s-%d-%d", id, r, i)
				}
			}
		}
	}
}

func TestLocate(t *testing.T) {
	bs := playEightToTheEnd(t)
	assignIDs(bs)

	pos, ok := bs.Locate("recovery_2-1-0")
	require.True(t, ok)
	assert.Equal(t, Position{Bracket: SecondRecoveryBracket, Round: 1, Match: 0}, pos)
	assert.Same(t, bs.Recovery[1][1][0], bs.MatchAt(pos))

	_, ok = bs.Locate("missing")
	assert.False(t, ok)
	_, ok = bs.Locate("")
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	bs := GenerateBrackets(roster(8))
	for i := 0; i < 4; i++ {
		var err error
		bs, err = bs.Apply(Position{Bracket: MainBracket, Round: 0, Match: i}, 1)
		require.NoError(t, err)
	}
	requirePlayers(t, bs.Recovery[0][0][0], "p1", "p2")

	bs, err := bs.Apply(Position{Bracket: FirstRecoveryBracket, Round: 0, Match: 0}, 1)
	require.NoError(t, err)
	requirePlayers(t, bs.Recovery[0][1][0], "p2", "")

	_, err = bs.Apply(Position{Bracket: BracketID(7)}, 0)
	require.ErrorIs(t, err, ErrUnplayableMatch)
}

func TestPlayOrder(t *testing.T) {
	fresh := GenerateBrackets(roster(8))
	assert.Equal(t, []Position{
		{MainBracket, 0, 0},
		{MainBracket, 0, 1},
		{MainBracket, 0, 2},
		{MainBracket, 0, 3},
	}, fresh.PlayOrder())

	bs := playEightToTheEnd(t)
	assert.Equal(t, []Position{
		{MainBracket, 0, 0},
		{MainBracket, 0, 1},
		{MainBracket, 0, 2},
		{MainBracket, 0, 3},
		{MainBracket, 1, 0},
		{MainBracket, 1, 1},
		{FirstRecoveryBracket, 0, 0},
		{SecondRecoveryBracket, 0, 0},
		{FirstRecoveryBracket, 1, 0},
		{SecondRecoveryBracket, 1, 0},
		{MainBracket, 2, 0},
	}, bs.PlayOrder())
}
