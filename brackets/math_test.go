package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundCount(t *testing.T) {
	tests := []struct {
		players int
		want    int
	}{
		{0, 1},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 3},
		{8, 3},
		{9, 4},
		{16, 4},
		{17, 5},
		{64, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundCount(tt.players), "players=%d", tt.players)
	}
}

func TestMatchCount(t *testing.T) {
	assert.Equal(t, 4, MatchCount(0, 3))
	assert.Equal(t, 2, MatchCount(1, 3))
	assert.Equal(t, 1, MatchCount(2, 3))
	assert.Equal(t, 0, MatchCount(3, 3))
	assert.Equal(t, 0, MatchCount(-1, 3))
	assert.Equal(t, 16, MatchCount(0, 5))
}

func TestParentAndChildIndices(t *testing.T) {
	for idx := 0; idx < 16; idx++ {
		parent, slot := ParentMatchIndex(idx), ParentSlot(idx)
		assert.Equal(t, idx, ChildMatchIndex(parent, slot))
	}
	assert.Equal(t, 2, ParentMatchIndex(5))
	assert.Equal(t, 1, ParentSlot(5))
}

func TestStageOf(t *testing.T) {
	assert.Equal(t, StageQuarterFinal, StageOf(0, 3))
	assert.Equal(t, StageSemiFinal, StageOf(1, 3))
	assert.Equal(t, StageFinal, StageOf(2, 3))
	assert.Equal(t, StageEarly, StageOf(0, 4))
	assert.Equal(t, StageQuarterFinal, StageOf(1, 4))
	assert.Equal(t, StageSemiFinal, StageOf(0, 2))
	assert.Equal(t, "semi_final", StageSemiFinal.String())
}

func TestRecoveryRoundCount(t *testing.T) {
	_, err := RecoveryRoundCount(2)
	require.ErrorIs(t, err, ErrRecoveryBracketsUnavailable)

	n, err := RecoveryRoundCount(3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = RecoveryRoundCount(5)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
