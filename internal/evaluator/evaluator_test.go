package evaluator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/evaluator"
)

func cards(ids ...string) []deck.Card {
	out := make([]deck.Card, len(ids))
	for i, id := range ids {
		out[i] = deck.Card(id)
	}
	return out
}

func TestBlackjackScore(t *testing.T) {
	assert.Equal(t, 21, evaluator.BlackjackScore(cards("Ah", "As", "9d")))
	assert.Equal(t, 20, evaluator.BlackjackScore(cards("Kh", "Qs")))
	assert.Equal(t, 12, evaluator.BlackjackScore(cards("Ah", "Ad")))
	assert.Equal(t, 13, evaluator.BlackjackScore(cards("Ah", "2d")))
	assert.Equal(t, 14, evaluator.BlackjackScore(cards("Ah", "Kd", "3s")))
	assert.Equal(t, 17, evaluator.BlackjackScore(cards("7h", "5d", "5s")))
}

func TestBlackjackNaturalAndBust(t *testing.T) {
	assert.True(t, evaluator.IsNatural(cards("Ah", "Kd")))
	assert.True(t, evaluator.IsNatural(cards("Ts", "Ac")))
	// Three-card 21 is not a natural.
	assert.False(t, evaluator.IsNatural(cards("7h", "7d", "7s")))
	assert.False(t, evaluator.IsNatural(cards("Kh", "Qs")))

	assert.True(t, evaluator.IsBust(cards("Kh", "Qs", "5d")))
	assert.False(t, evaluator.IsBust(cards("Ah", "Kh", "Qs")))
}

func TestMinesMultiplier(t *testing.T) {
	// One mine, one reveal: 0.99 / (24/25).
	assert.InDelta(t, 0.99*25.0/24.0, evaluator.MinesMultiplier(1, 1), 1e-9)

	// 24 mines, one safe tile: 0.99 / (1/25).
	assert.InDelta(t, 0.99*25.0, evaluator.MinesMultiplier(24, 1), 1e-9)

	// Multiplier grows with each reveal.
	prev := 0.0
	for k := 1; k <= evaluator.MaxSafeReveals(5); k++ {
		m := evaluator.MinesMultiplier(5, k)
		assert.Greater(t, m, prev, "multiplier should grow at reveal %d", k)
		prev = m
	}

	assert.Equal(t, 1.0, evaluator.MinesMultiplier(5, 0))
	assert.Equal(t, 24, evaluator.MaxSafeReveals(1))
	assert.Equal(t, 1, evaluator.MaxSafeReveals(24))
}

func TestDragonMultiplier(t *testing.T) {
	// Hard tier: p = 1/2 per row, so one row pays 0.99 * 2.
	assert.InDelta(t, 1.98, evaluator.DragonMultiplier("hard", 1), 1e-9)
	// Easy tier: p = 3/4 per row.
	assert.InDelta(t, 0.99*4.0/3.0, evaluator.DragonMultiplier("easy", 1), 1e-9)

	assert.Equal(t, 1.0, evaluator.DragonMultiplier("hard", 0))
	assert.Equal(t, 1.0, evaluator.DragonMultiplier("bogus", 3))

	_, ok := evaluator.DragonTierSpec("medium")
	assert.True(t, ok)
	_, ok = evaluator.DragonTierSpec("impossible")
	assert.False(t, ok)
}

func TestKeno(t *testing.T) {
	drawn := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	assert.Equal(t, 3, evaluator.KenoMatches([]int{1, 2, 3, 40}, drawn))
	assert.Equal(t, 0, evaluator.KenoMatches([]int{11, 12}, drawn))

	// Paytable spot checks.
	assert.Equal(t, 3.8, evaluator.KenoMultiplier(1, 1))
	assert.Equal(t, 16.0, evaluator.KenoMultiplier(3, 3))
	assert.Equal(t, 5000.0, evaluator.KenoMultiplier(10, 10))
	// Below the paying threshold.
	assert.Equal(t, 0.0, evaluator.KenoMultiplier(5, 2))
	assert.Equal(t, 0.0, evaluator.KenoMultiplier(10, 0))
}

func TestEvalSevenOrdering(t *testing.T) {
	community := cards("2h", "7d", "9s", "Jc", "4d")

	pair, err := evaluator.EvalSeven(cards("Jh", "3d"), community)
	require.NoError(t, err)
	highCard, err := evaluator.EvalSeven(cards("Ah", "3s"), community)
	require.NoError(t, err)
	assert.Greater(t, pair, highCard, "pair of jacks should beat ace high")

	// Board plays for both: identical scores split the pot.
	board := cards("Ah", "Kh", "Qh", "Jh", "Th")
	a, err := evaluator.EvalSeven(cards("2c", "3d"), board)
	require.NoError(t, err)
	b, err := evaluator.EvalSeven(cards("4s", "5c"), board)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = evaluator.EvalSeven(cards("Ah"), community)
	assert.Error(t, err)
}

func TestDescribeSeven(t *testing.T) {
	name, err := evaluator.DescribeSeven(cards("Ah", "Ad"), cards("As", "Ac", "2h", "3d", "4s"))
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}
