package deck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumble-backend/internal/deck"
)

func TestFullDeck(t *testing.T) {
	cards := deck.Full()
	require.Len(t, cards, 52)

	seen := make(map[deck.Card]bool)
	for _, c := range cards {
		assert.True(t, c.Valid(), "card %q should be valid", c)
		assert.False(t, seen[c], "card %q appears twice", c)
		seen[c] = true
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	d, err := deck.New()
	require.NoError(t, err)
	require.Equal(t, 52, d.Remaining())

	drawn, err := d.Draw(52)
	require.NoError(t, err)

	seen := make(map[deck.Card]bool)
	for _, c := range drawn {
		seen[c] = true
	}
	// Every canonical card present exactly once.
	for _, c := range deck.Full() {
		assert.True(t, seen[c], "card %q missing from shuffled deck", c)
	}

	_, err = d.DrawOne()
	assert.ErrorIs(t, err, deck.ErrExhausted)
}

func TestSeededShuffleIsDeterministic(t *testing.T) {
	a := deck.NewSeeded("replay-seed")
	b := deck.NewSeeded("replay-seed")
	assert.Equal(t, a.Cards(), b.Cards())

	c := deck.NewSeeded("different-seed")
	assert.NotEqual(t, a.Cards(), c.Cards())
}

func TestResume(t *testing.T) {
	d := deck.NewSeeded("resume-seed")
	first, err := d.Draw(5)
	require.NoError(t, err)

	resumed := deck.Resume(d.Seed(), d.Cards())
	require.Equal(t, 47, resumed.Remaining())

	next, err := resumed.DrawOne()
	require.NoError(t, err)
	for _, c := range first {
		assert.NotEqual(t, c, next, "resumed deck re-dealt %q", c)
	}
}

func TestPerm(t *testing.T) {
	p := deck.Perm("layout-seed", 25)
	require.Len(t, p, 25)

	seen := make(map[int]bool)
	for _, v := range p {
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 25)
		assert.False(t, seen[v], "index %d appears twice", v)
		seen[v] = true
	}

	assert.Equal(t, p, deck.Perm("layout-seed", 25))
	assert.NotEqual(t, p, deck.Perm("other-seed", 25))
}

func TestCardAccessors(t *testing.T) {
	c := deck.Card("Ah")
	assert.Equal(t, byte('A'), c.Rank())
	assert.Equal(t, byte('h'), c.Suit())
	assert.Equal(t, 14, c.RankValue())
	assert.Equal(t, 2, deck.Card("2s").RankValue())

	assert.False(t, deck.Concealed.Valid())
	assert.False(t, deck.Card("1h").Valid())
	assert.False(t, deck.Card("Ax").Valid())
}
