package evaluator

import "gonum.org/v1/gonum/stat/combin"

// Multiplier tables for the survival games. Both pay the inverse of the
// true survival probability scaled by RTP, which pins the expected
// value of every cashout point at RTP exactly.

const (
	// RTP is the return-to-player fraction; 1-RTP is the house edge.
	RTP = 0.99

	MinesGridSize = 25

	DragonRows = 9
)

// MinesMultiplier is the cashout multiplier after safeReveals safe
// tiles with minesCount mines on a 25-tile grid:
//
//	P(survive k picks) = C(25-m, k) / C(25, k)
//	multiplier          = RTP / P
func MinesMultiplier(minesCount, safeReveals int) float64 {
	if safeReveals <= 0 {
		return 1.0
	}
	safeTiles := MinesGridSize - minesCount
	if safeReveals > safeTiles {
		safeReveals = safeTiles
	}
	p := float64(combin.Binomial(safeTiles, safeReveals)) /
		float64(combin.Binomial(MinesGridSize, safeReveals))
	return RTP / p
}

// MaxSafeReveals is how many tiles can be revealed before only mines
// remain.
func MaxSafeReveals(minesCount int) int {
	return MinesGridSize - minesCount
}

// DragonTier describes one risk level of the tower: how many tiles per
// row and how many of them are safe.
type DragonTier struct {
	Tiles int
	Safe  int
}

var dragonTiers = map[string]DragonTier{
	"easy":   {Tiles: 4, Safe: 3},
	"medium": {Tiles: 3, Safe: 2},
	"hard":   {Tiles: 2, Safe: 1},
}

func DragonTierSpec(tier string) (DragonTier, bool) {
	t, ok := dragonTiers[tier]
	return t, ok
}

// DragonMultiplier is the cashout multiplier after climbing rowsClimbed
// rows: RTP / p^rows with p the per-row survival chance.
func DragonMultiplier(tier string, rowsClimbed int) float64 {
	t, ok := dragonTiers[tier]
	if !ok || rowsClimbed <= 0 {
		return 1.0
	}
	if rowsClimbed > DragonRows {
		rowsClimbed = DragonRows
	}
	p := float64(t.Safe) / float64(t.Tiles)
	mult := RTP
	for i := 0; i < rowsClimbed; i++ {
		mult /= p
	}
	return mult
}
