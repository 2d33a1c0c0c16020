package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/models"
)

func TestSessionSummaryHidesLayoutSeedWhileActive(t *testing.T) {
	session := &models.SoloSession{
		ID:         "solo_1",
		GameType:   models.GameTypeMines,
		Bet:        1000,
		Status:     models.SessionStatusActive,
		Commitment: "3c1f0bb4a2d06657dd9d9c8e3b8f9a19",
		MinesCount: 3,
	}
	// The mine layout is derived straight from the commitment, so a
	// client holding the commitment holds the whole board.
	session.MinePositions = deck.Perm(session.Commitment, 25)[:3]

	out := sessionSummary(session)

	assert.NotContains(t, out, "commitment", "live sessions must not carry the layout seed")
	assert.NotContains(t, out, "mine_positions")

	sum := sha256.Sum256([]byte(session.Commitment))
	assert.Equal(t, hex.EncodeToString(sum[:]), out["commitment_hash"])

	// Settlement reveals the seed so the player can audit the layout.
	session.Status = models.SessionStatusLost
	done := sessionSummary(session)
	assert.Equal(t, session.Commitment, done["commitment"])
	assert.Equal(t, session.MinePositions, done["mine_positions"])
}

func TestSessionSummaryHidesDragonPathWhileActive(t *testing.T) {
	session := &models.SoloSession{
		ID:       "solo_2",
		GameType: models.GameTypeDragon,
		Status:   models.SessionStatusActive,
		Tier:     "easy",
		SafePath: [][]int{{0, 1, 2}, {1, 2, 3}},
	}

	out := sessionSummary(session)
	assert.NotContains(t, out, "commitment")
	assert.NotContains(t, out, "safe_path")

	session.Status = models.SessionStatusCashedOut
	done := sessionSummary(session)
	assert.Equal(t, session.SafePath, done["safe_path"])
}
