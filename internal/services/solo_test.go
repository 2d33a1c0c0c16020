package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/models"
	"gumble-backend/internal/services"
)

func setupSoloEngine(t *testing.T) (*services.SoloEngine, *services.RedisService) {
	t.Helper()
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	engine, err := services.NewSoloEngine(store, ledger, 1.5)
	require.NoError(t, err)
	return engine, store
}

func cleanupSolo(t *testing.T, store *services.RedisService, userID string, sessionIDs ...string) {
	t.Helper()
	t.Cleanup(func() {
		store.DeleteWallet(userID)
		store.ClearRateLimit(userID, "bet")
		store.ClearRateLimit(userID, "reveal")
		store.ClearRateLimit(userID, "cashout")
		for _, gt := range []models.GameType{
			models.GameTypeMines, models.GameTypeDragon, models.GameTypeBlackjack,
		} {
			store.ReleaseActiveSolo(userID, gt)
		}
		for _, id := range sessionIDs {
			store.DeleteSoloSession(id)
		}
	})
}

func TestMinesLifecycle(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()

	session, err := engine.StartMines(userID, 1000, 3)
	require.NoError(t, err)
	cleanupSolo(t, store, userID, session.ID)

	require.NotEmpty(t, session.Commitment)
	assert.Len(t, session.MinePositions, 3)

	result, err := engine.RevealMine(userID, session.ID, 7)
	require.NoError(t, err)

	if result.GameOver {
		// Hit a mine: the full layout must be revealed and the session
		// must be dead.
		assert.True(t, result.IsMine)
		assert.Len(t, result.Mines, 3)
		_, _, err := engine.CashoutMines(userID, session.ID)
		assert.ErrorIs(t, err, models.ErrSessionNotFound)
		return
	}

	assert.Greater(t, result.Multiplier, 1.0)
	assert.Empty(t, result.Mines, "layout must stay hidden while live")

	// Re-picking the same tile is rejected.
	_, err = engine.RevealMine(userID, session.ID, 7)
	assert.ErrorIs(t, err, models.ErrStaleAction)

	payout, _, err := engine.CashoutMines(userID, session.ID)
	require.NoError(t, err)
	assert.Greater(t, payout, int64(1000), "one safe reveal pays above the stake")

	// Cashing out twice can never pay twice.
	_, _, err = engine.CashoutMines(userID, session.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestOneActiveSessionPerGame(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()

	session, err := engine.StartMines(userID, 1000, 3)
	require.NoError(t, err)
	cleanupSolo(t, store, userID, session.ID)

	balanceAfterFirst, err := services.NewLedger(store).Balance(userID)
	require.NoError(t, err)

	_, err = engine.StartMines(userID, 1000, 5)
	assert.ErrorIs(t, err, models.ErrSessionActive)

	// The rejected start must refund its debit.
	balance, err := services.NewLedger(store).Balance(userID)
	require.NoError(t, err)
	assert.Equal(t, balanceAfterFirst, balance)

	// A different game type is unaffected.
	bj, err := engine.DealBlackjack(userID, 500)
	require.NoError(t, err)
	store.DeleteSoloSession(bj.SessionID)
}

func TestDragonLifecycle(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()

	session, err := engine.StartDragon(userID, 1000, "easy")
	require.NoError(t, err)
	cleanupSolo(t, store, userID, session.ID)

	require.Len(t, session.SafePath, 9)
	for _, row := range session.SafePath {
		assert.Len(t, row, 3, "easy tier has 3 safe tiles per row")
	}

	result, err := engine.DragonStep(userID, session.ID, 0)
	require.NoError(t, err)

	if result.GameOver {
		assert.False(t, result.Safe)
		assert.NotEmpty(t, result.SafePath, "loss reveals the path")
		return
	}

	assert.True(t, result.Safe)
	assert.Greater(t, result.Multiplier, 1.0)

	payout, _, err := engine.CashoutDragon(userID, session.ID)
	require.NoError(t, err)
	assert.Greater(t, payout, int64(0))

	_, err = engine.DragonStep(userID, session.ID, 0)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestDragonRejectsUnknownTier(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()
	cleanupSolo(t, store, userID)

	_, err := engine.StartDragon(userID, 1000, "nightmare")
	assert.Error(t, err)
}

func TestKenoPlay(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()
	cleanupSolo(t, store, userID)

	result, err := engine.PlayKeno(userID, 1000, []int{4, 8, 15, 16, 23})
	require.NoError(t, err)
	cleanupSolo(t, store, userID, result.SessionID)

	require.Len(t, result.Drawn, 10)
	seen := make(map[int]bool)
	for _, n := range result.Drawn {
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 40)
		assert.False(t, seen[n], "drawn number %d repeats", n)
		seen[n] = true
	}

	expected := models.Payout(1000, result.Multiplier)
	assert.Equal(t, expected, result.Payout)

	_, err = engine.PlayKeno(userID, 1000, []int{1, 1, 2})
	assert.Error(t, err, "duplicate picks are rejected")
}

func TestBlackjackDealAndStand(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()
	cleanupSolo(t, store, userID)

	state, err := engine.DealBlackjack(userID, 1000)
	require.NoError(t, err)
	cleanupSolo(t, store, userID, state.SessionID)

	require.Len(t, state.PlayerHand, 2)
	require.Len(t, state.DealerHand, 2)

	if state.Status != "playing" {
		// A natural on either side resolves the hand at the deal.
		assert.Contains(t, []string{"won", "lost", "push"}, state.Status)
		return
	}

	assert.Equal(t, deck.Concealed, state.DealerHand[1], "hole card stays hidden while live")

	final, err := engine.BlackjackAction(userID, state.SessionID, "stand")
	require.NoError(t, err)

	assert.Contains(t, []string{"won", "lost", "push"}, final.Status)
	assert.NotEqual(t, deck.Concealed, final.DealerHand[1], "resolution reveals the hole card")
	assert.GreaterOrEqual(t, final.DealerScore, 17, "dealer stands on all 17s")

	_, err = engine.BlackjackAction(userID, state.SessionID, "stand")
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestFinishedSessionRecordsPayout(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()

	session, err := engine.StartMines(userID, 1000, 3)
	require.NoError(t, err)
	cleanupSolo(t, store, userID, session.ID)

	payout, _, err := engine.CashoutMines(userID, session.ID)
	require.NoError(t, err)
	require.Greater(t, payout, int64(0))

	// The terminal record carries the payout owed, so a credit that
	// failed mid-finish can be retried from it instead of being lost.
	stored, err := store.GetSoloSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCashedOut, stored.Status)
	assert.Equal(t, payout, stored.Payout)
}

func TestRateLimitSurfacesTypedError(t *testing.T) {
	engine, store := setupSoloEngine(t)
	userID := testUserID()

	session, err := engine.StartMines(userID, 1000, 3)
	require.NoError(t, err)
	cleanupSolo(t, store, userID, session.ID)

	// Exhaust the reveal budget out of band.
	for i := 0; i < services.DefaultRateLimitReveals; i++ {
		_, err := store.CheckRateLimit(userID, "reveal", services.DefaultRateLimitReveals, time.Minute)
		require.NoError(t, err)
	}

	// Throttling is not a stale action; callers must be able to tell an
	// over-limit reject apart from a protocol violation.
	_, err = engine.RevealMine(userID, session.ID, 7)
	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.NotErrorIs(t, err, models.ErrStaleAction)
}

func TestCommitmentIsDeterministic(t *testing.T) {
	a := services.Commitment("server-seed", models.GameTypeMines, "client-seed", 5)
	b := services.Commitment("server-seed", models.GameTypeMines, "client-seed", 5)
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, services.Commitment("server-seed", models.GameTypeMines, "client-seed", 6))
	assert.NotEqual(t, a, services.Commitment("server-seed", models.GameTypeKeno, "client-seed", 5))
	assert.NotEqual(t, a, services.Commitment("other-seed", models.GameTypeMines, "client-seed", 5))
}

func TestVerifyOutcome(t *testing.T) {
	engine, store := setupSoloEngine(t)
	_ = store

	out, err := engine.VerifyOutcome(&models.VerifyRequest{
		ClientSeed: "client-seed",
		ServerSeed: "server-seed",
		Nonce:      3,
		GameType:   "keno",
	})
	require.NoError(t, err)

	drawn, ok := out["drawn"].([]int)
	require.True(t, ok)
	assert.Len(t, drawn, 10)

	again, err := engine.VerifyOutcome(&models.VerifyRequest{
		ClientSeed: "client-seed",
		ServerSeed: "server-seed",
		Nonce:      3,
		GameType:   "keno",
	})
	require.NoError(t, err)
	assert.Equal(t, out["commitment"], again["commitment"])
	assert.Equal(t, drawn, again["drawn"])

	_, err = engine.VerifyOutcome(&models.VerifyRequest{
		ClientSeed: "x", ServerSeed: "y", GameType: "roulette",
	})
	assert.Error(t, err)
}
