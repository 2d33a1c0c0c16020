package services_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumble-backend/internal/config"
	"gumble-backend/internal/models"
	"gumble-backend/internal/services"
)

func setupTestRedis(t *testing.T) *services.RedisService {
	t.Helper()
	cfg := &config.Config{
		RedisURL:        "localhost:6379",
		RedisPass:       "",
		RedisDB:         0,
		StartingBalance: 10000,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { redisService.Close() })
	return redisService
}

func testUserID() string {
	return fmt.Sprintf("test_user_%d", uuid.New().ID())
}

func TestLedgerBetAndWin(t *testing.T) {
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	userID := testUserID()
	t.Cleanup(func() { store.DeleteWallet(userID) })

	balance, err := ledger.Bet(userID, 1000, "ref1")
	require.NoError(t, err)
	assert.Equal(t, int64(9000), balance)

	balance, err = ledger.Win(userID, 2500, "ref1")
	require.NoError(t, err)
	assert.Equal(t, int64(11500), balance)

	wallet, err := store.GetWallet(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet.TotalWagered)
	assert.Equal(t, int64(2500), wallet.TotalWon)
}

func TestLedgerNeverGoesNegative(t *testing.T) {
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	userID := testUserID()
	t.Cleanup(func() { store.DeleteWallet(userID) })

	_, err := ledger.Bet(userID, 10001, "ref1")
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	balance, err := ledger.Balance(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance, "failed debit must not move the balance")

	_, err = ledger.Withdraw(userID, 99999)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	userID := testUserID()
	t.Cleanup(func() { store.DeleteWallet(userID) })

	// The Lua balance check passes for any negative amount, so a
	// negative debit would mint money. It must never reach the script.
	_, err := ledger.Bet(userID, -1_000_000, "ref1")
	require.Error(t, err)
	_, err = ledger.BuyIn(userID, -1_000_000, "table1")
	require.Error(t, err)
	_, err = ledger.Withdraw(userID, 0)
	require.Error(t, err)
	_, err = ledger.Deposit(userID, -500)
	require.Error(t, err)

	balance, err := ledger.Balance(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance, "rejected amounts must not move the balance")
}

func TestLedgerConcurrentDebits(t *testing.T) {
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	userID := testUserID()
	t.Cleanup(func() { store.DeleteWallet(userID) })

	// Create the wallet up front so every goroutine races the same key.
	_, err := ledger.Balance(userID)
	require.NoError(t, err)

	// 8 debits of 3000 against a balance of 10000: exactly 3 can land.
	const attempts = 8
	const stake = int64(3000)

	var wg sync.WaitGroup
	var successes atomic.Int32
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(ref int) {
			defer wg.Done()
			_, err := ledger.Bet(userID, stake, fmt.Sprintf("race_%d", ref))
			if err == nil {
				successes.Add(1)
			} else {
				assert.ErrorIs(t, err, models.ErrInsufficientFunds)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(3), successes.Load(), "only the affordable debits may succeed")

	balance, err := ledger.Balance(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance, "balance must never go negative under contention")
}

func TestLedgerRefund(t *testing.T) {
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	userID := testUserID()
	t.Cleanup(func() { store.DeleteWallet(userID) })

	_, err := ledger.Bet(userID, 500, "ref1")
	require.NoError(t, err)

	balance, err := ledger.Refund(userID, 500, "ref1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), balance)

	// A refund is not a win.
	wallet, err := store.GetWallet(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.TotalWon)
}

func TestLedgerBuyInAndSettle(t *testing.T) {
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	userID := testUserID()
	t.Cleanup(func() { store.DeleteWallet(userID) })

	balance, err := ledger.BuyIn(userID, 4000, "table1")
	require.NoError(t, err)
	assert.Equal(t, int64(6000), balance)

	wallet, err := store.GetWallet(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), wallet.InPlay)

	// Left the table with 5500 after buying in for 4000.
	balance, err = ledger.Settle(userID, 4000, 5500, "table1")
	require.NoError(t, err)
	assert.Equal(t, int64(11500), balance)

	wallet, err = store.GetWallet(userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.InPlay)
	assert.Equal(t, int64(1500), wallet.TotalWon)

	_, err = ledger.BuyIn(userID, 999999, "table1")
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
}

func TestLedgerRecordsTransactions(t *testing.T) {
	store := setupTestRedis(t)
	ledger := services.NewLedger(store)
	userID := testUserID()
	t.Cleanup(func() { store.DeleteWallet(userID) })

	_, err := ledger.Deposit(userID, 2000)
	require.NoError(t, err)
	_, err = ledger.Bet(userID, 300, "ref1")
	require.NoError(t, err)

	txs, err := store.GetUserTransactions(userID, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(txs), 2)

	// Newest first.
	assert.Equal(t, models.TransactionTypeBet, txs[0].Type)
	assert.Equal(t, int64(-300), txs[0].Amount)
}
