package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"gumble-backend/internal/models"
)

// Ledger owns every balance mutation. Each operation is a single Lua
// script, so a debit and its bookkeeping commit together or not at all,
// and concurrent debits on the same wallet serialize inside Redis.
type Ledger struct {
	store *RedisService
}

func NewLedger(store *RedisService) *Ledger {
	return &Ledger{store: store}
}

var debitScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)
	local amount = tonumber(ARGV[1])

	if wallet.balance < amount then
		return redis.error_reply("insufficient funds")
	end

	wallet.balance = wallet.balance - amount
	if ARGV[2] == "1" then
		wallet.total_wagered = wallet.total_wagered + amount
	end
	if ARGV[3] == "1" then
		wallet.in_play = wallet.in_play + amount
	end

	redis.call("SET", KEYS[1], cjson.encode(wallet))
	return wallet.balance
`)

var creditScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)
	local amount = tonumber(ARGV[1])

	wallet.balance = wallet.balance + amount
	if ARGV[2] == "1" then
		wallet.total_won = wallet.total_won + amount
	end

	redis.call("SET", KEYS[1], cjson.encode(wallet))
	return wallet.balance
`)

var settleScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("wallet not found")
	end

	local wallet = cjson.decode(data)
	local buyin = tonumber(ARGV[1])
	local stack = tonumber(ARGV[2])

	wallet.in_play = wallet.in_play - buyin
	if wallet.in_play < 0 then
		wallet.in_play = 0
	end
	wallet.balance = wallet.balance + stack
	if stack > buyin then
		wallet.total_won = wallet.total_won + (stack - buyin)
	end

	redis.call("SET", KEYS[1], cjson.encode(wallet))
	return wallet.balance
`)

func (l *Ledger) walletKey(userID string) string {
	return fmt.Sprintf(KeyWallet, userID)
}

// ensureWallet creates the wallet on first touch so the scripts never
// see a missing key for a legitimate user.
func (l *Ledger) ensureWallet(userID string) error {
	_, err := l.store.GetWallet(userID)
	return err
}

func (l *Ledger) runDebit(userID string, amount int64, wager, inPlay bool) (int64, error) {
	// The script's balance check passes for any negative amount, which
	// would turn the debit into a credit.
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	if err := l.ensureWallet(userID); err != nil {
		return 0, err
	}

	balance, err := debitScript.Run(l.store.ctx, l.store.client,
		[]string{l.walletKey(userID)}, amount, boolArg(wager), boolArg(inPlay)).Int64()
	if err != nil {
		if strings.Contains(err.Error(), "insufficient funds") {
			return 0, models.ErrInsufficientFunds
		}
		return 0, fmt.Errorf("debit failed: %v", err)
	}
	return balance, nil
}

func (l *Ledger) runCredit(userID string, amount int64, won bool) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if err := l.ensureWallet(userID); err != nil {
		return 0, err
	}

	balance, err := creditScript.Run(l.store.ctx, l.store.client,
		[]string{l.walletKey(userID)}, amount, boolArg(won)).Int64()
	if err != nil {
		return 0, fmt.Errorf("credit failed: %v", err)
	}
	return balance, nil
}

// Bet debits a wager from the main balance.
func (l *Ledger) Bet(userID string, amount int64, reference string) (int64, error) {
	balance, err := l.runDebit(userID, amount, true, false)
	if err != nil {
		return 0, err
	}
	l.record(userID, models.TransactionTypeBet, -amount, balance, reference,
		fmt.Sprintf("Bet %s", models.FormatCurrency(amount)))
	return balance, nil
}

// Win credits a payout.
func (l *Ledger) Win(userID string, amount int64, reference string) (int64, error) {
	balance, err := l.runCredit(userID, amount, true)
	if err != nil {
		return 0, err
	}
	l.record(userID, models.TransactionTypeWin, amount, balance, reference,
		fmt.Sprintf("Won %s", models.FormatCurrency(amount)))
	return balance, nil
}

// Refund returns a committed bet after an aborted hand.
func (l *Ledger) Refund(userID string, amount int64, reference string) (int64, error) {
	balance, err := l.runCredit(userID, amount, false)
	if err != nil {
		return 0, err
	}
	l.record(userID, models.TransactionTypeRefund, amount, balance, reference,
		fmt.Sprintf("Refund %s", models.FormatCurrency(amount)))
	return balance, nil
}

func (l *Ledger) Deposit(userID string, amount int64) (int64, error) {
	balance, err := l.runCredit(userID, amount, false)
	if err != nil {
		return 0, err
	}
	l.record(userID, models.TransactionTypeDeposit, amount, balance, "",
		fmt.Sprintf("Deposit %s", models.FormatCurrency(amount)))
	return balance, nil
}

func (l *Ledger) Withdraw(userID string, amount int64) (int64, error) {
	balance, err := l.runDebit(userID, amount, false, false)
	if err != nil {
		return 0, err
	}
	l.record(userID, models.TransactionTypeWithdraw, -amount, balance, "",
		fmt.Sprintf("Withdraw %s", models.FormatCurrency(amount)))
	return balance, nil
}

// BuyIn moves funds from the spendable balance into table custody in
// one step; the stack itself lives in the table state.
func (l *Ledger) BuyIn(userID string, amount int64, tableID string) (int64, error) {
	balance, err := l.runDebit(userID, amount, false, true)
	if err != nil {
		return 0, err
	}
	l.record(userID, models.TransactionTypeBuyIn, -amount, balance, tableID,
		fmt.Sprintf("Buy-in %s", models.FormatCurrency(amount)))
	return balance, nil
}

// Settle returns a leaving player's remaining stack to the main balance
// and releases the in-play custody marker, atomically.
func (l *Ledger) Settle(userID string, buyIn, stack int64, tableID string) (int64, error) {
	if err := l.ensureWallet(userID); err != nil {
		return 0, err
	}

	balance, err := settleScript.Run(l.store.ctx, l.store.client,
		[]string{l.walletKey(userID)}, buyIn, stack).Int64()
	if err != nil {
		return 0, fmt.Errorf("settle failed: %v", err)
	}
	l.record(userID, models.TransactionTypeCashOut, stack, balance, tableID,
		fmt.Sprintf("Cash out %s", models.FormatCurrency(stack)))
	return balance, nil
}

func (l *Ledger) Balance(userID string) (int64, error) {
	wallet, err := l.store.GetWallet(userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

func (l *Ledger) record(userID string, txType models.TransactionType, amount, balanceAfter int64, reference, description string) {
	tx := &models.Transaction{
		ID:            models.GenerateTransactionID(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceAfter - amount,
		BalanceAfter:  balanceAfter,
		Reference:     reference,
		Description:   description,
		CreatedAt:     time.Now().Unix(),
	}
	if err := l.store.SaveTransaction(tx); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    txType,
		}).Warn("failed to record transaction")
	}
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
