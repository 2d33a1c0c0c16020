package models

// All currency amounts are int64 cents. Balance is the spendable main
// balance; InPlay mirrors whatever the user currently has committed to
// table stacks, so the two custodies are never spendable at once.
type Wallet struct {
	UserID       string `json:"user_id" redis:"user_id"`
	Balance      int64  `json:"balance" redis:"balance"`
	InPlay       int64  `json:"in_play" redis:"in_play"`
	TotalWagered int64  `json:"total_wagered" redis:"total_wagered"`
	TotalWon     int64  `json:"total_won" redis:"total_won"`

	// Provably fair seeds
	ClientSeed string `json:"client_seed" redis:"client_seed"`
	Nonce      int64  `json:"nonce" redis:"nonce"`
}

type TransactionType string

const (
	TransactionTypeBet      TransactionType = "bet"
	TransactionTypeWin      TransactionType = "win"
	TransactionTypeRefund   TransactionType = "refund"
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"
	TransactionTypeBuyIn    TransactionType = "buy_in"
	TransactionTypeCashOut  TransactionType = "cash_out"
)

type Transaction struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Type          TransactionType `json:"type"`
	Amount        int64           `json:"amount"`
	BalanceBefore int64           `json:"balance_before"`
	BalanceAfter  int64           `json:"balance_after"`
	Reference     string          `json:"reference,omitempty"` // game session or table id
	Description   string          `json:"description"`
	CreatedAt     int64           `json:"created_at"`
}

type BalanceResponse struct {
	Balance      int64 `json:"balance"`
	InPlay       int64 `json:"in_play"`
	TotalWagered int64 `json:"total_wagered"`
	TotalWon     int64 `json:"total_won"`
}
