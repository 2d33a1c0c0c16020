package services

import "time"

const (
	KeyUserInfo       = "user:%s:info"
	KeyUsernameIndex  = "index:username:%s"
	KeyFederatedIndex = "index:federated:%s"
	KeyUserSession    = "user:%s:session:%s"
	KeyWallet         = "wallet:%s"

	KeySoloSession        = "solo:session:%s"
	KeyUserActiveSolo     = "user:%s:active:%s" // one per (user, game type)
	KeyUserCompletedGames = "user:%s:completed_games"

	KeyTransaction      = "transaction:%s"
	KeyUserTransactions = "user:%s:transactions"
	KeyRateLimit        = "ratelimit:%s:%s"

	TTLUserSession = 24 * time.Hour
	TTLSoloSession = 7 * 24 * time.Hour
	TTLTransaction = 30 * 24 * time.Hour

	DefaultRateLimitBets    = 30  // bets per minute
	DefaultRateLimitReveals = 120 // reveals/steps per minute
	DefaultRateLimitCashout = 60  // cashouts per minute
)
