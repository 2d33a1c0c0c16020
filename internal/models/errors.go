package models

import (
	"errors"

	"gumble-backend/internal/deck"
)

// Every rejected command surfaces one of these; handlers map them to HTTP
// status codes and the websocket gateway to actionError frames. Nothing is
// silently swallowed.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidToken       = errors.New("invalid token")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientStack = errors.New("insufficient stack")
	ErrInvalidBuyIn      = errors.New("invalid buy-in")
	ErrRateLimited       = errors.New("rate limit exceeded")

	ErrNotYourTurn = errors.New("not your turn")
	ErrStaleAction = errors.New("stale action")

	ErrDeckExhausted = deck.ErrExhausted

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionActive   = errors.New("session already active")
	ErrTableNotFound   = errors.New("table not found")
	ErrTableFull       = errors.New("table full")
	ErrNotSeated       = errors.New("not seated at table")
)
