package services

import (
	"fmt"
	"time"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/evaluator"
	"gumble-backend/internal/models"
)

// kenoDraw derives the 10 drawn numbers (1..40) from the seed. The
// draw happens at play time; nothing is pre-generated.
func kenoDraw(seed string) []int {
	perm := deck.Perm(seed, evaluator.KenoPoolSize)[:evaluator.KenoDrawCount]
	drawn := make([]int, len(perm))
	for i, n := range perm {
		drawn[i] = n + 1
	}
	return drawn
}

type KenoResult struct {
	SessionID  string  `json:"session_id"`
	Picks      []int   `json:"picks"`
	Drawn      []int   `json:"drawn"`
	Matches    int     `json:"matches"`
	Multiplier float64 `json:"multiplier"`
	Payout     int64   `json:"payout"`
	Balance    int64   `json:"balance"`
}

// PlayKeno is a single-shot round: debit, draw, settle.
func (e *SoloEngine) PlayKeno(userID string, bet int64, picks []int) (*KenoResult, error) {
	seen := make(map[int]bool, len(picks))
	for _, p := range picks {
		if seen[p] {
			return nil, fmt.Errorf("duplicate pick: %d", p)
		}
		seen[p] = true
	}

	allowed, err := e.store.CheckRateLimit(userID, "bet", DefaultRateLimitBets, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %v", err)
	}
	if !allowed {
		return nil, models.ErrRateLimited
	}

	wallet, err := e.store.GetWallet(userID)
	if err != nil {
		return nil, err
	}

	session := &models.SoloSession{
		ID:         models.GenerateSessionID(),
		UserID:     userID,
		GameType:   models.GameTypeKeno,
		Bet:        bet,
		Status:     models.SessionStatusActive,
		Multiplier: 1.0,
		ClientSeed: wallet.ClientSeed,
		Nonce:      wallet.Nonce,
		Commitment: Commitment(e.serverSeed, models.GameTypeKeno, wallet.ClientSeed, wallet.Nonce),
		Picks:      picks,
		CreatedAt:  time.Now().Unix(),
	}

	if _, err := e.ledger.Bet(userID, bet, session.ID); err != nil {
		return nil, err
	}

	wallet.Nonce++
	if err := e.store.SaveWallet(wallet); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("failed to advance nonce")
	}

	session.Drawn = kenoDraw(session.Commitment)
	matches := evaluator.KenoMatches(picks, session.Drawn)
	session.Multiplier = evaluator.KenoMultiplier(len(picks), matches)

	payout := models.Payout(bet, session.Multiplier)
	status := models.SessionStatusLost
	if payout > 0 {
		status = models.SessionStatusWon
	}

	session.Status = status
	session.Payout = payout
	session.EndedAt = time.Now().Unix()
	if err := e.store.SaveSoloSession(session); err != nil {
		return nil, err
	}
	if err := e.store.CompleteSoloSession(userID, session.ID); err != nil {
		e.log.WithError(err).WithField("session_id", session.ID).Warn("failed to archive session")
	}

	var balance int64
	if payout > 0 {
		if balance, err = e.ledger.Win(userID, payout, session.ID); err != nil {
			return nil, err
		}
	} else if balance, err = e.ledger.Balance(userID); err != nil {
		return nil, err
	}
	e.notifyBalance(userID, balance)

	return &KenoResult{
		SessionID:  session.ID,
		Picks:      picks,
		Drawn:      session.Drawn,
		Matches:    matches,
		Multiplier: session.Multiplier,
		Payout:     payout,
		Balance:    balance,
	}, nil
}
