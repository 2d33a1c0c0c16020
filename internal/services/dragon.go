package services

import (
	"fmt"
	"time"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/evaluator"
	"gumble-backend/internal/models"
)

// dragonPath derives, per row, which tile indices are safe.
func dragonPath(seed, tier string) [][]int {
	spec, ok := evaluator.DragonTierSpec(tier)
	if !ok {
		return nil
	}

	path := make([][]int, evaluator.DragonRows)
	for row := 0; row < evaluator.DragonRows; row++ {
		rowSeed := fmt.Sprintf("%s:row:%d", seed, row)
		path[row] = deck.Perm(rowSeed, spec.Tiles)[:spec.Safe]
	}
	return path
}

type DragonStepResult struct {
	SessionID  string  `json:"session_id"`
	Row        int     `json:"row"`
	Choice     int     `json:"choice"`
	Safe       bool    `json:"safe"`
	Multiplier float64 `json:"multiplier"`
	GameOver   bool    `json:"game_over"`
	// SafePath is revealed only once the session is over.
	SafePath [][]int `json:"safe_path,omitempty"`
	Payout   int64   `json:"payout,omitempty"`
}

func (e *SoloEngine) StartDragon(userID string, bet int64, tier string) (*models.SoloSession, error) {
	if _, ok := evaluator.DragonTierSpec(tier); !ok {
		return nil, fmt.Errorf("unknown tier: %s", tier)
	}

	session, err := e.startSession(userID, models.GameTypeDragon, bet)
	if err != nil {
		return nil, err
	}

	session.Tier = tier
	session.SafePath = dragonPath(session.Commitment, tier)
	session.Row = 0

	if err := e.store.SaveSoloSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// DragonStep resolves one climb attempt on the current row.
func (e *SoloEngine) DragonStep(userID, sessionID string, choice int) (*DragonStepResult, error) {
	allowed, err := e.store.CheckRateLimit(userID, "reveal", DefaultRateLimitReveals, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %v", err)
	}
	if !allowed {
		return nil, models.ErrRateLimited
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	session, err := e.activeSession(userID, sessionID, models.GameTypeDragon)
	if err != nil {
		return nil, err
	}

	spec, _ := evaluator.DragonTierSpec(session.Tier)
	if choice < 0 || choice >= spec.Tiles {
		return nil, fmt.Errorf("choice out of range for tier %s", session.Tier)
	}

	result := &DragonStepResult{
		SessionID: session.ID,
		Row:       session.Row,
		Choice:    choice,
	}

	for _, safe := range session.SafePath[session.Row] {
		if safe == choice {
			result.Safe = true
			break
		}
	}

	if !result.Safe {
		session.Multiplier = 0
		result.GameOver = true
		result.SafePath = session.SafePath
		if err := e.finishSession(session, models.SessionStatusLost, 0); err != nil {
			return nil, err
		}
		return result, nil
	}

	session.Row++
	session.Multiplier = evaluator.DragonMultiplier(session.Tier, session.Row)
	result.Multiplier = session.Multiplier

	// Top of the tower pays out immediately.
	if session.Row >= evaluator.DragonRows {
		payout := models.Payout(session.Bet, session.Multiplier)
		result.GameOver = true
		result.SafePath = session.SafePath
		result.Payout = payout
		if err := e.finishSession(session, models.SessionStatusWon, payout); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := e.store.SaveSoloSession(session); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *SoloEngine) CashoutDragon(userID, sessionID string) (int64, int64, error) {
	allowed, err := e.store.CheckRateLimit(userID, "cashout", DefaultRateLimitCashout, time.Minute)
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit check failed: %v", err)
	}
	if !allowed {
		return 0, 0, models.ErrRateLimited
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	session, err := e.activeSession(userID, sessionID, models.GameTypeDragon)
	if err != nil {
		return 0, 0, err
	}

	payout := models.Payout(session.Bet, session.Multiplier)
	if err := e.finishSession(session, models.SessionStatusCashedOut, payout); err != nil {
		return 0, 0, err
	}

	balance, err := e.ledger.Balance(userID)
	if err != nil {
		return payout, 0, nil
	}
	return payout, balance, nil
}
