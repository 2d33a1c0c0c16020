package services

import (
	"fmt"
	"time"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/evaluator"
	"gumble-backend/internal/models"
)

// minesLayout derives the mine positions on the 25-tile grid from the
// session's commitment seed.
func minesLayout(seed string, minesCount int) []int {
	return deck.Perm(seed, evaluator.MinesGridSize)[:minesCount]
}

type MinesRevealResult struct {
	SessionID  string  `json:"session_id"`
	Tile       int     `json:"tile"`
	IsMine     bool    `json:"is_mine"`
	Multiplier float64 `json:"multiplier"`
	Revealed   []int   `json:"revealed"`
	GameOver   bool    `json:"game_over"`
	// Mines is populated only once the session is over.
	Mines  []int `json:"mines,omitempty"`
	Payout int64 `json:"payout,omitempty"`
}

func (e *SoloEngine) StartMines(userID string, bet int64, minesCount int) (*models.SoloSession, error) {
	session, err := e.startSession(userID, models.GameTypeMines, bet)
	if err != nil {
		return nil, err
	}

	session.MinesCount = minesCount
	session.MinePositions = minesLayout(session.Commitment, minesCount)
	session.Revealed = []int{}

	if err := e.store.SaveSoloSession(session); err != nil {
		return nil, err
	}
	return session, nil
}

// RevealMine checks one tile against the hidden layout. The layout is
// only transmitted once the session has ended.
func (e *SoloEngine) RevealMine(userID, sessionID string, tile int) (*MinesRevealResult, error) {
	allowed, err := e.store.CheckRateLimit(userID, "reveal", DefaultRateLimitReveals, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %v", err)
	}
	if !allowed {
		return nil, models.ErrRateLimited
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	session, err := e.activeSession(userID, sessionID, models.GameTypeMines)
	if err != nil {
		return nil, err
	}

	for _, r := range session.Revealed {
		if r == tile {
			return nil, models.ErrStaleAction
		}
	}

	result := &MinesRevealResult{
		SessionID: session.ID,
		Tile:      tile,
	}

	for _, m := range session.MinePositions {
		if m == tile {
			result.IsMine = true
			break
		}
	}

	session.Revealed = append(session.Revealed, tile)

	if result.IsMine {
		session.Multiplier = 0
		result.Multiplier = 0
		result.GameOver = true
		result.Mines = session.MinePositions
		result.Revealed = session.Revealed
		if err := e.finishSession(session, models.SessionStatusLost, 0); err != nil {
			return nil, err
		}
		return result, nil
	}

	safeReveals := len(session.Revealed)
	session.Multiplier = evaluator.MinesMultiplier(session.MinesCount, safeReveals)
	result.Multiplier = session.Multiplier
	result.Revealed = session.Revealed

	// No safe tile left to pick: auto-cashout at the full board
	// multiplier rather than forcing a click on a known mine.
	if safeReveals >= evaluator.MaxSafeReveals(session.MinesCount) {
		payout := models.Payout(session.Bet, session.Multiplier)
		result.GameOver = true
		result.Mines = session.MinePositions
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

func (e *SoloEngine) CashoutMines(userID, sessionID string) (int64, int64, error) {
	allowed, err := e.store.CheckRateLimit(userID, "cashout", DefaultRateLimitCashout, time.Minute)
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit check failed: %v", err)
	}
	if !allowed {
		return 0, 0, models.ErrRateLimited
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	session, err := e.activeSession(userID, sessionID, models.GameTypeMines)
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
