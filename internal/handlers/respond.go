package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gumble-backend/internal/models"
)

// serviceError maps domain errors onto HTTP responses so every handler
// speaks the same error dialect.
func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, models.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
	case errors.Is(err, models.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
	case errors.Is(err, models.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "Insufficient funds"})
	case errors.Is(err, models.ErrInsufficientStack):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stack cannot cover that raise"})
	case errors.Is(err, models.ErrInvalidBuyIn):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Buy-in must be positive"})
	case errors.Is(err, models.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, slow down"})
	case errors.Is(err, models.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Game session not found"})
	case errors.Is(err, models.ErrSessionActive):
		c.JSON(http.StatusConflict, gin.H{"error": "A game of this type is already in progress"})
	case errors.Is(err, models.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Table not found"})
	case errors.Is(err, models.ErrTableFull):
		c.JSON(http.StatusConflict, gin.H{"error": "Table is full"})
	case errors.Is(err, models.ErrNotSeated):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Not seated at this table"})
	case errors.Is(err, models.ErrNotYourTurn):
		c.JSON(http.StatusConflict, gin.H{"error": "Not your turn"})
	case errors.Is(err, models.ErrStaleAction):
		c.JSON(http.StatusConflict, gin.H{"error": "Action no longer valid"})
	case errors.Is(err, models.ErrDeckExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": "Deck exhausted, hand voided and refunded"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// sessionSummary is the wire-safe slice of a solo session. Hidden
// layout fields are included only for sessions that already ended.
// The commitment doubles as the layout seed, so a live session only
// gets its hash; the preimage comes out at settlement for auditing.
func sessionSummary(s *models.SoloSession) gin.H {
	out := gin.H{
		"id":          s.ID,
		"game_type":   s.GameType,
		"bet":         s.Bet,
		"status":      s.Status,
		"multiplier":  s.Multiplier,
		"payout":      s.Payout,
		"client_seed": s.ClientSeed,
		"nonce":       s.Nonce,
		"created_at":  s.CreatedAt,
	}

	if s.Status == models.SessionStatusActive {
		sum := sha256.Sum256([]byte(s.Commitment))
		out["commitment_hash"] = hex.EncodeToString(sum[:])
	} else {
		out["commitment"] = s.Commitment
	}

	switch s.GameType {
	case models.GameTypeMines:
		out["mines_count"] = s.MinesCount
		out["revealed"] = s.Revealed
	case models.GameTypeDragon:
		out["tier"] = s.Tier
		out["row"] = s.Row
	case models.GameTypeKeno:
		out["picks"] = s.Picks
	case models.GameTypeBlackjack:
		out["player_hand"] = s.PlayerHand
	}

	if s.Status != models.SessionStatusActive {
		out["ended_at"] = s.EndedAt
		switch s.GameType {
		case models.GameTypeMines:
			out["mine_positions"] = s.MinePositions
		case models.GameTypeDragon:
			out["safe_path"] = s.SafePath
		case models.GameTypeKeno:
			out["drawn"] = s.Drawn
		case models.GameTypeBlackjack:
			out["dealer_hand"] = s.DealerHand
		}
	}

	return out
}
