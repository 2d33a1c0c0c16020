package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gumble-backend/internal/models"
	"gumble-backend/internal/services"
)

type GameHandler struct {
	engine       *services.SoloEngine
	redisService *services.RedisService
}

func NewGameHandler(engine *services.SoloEngine, redisService *services.RedisService) *GameHandler {
	return &GameHandler{
		engine:       engine,
		redisService: redisService,
	}
}

// --- blackjack ---

func (h *GameHandler) BlackjackDeal(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.BlackjackDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	state, err := h.engine.DealBlackjack(userID, req.Bet)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "game": state})
}

func (h *GameHandler) BlackjackAction(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.BlackjackActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	state, err := h.engine.BlackjackAction(userID, req.SessionID, req.Action)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "game": state})
}

// --- mines ---

func (h *GameHandler) MinesStart(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.MinesStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	session, err := h.engine.StartMines(userID, req.Bet, req.MinesCount)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "game": sessionSummary(session)})
}

func (h *GameHandler) MinesReveal(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.MinesRevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.engine.RevealMine(userID, req.SessionID, *req.Tile)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

func (h *GameHandler) MinesCashout(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	payout, balance, err := h.engine.CashoutMines(userID, req.SessionID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payout":  payout,
		"balance": balance,
	})
}

// --- dragon tower ---

func (h *GameHandler) DragonStart(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.DragonStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	session, err := h.engine.StartDragon(userID, req.Bet, req.Tier)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "game": sessionSummary(session)})
}

func (h *GameHandler) DragonStep(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.DragonStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.engine.DragonStep(userID, req.SessionID, *req.Choice)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

func (h *GameHandler) DragonCashout(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	payout, balance, err := h.engine.CashoutDragon(userID, req.SessionID)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payout":  payout,
		"balance": balance,
	})
}

// --- keno ---

func (h *GameHandler) KenoPlay(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.KenoPlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := h.engine.PlayKeno(userID, req.Bet, req.Picks)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

// --- sessions, history, fairness ---

// GetActiveSessions lets a reconnecting client resume whatever it had
// open.
func (h *GameHandler) GetActiveSessions(c *gin.Context) {
	userID := c.GetString("user_id")

	sessions, err := h.engine.ActiveSessions(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sessions"})
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary(s))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *GameHandler) GetHistory(c *gin.Context) {
	userID := c.GetString("user_id")

	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	sessions, err := h.redisService.GetGameHistory(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionSummary(s))
	}
	c.JSON(http.StatusOK, gin.H{"games": out})
}

func (h *GameHandler) GetFairness(c *gin.Context) {
	userID := c.GetString("user_id")

	data, err := h.engine.GetVerificationData(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load verification data"})
		return
	}

	c.JSON(http.StatusOK, data)
}

// Verify recomputes a session's hidden layout from the revealed server
// seed so anyone can audit a finished game.
func (h *GameHandler) Verify(c *gin.Context) {
	var req models.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	out, err := h.engine.VerifyOutcome(&req)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, out)
}
