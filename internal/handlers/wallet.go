package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gumble-backend/internal/models"
	"gumble-backend/internal/services"
)

type WalletHandler struct {
	redisService *services.RedisService
	ledger       *services.Ledger
}

func NewWalletHandler(redisService *services.RedisService, ledger *services.Ledger) *WalletHandler {
	return &WalletHandler{
		redisService: redisService,
		ledger:       ledger,
	}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := c.GetString("user_id")

	wallet, err := h.redisService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"balance":       wallet.Balance,
		"in_play":       wallet.InPlay,
		"total_wagered": wallet.TotalWagered,
		"total_won":     wallet.TotalWon,
		"formatted":     models.FormatCurrency(wallet.Balance),
	})
}

// Transfer handles deposits and withdrawals. Amounts are cents.
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.WalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	var balance int64
	var err error
	switch req.Type {
	case "deposit":
		balance, err = h.ledger.Deposit(userID, req.Amount)
	case "withdraw":
		balance, err = h.ledger.Withdraw(userID, req.Amount)
	}
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"type":    req.Type,
		"amount":  req.Amount,
		"balance": balance,
	})
}

func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID := c.GetString("user_id")

	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	transactions, err := h.redisService.GetUserTransactions(userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// UpdateClientSeed rotates the provably-fair client seed. The nonce
// keeps counting so no (seed, nonce) pair ever repeats.
func (h *WalletHandler) UpdateClientSeed(c *gin.Context) {
	userID := c.GetString("user_id")

	var req models.ClientSeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	wallet, err := h.redisService.GetWallet(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wallet"})
		return
	}

	wallet.ClientSeed = req.ClientSeed
	if err := h.redisService.SaveWallet(wallet); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save wallet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_seed": wallet.ClientSeed,
		"nonce":       wallet.Nonce,
	})
}
