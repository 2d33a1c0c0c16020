package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

func GenerateSessionID() string {
	return fmt.Sprintf("sess_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateTransactionID() string {
	return fmt.Sprintf("tx_%s_%d",
		time.Now().Format("20060102"),
		uuid.New().ID())
}

func GenerateClientSeed() (string, error) {
	bytes := make([]byte, 16) // 128 bits of entropy
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate client seed: %v", err)
	}
	return hex.EncodeToString(bytes), nil
}

func NewWallet(userID string, startingBalance int64) (*Wallet, error) {
	clientSeed, err := GenerateClientSeed()
	if err != nil {
		return nil, err
	}

	return &Wallet{
		UserID:     userID,
		Balance:    startingBalance,
		ClientSeed: clientSeed,
		Nonce:      0,
	}, nil
}

// Payout rounds down so fractional cents always favor the house.
func Payout(bet int64, multiplier float64) int64 {
	return int64(float64(bet) * multiplier)
}

func FormatCurrency(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
