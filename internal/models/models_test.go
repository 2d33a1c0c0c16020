package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumble-backend/internal/models"
)

func TestNewWallet(t *testing.T) {
	wallet, err := models.NewWallet("user_1", 10000)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), wallet.Balance)
	assert.Equal(t, int64(0), wallet.InPlay)
	assert.NotEmpty(t, wallet.ClientSeed)
	assert.Equal(t, int64(0), wallet.Nonce)

	other, err := models.NewWallet("user_2", 10000)
	require.NoError(t, err)
	assert.NotEqual(t, wallet.ClientSeed, other.ClientSeed)
}

func TestPayoutRoundsDown(t *testing.T) {
	// 333 * 1.5 = 499.5; the fractional cent goes to the house.
	assert.Equal(t, int64(499), models.Payout(333, 1.5))
	assert.Equal(t, int64(2000), models.Payout(1000, 2.0))
	assert.Equal(t, int64(0), models.Payout(1000, 0))
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$10.00", models.FormatCurrency(1000))
	assert.Equal(t, "$0.05", models.FormatCurrency(5))
	assert.Equal(t, "$123.45", models.FormatCurrency(12345))
}

func TestGeneratedIDs(t *testing.T) {
	a := models.GenerateSessionID()
	b := models.GenerateSessionID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)

	tx := models.GenerateTransactionID()
	assert.NotEqual(t, a, tx)
}
