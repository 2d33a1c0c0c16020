package services_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gumble-backend/internal/config"
	"gumble-backend/internal/models"
	"gumble-backend/internal/services"
)

func setupAuth(t *testing.T) (*services.AuthService, *services.JWTService, *services.RedisService) {
	t.Helper()
	store := setupTestRedis(t)
	cfg := &config.Config{
		JWTSecret: "test-secret",
		JWTExpiry: time.Hour,
	}
	jwtService := services.NewJWTService(cfg)
	authService, err := services.NewAuthService(store, jwtService, cfg)
	require.NoError(t, err)
	return authService, jwtService, store
}

func TestRegisterAndLogin(t *testing.T) {
	auth, jwtService, store := setupAuth(t)
	username := fmt.Sprintf("tester_%d", uuid.New().ID())

	resp, err := auth.Register(username, "hunter22")
	require.NoError(t, err)
	t.Cleanup(func() { store.DeleteWallet(resp.User.ID) })

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, username, resp.User.Username)
	assert.Equal(t, int64(10000), resp.User.Balance, "new accounts get the starting balance")

	claims, err := jwtService.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	// The same username cannot register twice.
	_, err = auth.Register(username, "other-password")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	login, err := auth.Login(username, "hunter22")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = auth.Login(username, "wrong-password")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = auth.Login("no_such_user_ever", "whatever")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestPasswordHashNeverSerialized(t *testing.T) {
	auth, _, store := setupAuth(t)
	username := fmt.Sprintf("tester_%d", uuid.New().ID())

	resp, err := auth.Register(username, "hunter22")
	require.NoError(t, err)
	t.Cleanup(func() { store.DeleteWallet(resp.User.ID) })

	// The stored record keeps the hash for login, but the API model
	// excludes it from JSON.
	user, err := store.GetUser(resp.User.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
}

func TestJWTValidation(t *testing.T) {
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}
	jwtService := services.NewJWTService(cfg)

	token, err := jwtService.GenerateToken("user_1", "sess_1")
	require.NoError(t, err)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.UserID)
	assert.Equal(t, "sess_1", claims.SessionID)

	_, err = jwtService.ValidateToken(token + "tampered")
	assert.ErrorIs(t, err, models.ErrInvalidToken)

	otherCfg := &config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour}
	other := services.NewJWTService(otherCfg)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, models.ErrInvalidToken)
}
