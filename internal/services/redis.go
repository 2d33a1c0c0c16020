package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gumble-backend/internal/config"
	"gumble-backend/internal/models"
)

type RedisService struct {
	client *redis.Client
	ctx    context.Context

	startingBalance int64
}

func NewRedisService(cfg *config.Config) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisService{
		client:          client,
		ctx:             ctx,
		startingBalance: cfg.StartingBalance,
	}, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// --- users ---

// CreateUser reserves the username index first so two concurrent
// registrations cannot both succeed.
func (s *RedisService) CreateUser(user *models.User) error {
	indexKey := fmt.Sprintf(KeyUsernameIndex, user.Username)

	ok, err := s.client.SetNX(s.ctx, indexKey, user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve username: %v", err)
	}
	if !ok {
		return models.ErrUsernameTaken
	}

	if err := s.SaveUser(user); err != nil {
		s.client.Del(s.ctx, indexKey)
		return err
	}

	if user.FederatedSubject != "" {
		fedKey := fmt.Sprintf(KeyFederatedIndex, user.FederatedSubject)
		if err := s.client.Set(s.ctx, fedKey, user.ID, 0).Err(); err != nil {
			return fmt.Errorf("failed to index federated subject: %v", err)
		}
	}

	return nil
}

// storedUser is the persisted form. The API model hides the credential
// fields from JSON, so the store carries them explicitly.
type storedUser struct {
	models.User
	PasswordHash     string `json:"password_hash,omitempty"`
	FederatedSubject string `json:"federated_subject,omitempty"`
}

func (s *RedisService) SaveUser(user *models.User) error {
	key := fmt.Sprintf(KeyUserInfo, user.ID)

	data, err := json.Marshal(storedUser{
		User:             *user,
		PasswordHash:     user.PasswordHash,
		FederatedSubject: user.FederatedSubject,
	})
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

func (s *RedisService) GetUser(userID string) (*models.User, error) {
	key := fmt.Sprintf(KeyUserInfo, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var stored storedUser
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, err
	}
	user := stored.User
	user.PasswordHash = stored.PasswordHash
	user.FederatedSubject = stored.FederatedSubject
	return &user, nil
}

func (s *RedisService) GetUserByUsername(username string) (*models.User, error) {
	indexKey := fmt.Sprintf(KeyUsernameIndex, username)

	userID, err := s.client.Get(s.ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	return s.GetUser(userID)
}

func (s *RedisService) GetUserByFederatedSubject(subject string) (*models.User, error) {
	indexKey := fmt.Sprintf(KeyFederatedIndex, subject)

	userID, err := s.client.Get(s.ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, redis.Nil
	}
	if err != nil {
		return nil, err
	}

	return s.GetUser(userID)
}

// --- auth sessions ---

func (s *RedisService) StoreUserSession(session *models.UserSession, expiry time.Duration) error {
	key := fmt.Sprintf(KeyUserSession, session.UserID, session.SessionID)

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(s.ctx, key, data, expiry).Err()
}

func (s *RedisService) GetUserSession(userID, sessionID string) (*models.UserSession, error) {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var session models.UserSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}

	session.LastAccessed = time.Now().Unix()
	updatedData, _ := json.Marshal(session)
	s.client.Set(s.ctx, key, updatedData, TTLUserSession)

	return &session, nil
}

func (s *RedisService) DeleteUserSession(userID, sessionID string) error {
	key := fmt.Sprintf(KeyUserSession, userID, sessionID)
	return s.client.Del(s.ctx, key).Err()
}

// --- wallets ---

func (s *RedisService) GetWallet(userID string) (*models.Wallet, error) {
	key := fmt.Sprintf(KeyWallet, userID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		wallet, werr := models.NewWallet(userID, s.startingBalance)
		if werr != nil {
			return nil, werr
		}
		if err := s.SaveWallet(wallet); err != nil {
			return nil, fmt.Errorf("failed to create wallet: %v", err)
		}
		return wallet, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %v", err)
	}

	var wallet models.Wallet
	if err := json.Unmarshal([]byte(data), &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %v", err)
	}

	return &wallet, nil
}

func (s *RedisService) SaveWallet(wallet *models.Wallet) error {
	key := fmt.Sprintf(KeyWallet, wallet.UserID)

	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %v", err)
	}

	return s.client.Set(s.ctx, key, data, 0).Err()
}

// --- solo game sessions ---

func (s *RedisService) SaveSoloSession(session *models.SoloSession) error {
	key := fmt.Sprintf(KeySoloSession, session.ID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %v", err)
	}

	return s.client.Set(s.ctx, key, data, TTLSoloSession).Err()
}

func (s *RedisService) GetSoloSession(sessionID string) (*models.SoloSession, error) {
	key := fmt.Sprintf(KeySoloSession, sessionID)

	data, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %v", err)
	}

	var session models.SoloSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %v", err)
	}

	return &session, nil
}

// ClaimActiveSolo enforces at most one active session per (user, game).
func (s *RedisService) ClaimActiveSolo(userID string, gameType models.GameType, sessionID string) error {
	key := fmt.Sprintf(KeyUserActiveSolo, userID, gameType)

	ok, err := s.client.SetNX(s.ctx, key, sessionID, TTLSoloSession).Result()
	if err != nil {
		return fmt.Errorf("failed to claim active session: %v", err)
	}
	if !ok {
		return models.ErrSessionActive
	}
	return nil
}

func (s *RedisService) GetActiveSolo(userID string, gameType models.GameType) (string, error) {
	key := fmt.Sprintf(KeyUserActiveSolo, userID, gameType)

	sessionID, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return sessionID, err
}

func (s *RedisService) ReleaseActiveSolo(userID string, gameType models.GameType) error {
	key := fmt.Sprintf(KeyUserActiveSolo, userID, gameType)
	return s.client.Del(s.ctx, key).Err()
}

// CompleteSoloSession moves a session into the user's history set.
func (s *RedisService) CompleteSoloSession(userID, sessionID string) error {
	completedKey := fmt.Sprintf(KeyUserCompletedGames, userID)
	// Millisecond scores keep bursts of finished games in order.
	score := float64(time.Now().UnixMilli())
	if err := s.client.ZAdd(s.ctx, completedKey, redis.Z{
		Score:  score,
		Member: sessionID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to completed games: %v", err)
	}

	// Keep only the last 100
	s.client.ZRemRangeByRank(s.ctx, completedKey, 0, -101)

	return nil
}

func (s *RedisService) GetGameHistory(userID string, limit int64) ([]*models.SoloSession, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	completedKey := fmt.Sprintf(KeyUserCompletedGames, userID)

	sessionIDs, err := s.client.ZRevRange(s.ctx, completedKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %v", err)
	}

	var sessions []*models.SoloSession
	for _, id := range sessionIDs {
		session, err := s.GetSoloSession(id)
		if err != nil {
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// --- transactions ---

func (s *RedisService) SaveTransaction(tx *models.Transaction) error {
	txKey := fmt.Sprintf(KeyTransaction, tx.ID)

	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %v", err)
	}

	if err := s.client.Set(s.ctx, txKey, data, TTLTransaction).Err(); err != nil {
		return fmt.Errorf("failed to save transaction: %v", err)
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, tx.UserID)
	if err := s.client.ZAdd(s.ctx, userTxKey, redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: tx.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to user transactions: %v", err)
	}

	s.client.ZRemRangeByRank(s.ctx, userTxKey, 0, -101)

	return nil
}

func (s *RedisService) GetUserTransactions(userID string, limit int64) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	userTxKey := fmt.Sprintf(KeyUserTransactions, userID)

	txIDs, err := s.client.ZRevRange(s.ctx, userTxKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction IDs: %v", err)
	}

	var transactions []*models.Transaction
	for _, txID := range txIDs {
		txKey := fmt.Sprintf(KeyTransaction, txID)

		data, err := s.client.Get(s.ctx, txKey).Result()
		if err != nil {
			continue
		}

		var tx models.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			continue
		}

		transactions = append(transactions, &tx)
	}

	return transactions, nil
}

// --- rate limiting ---

func (s *RedisService) CheckRateLimit(userID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, userID, action)

	count, err := s.client.Incr(s.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, key, window)
	}

	return count <= int64(limit), nil
}

// --- test helpers ---

func (s *RedisService) DeleteWallet(userID string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyWallet, userID)).Err()
}

func (s *RedisService) DeleteSoloSession(sessionID string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeySoloSession, sessionID)).Err()
}

func (s *RedisService) ClearRateLimit(userID, action string) error {
	return s.client.Del(s.ctx, fmt.Sprintf(KeyRateLimit, userID, action)).Err()
}

func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
