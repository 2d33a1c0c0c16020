package services

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"gumble-backend/internal/config"
	"gumble-backend/internal/models"
)

// AuthService binds stable identities (password or federated) to the
// transient JWT sessions the gateway hands out.
type AuthService struct {
	store *RedisService
	jwt   *JWTService

	federatedIssuer   string
	federatedAudience string
	federatedKey      *rsa.PublicKey
}

func NewAuthService(store *RedisService, jwtService *JWTService, cfg *config.Config) (*AuthService, error) {
	svc := &AuthService{
		store:             store,
		jwt:               jwtService,
		federatedIssuer:   cfg.FederatedIssuer,
		federatedAudience: cfg.FederatedAudience,
	}

	if cfg.FederatedPublicKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.FederatedPublicKey))
		if err != nil {
			return nil, fmt.Errorf("invalid federated public key: %v", err)
		}
		svc.federatedKey = key
	}

	return svc, nil
}

func (a *AuthService) Register(username, password string) (*models.AuthResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	now := time.Now().Unix()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.store.CreateUser(user); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user registered")

	return a.issueSession(user)
}

func (a *AuthService) Login(username, password string) (*models.AuthResponse, error) {
	user, err := a.store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) || errors.Is(err, redis.Nil) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.Deactivated || user.PasswordHash == "" {
		return nil, models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	return a.issueSession(user)
}

// Federated verifies an identity assertion against the issuer's public
// key and maps its subject to a local user, creating one on first login.
func (a *AuthService) Federated(tokenString string) (*models.AuthResponse, error) {
	if a.federatedKey == nil {
		return nil, models.ErrInvalidToken
	}

	type federatedClaims struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		jwt.RegisteredClaims
	}

	token, err := jwt.ParseWithClaims(tokenString, &federatedClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.federatedKey, nil
	}, jwt.WithIssuer(a.federatedIssuer), jwt.WithAudience(a.federatedAudience))
	if err != nil {
		return nil, models.ErrInvalidToken
	}

	claims, ok := token.Claims.(*federatedClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, models.ErrInvalidToken
	}

	user, err := a.store.GetUserByFederatedSubject(claims.Subject)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, err
		}
		user, err = a.createFederatedUser(claims.Subject, claims.Name, claims.Email)
		if err != nil {
			return nil, err
		}
	}

	if user.Deactivated {
		return nil, models.ErrInvalidToken
	}

	return a.issueSession(user)
}

func (a *AuthService) createFederatedUser(subject, name, email string) (*models.User, error) {
	username := name
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if username == "" {
		username = "player"
	}

	now := time.Now().Unix()
	user := &models.User{
		ID:               uuid.New().String(),
		Username:         username,
		FederatedSubject: subject,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := a.store.CreateUser(user)
	for errors.Is(err, models.ErrUsernameTaken) {
		user.Username = fmt.Sprintf("%s_%d", username, uuid.New().ID()%10000)
		err = a.store.CreateUser(user)
	}
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("federated user created")

	return user, nil
}

func (a *AuthService) issueSession(user *models.User) (*models.AuthResponse, error) {
	sessionID := uuid.New().String()

	session := &models.UserSession{
		SessionID:    sessionID,
		UserID:       user.ID,
		Username:     user.Username,
		CreatedAt:    time.Now().Unix(),
		LastAccessed: time.Now().Unix(),
	}

	if err := a.store.StoreUserSession(session, TTLUserSession); err != nil {
		return nil, fmt.Errorf("failed to store session: %v", err)
	}

	token, err := a.jwt.GenerateToken(user.ID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %v", err)
	}

	wallet, err := a.store.GetWallet(user.ID)
	if err != nil {
		return nil, err
	}

	return &models.AuthResponse{
		Token: token,
		User: models.AuthUser{
			ID:       user.ID,
			Username: user.Username,
			Balance:  wallet.Balance,
		},
	}, nil
}
