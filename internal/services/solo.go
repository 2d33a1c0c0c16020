package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/models"
)

// BalanceNotifier pushes balance changes out over the realtime channel.
type BalanceNotifier interface {
	NotifyBalance(userID string, balance int64)
}

// SoloEngine is the game session controller for the single-player
// games. It holds the hidden outcome server-side, computes the live
// multiplier and enforces one active session per (user, game).
type SoloEngine struct {
	store  *RedisService
	ledger *Ledger

	serverSeed    string
	naturalPayout float64
	notifier      BalanceNotifier
	notifierMu    sync.RWMutex
	sessionLocks  sync.Map // session id -> *sync.Mutex
	log           *logrus.Entry
}

func NewSoloEngine(store *RedisService, ledger *Ledger, naturalPayout float64) (*SoloEngine, error) {
	serverSeed, err := deck.NewSeed()
	if err != nil {
		return nil, err
	}

	return &SoloEngine{
		store:         store,
		ledger:        ledger,
		serverSeed:    serverSeed,
		naturalPayout: naturalPayout,
		log:           logrus.WithField("component", "solo"),
	}, nil
}

func (e *SoloEngine) SetNotifier(n BalanceNotifier) {
	e.notifierMu.Lock()
	e.notifier = n
	e.notifierMu.Unlock()
}

func (e *SoloEngine) notifyBalance(userID string, balance int64) {
	e.notifierMu.RLock()
	n := e.notifier
	e.notifierMu.RUnlock()
	if n != nil {
		n.NotifyBalance(userID, balance)
	}
}

// lockSession serializes mutations of one session; different sessions
// proceed in parallel.
func (e *SoloEngine) lockSession(sessionID string) func() {
	v, _ := e.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return func() {
		mu.Unlock()
	}
}

func (e *SoloEngine) dropSessionLock(sessionID string) {
	e.sessionLocks.Delete(sessionID)
}

// ServerHash is the public commitment to the current server seed.
func (e *SoloEngine) ServerHash() string {
	hash := sha256.Sum256([]byte(e.serverSeed))
	return hex.EncodeToString(hash[:])
}

// Commitment derives the hidden-layout seed for one session. Because
// the layout is computed directly from it, only its hash may be shown
// while the session is live; the value itself is released once the
// session ends so the player can re-derive the layout.
func Commitment(serverSeed string, gameType models.GameType, clientSeed string, nonce int64) string {
	h := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(h, "%s:%s:%d", gameType, clientSeed, nonce)
	return hex.EncodeToString(h.Sum(nil))
}

// startSession runs the shared opening sequence: rate limit, debit the
// bet, claim the one-active-session slot, advance the fairness nonce.
func (e *SoloEngine) startSession(userID string, gameType models.GameType, bet int64) (*models.SoloSession, error) {
	allowed, err := e.store.CheckRateLimit(userID, "bet", DefaultRateLimitBets, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %v", err)
	}
	if !allowed {
		return nil, models.ErrRateLimited
	}

	wallet, err := e.store.GetWallet(userID)
	if err != nil {
		return nil, err
	}

	session := &models.SoloSession{
		ID:         models.GenerateSessionID(),
		UserID:     userID,
		GameType:   gameType,
		Bet:        bet,
		Status:     models.SessionStatusActive,
		Multiplier: 1.0,
		ClientSeed: wallet.ClientSeed,
		Nonce:      wallet.Nonce,
		Commitment: Commitment(e.serverSeed, gameType, wallet.ClientSeed, wallet.Nonce),
		CreatedAt:  time.Now().Unix(),
	}

	balance, err := e.ledger.Bet(userID, bet, session.ID)
	if err != nil {
		return nil, err
	}

	if err := e.store.ClaimActiveSolo(userID, gameType, session.ID); err != nil {
		if balance, rerr := e.ledger.Refund(userID, bet, session.ID); rerr == nil {
			e.notifyBalance(userID, balance)
		}
		return nil, err
	}

	wallet.Nonce++
	if err := e.store.SaveWallet(wallet); err != nil {
		e.log.WithError(err).WithField("user_id", userID).Warn("failed to advance nonce")
	}

	e.notifyBalance(userID, balance)
	return session, nil
}

// finishSession terminates a session, paying out payout (0 on loss).
func (e *SoloEngine) finishSession(session *models.SoloSession, status models.SessionStatus, payout int64) error {
	session.Status = status
	session.Payout = payout
	session.EndedAt = time.Now().Unix()

	if err := e.store.SaveSoloSession(session); err != nil {
		return err
	}

	// Credit before teardown: if the credit fails, the terminal session
	// still records the payout owed and can be retried, instead of the
	// money silently vanishing.
	if payout > 0 {
		balance, err := e.ledger.Win(session.UserID, payout, session.ID)
		if err != nil {
			return err
		}
		e.notifyBalance(session.UserID, balance)
	}

	if err := e.store.ReleaseActiveSolo(session.UserID, session.GameType); err != nil {
		return err
	}
	if err := e.store.CompleteSoloSession(session.UserID, session.ID); err != nil {
		e.log.WithError(err).WithField("session_id", session.ID).Warn("failed to archive session")
	}

	e.dropSessionLock(session.ID)

	e.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
		"game":       session.GameType,
		"status":     status,
		"payout":     payout,
	}).Info("solo session finished")

	return nil
}

// activeSession loads a session and checks ownership and liveness.
// Terminated or foreign sessions surface as SessionNotFound so a
// replayed cashout can never pay twice.
func (e *SoloEngine) activeSession(userID, sessionID string, gameType models.GameType) (*models.SoloSession, error) {
	session, err := e.store.GetSoloSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID || session.GameType != gameType {
		return nil, models.ErrSessionNotFound
	}
	if session.Status != models.SessionStatusActive {
		return nil, models.ErrSessionNotFound
	}
	return session, nil
}

// ActiveSessions returns the caller's live sessions across game types.
func (e *SoloEngine) ActiveSessions(userID string) ([]*models.SoloSession, error) {
	var sessions []*models.SoloSession
	for _, gt := range []models.GameType{
		models.GameTypeMines, models.GameTypeDragon, models.GameTypeBlackjack,
	} {
		id, err := e.store.GetActiveSolo(userID, gt)
		if err != nil || id == "" {
			continue
		}
		session, err := e.store.GetSoloSession(id)
		if err == nil && session.Status == models.SessionStatusActive {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

func (e *SoloEngine) GetVerificationData(userID string) (*models.VerificationData, error) {
	wallet, err := e.store.GetWallet(userID)
	if err != nil {
		return nil, err
	}

	return &models.VerificationData{
		ClientSeed:   wallet.ClientSeed,
		ServerHash:   e.ServerHash(),
		CurrentNonce: wallet.Nonce,
	}, nil
}

// VerifyOutcome recomputes a finished session's hidden layout from the
// revealed seeds so a player can audit it.
func (e *SoloEngine) VerifyOutcome(req *models.VerifyRequest) (map[string]interface{}, error) {
	gameType := models.GameType(req.GameType)
	commitment := Commitment(req.ServerSeed, gameType, req.ClientSeed, req.Nonce)

	out := map[string]interface{}{
		"commitment": commitment,
	}

	switch gameType {
	case models.GameTypeMines:
		// Layouts for every mine count, since the count is not part
		// of the commitment input.
		layouts := make(map[int][]int)
		for m := 1; m <= 24; m++ {
			layouts[m] = minesLayout(commitment, m)
		}
		out["mine_layouts"] = layouts
	case models.GameTypeDragon:
		paths := make(map[string][][]int)
		for _, tier := range []string{"easy", "medium", "hard"} {
			paths[tier] = dragonPath(commitment, tier)
		}
		out["safe_paths"] = paths
	case models.GameTypeKeno:
		out["drawn"] = kenoDraw(commitment)
	case models.GameTypeBlackjack:
		d := deck.NewSeeded(commitment)
		out["deck"] = d.Cards()
	default:
		return nil, fmt.Errorf("unknown game type: %s", req.GameType)
	}

	return out, nil
}
