package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/evaluator"
	"gumble-backend/internal/models"
)

// BlackjackState is the player-facing view of a hand. DealerHand is
// already filtered: the hole card is the concealed sentinel until the
// hand ends.
type BlackjackState struct {
	SessionID   string      `json:"session_id"`
	PlayerHand  []deck.Card `json:"player_hand"`
	DealerHand  []deck.Card `json:"dealer_hand"`
	PlayerScore int         `json:"player_score"`
	DealerScore int         `json:"dealer_score,omitempty"` // only once resolved
	Natural     bool        `json:"natural,omitempty"`
	Status      string      `json:"status"` // playing, won, lost, push
	Payout      int64       `json:"payout,omitempty"`
}

// DealBlackjack opens a hand: player, dealer, player, dealer. Naturals
// resolve immediately; the natural premium comes from config (3:2 by
// default).
func (e *SoloEngine) DealBlackjack(userID string, bet int64) (*BlackjackState, error) {
	session, err := e.startSession(userID, models.GameTypeBlackjack, bet)
	if err != nil {
		return nil, err
	}

	d := deck.NewSeeded(session.Commitment)
	cards, err := d.Draw(4)
	if err != nil {
		return nil, err
	}

	session.PlayerHand = []deck.Card{cards[0], cards[2]}
	session.DealerHand = []deck.Card{cards[1], cards[3]}
	session.DeckSeed = session.Commitment
	session.DeckState = d.Cards()

	playerNatural := evaluator.IsNatural(session.PlayerHand)
	dealerNatural := evaluator.IsNatural(session.DealerHand)

	switch {
	case playerNatural && dealerNatural:
		// Push: stake back.
		if err := e.finishSession(session, models.SessionStatusCashedOut, session.Bet); err != nil {
			return nil, err
		}
		return e.blackjackState(session, "push"), nil
	case playerNatural:
		payout := session.Bet + models.Payout(session.Bet, e.naturalPayout)
		session.Multiplier = 1 + e.naturalPayout
		if err := e.finishSession(session, models.SessionStatusWon, payout); err != nil {
			return nil, err
		}
		state := e.blackjackState(session, "won")
		state.Natural = true
		return state, nil
	case dealerNatural:
		if err := e.finishSession(session, models.SessionStatusLost, 0); err != nil {
			return nil, err
		}
		return e.blackjackState(session, "lost"), nil
	}

	if err := e.store.SaveSoloSession(session); err != nil {
		return nil, err
	}
	return e.blackjackState(session, "playing"), nil
}

// BlackjackAction applies hit, stand or double to a live hand.
func (e *SoloEngine) BlackjackAction(userID, sessionID, action string) (*BlackjackState, error) {
	allowed, err := e.store.CheckRateLimit(userID, "reveal", DefaultRateLimitReveals, time.Minute)
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %v", err)
	}
	if !allowed {
		return nil, models.ErrRateLimited
	}

	unlock := e.lockSession(sessionID)
	defer unlock()

	session, err := e.activeSession(userID, sessionID, models.GameTypeBlackjack)
	if err != nil {
		return nil, err
	}

	d := deck.Resume(session.DeckSeed, session.DeckState)

	switch action {
	case "hit":
		return e.blackjackHit(session, d)
	case "stand":
		return e.blackjackResolve(session, d)
	case "double":
		return e.blackjackDouble(session, d)
	default:
		return nil, fmt.Errorf("unknown action: %s", action)
	}
}

func (e *SoloEngine) blackjackHit(session *models.SoloSession, d *deck.Deck) (*BlackjackState, error) {
	card, err := d.DrawOne()
	if err != nil {
		return e.blackjackAbort(session, err)
	}
	session.PlayerHand = append(session.PlayerHand, card)
	session.DeckState = d.Cards()

	if evaluator.IsBust(session.PlayerHand) {
		if err := e.finishSession(session, models.SessionStatusLost, 0); err != nil {
			return nil, err
		}
		return e.blackjackState(session, "lost"), nil
	}

	if evaluator.BlackjackScore(session.PlayerHand) == 21 {
		return e.blackjackResolve(session, d)
	}

	if err := e.store.SaveSoloSession(session); err != nil {
		return nil, err
	}
	return e.blackjackState(session, "playing"), nil
}

// blackjackDouble doubles the stake, takes exactly one card and stands.
func (e *SoloEngine) blackjackDouble(session *models.SoloSession, d *deck.Deck) (*BlackjackState, error) {
	if session.Doubled || len(session.PlayerHand) != 2 {
		return nil, models.ErrStaleAction
	}

	original := session.Bet
	balance, err := e.ledger.Bet(session.UserID, original, session.ID)
	if err != nil {
		return nil, err
	}
	e.notifyBalance(session.UserID, balance)

	session.Doubled = true
	session.Bet += original

	card, err := d.DrawOne()
	if err != nil {
		return e.blackjackAbort(session, err)
	}
	session.PlayerHand = append(session.PlayerHand, card)
	session.DeckState = d.Cards()

	if evaluator.IsBust(session.PlayerHand) {
		if err := e.finishSession(session, models.SessionStatusLost, 0); err != nil {
			return nil, err
		}
		return e.blackjackState(session, "lost"), nil
	}

	return e.blackjackResolve(session, d)
}

// blackjackResolve plays out the dealer (stands on all 17s) and
// settles.
func (e *SoloEngine) blackjackResolve(session *models.SoloSession, d *deck.Deck) (*BlackjackState, error) {
	for evaluator.BlackjackScore(session.DealerHand) < 17 {
		card, err := d.DrawOne()
		if err != nil {
			return e.blackjackAbort(session, err)
		}
		session.DealerHand = append(session.DealerHand, card)
	}
	session.DeckState = d.Cards()

	playerScore := evaluator.BlackjackScore(session.PlayerHand)
	dealerScore := evaluator.BlackjackScore(session.DealerHand)

	switch {
	case dealerScore > 21 || playerScore > dealerScore:
		session.Multiplier = 2.0
		payout := session.Bet * 2
		if err := e.finishSession(session, models.SessionStatusWon, payout); err != nil {
			return nil, err
		}
		return e.blackjackState(session, "won"), nil
	case playerScore == dealerScore:
		if err := e.finishSession(session, models.SessionStatusCashedOut, session.Bet); err != nil {
			return nil, err
		}
		return e.blackjackState(session, "push"), nil
	default:
		if err := e.finishSession(session, models.SessionStatusLost, 0); err != nil {
			return nil, err
		}
		return e.blackjackState(session, "lost"), nil
	}
}

// blackjackAbort handles a fatal-to-hand condition (deck exhaustion):
// the hand is voided and every committed cent refunded.
func (e *SoloEngine) blackjackAbort(session *models.SoloSession, cause error) (*BlackjackState, error) {
	if !errors.Is(cause, deck.ErrExhausted) {
		return nil, cause
	}

	e.log.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    session.UserID,
	}).Error("deck exhausted mid-hand, refunding")

	session.Status = models.SessionStatusCashedOut
	session.Payout = session.Bet
	session.EndedAt = time.Now().Unix()
	if err := e.store.SaveSoloSession(session); err != nil {
		return nil, err
	}
	if err := e.store.ReleaseActiveSolo(session.UserID, session.GameType); err != nil {
		return nil, err
	}
	e.store.CompleteSoloSession(session.UserID, session.ID)

	balance, err := e.ledger.Refund(session.UserID, session.Bet, session.ID)
	if err != nil {
		return nil, err
	}
	e.notifyBalance(session.UserID, balance)
	e.dropSessionLock(session.ID)

	return nil, models.ErrDeckExhausted
}

// blackjackState builds the filtered view: the dealer hole card stays
// concealed while the hand is live.
func (e *SoloEngine) blackjackState(session *models.SoloSession, status string) *BlackjackState {
	state := &BlackjackState{
		SessionID:   session.ID,
		PlayerHand:  session.PlayerHand,
		PlayerScore: evaluator.BlackjackScore(session.PlayerHand),
		Status:      status,
		Payout:      session.Payout,
	}

	if status == "playing" {
		state.DealerHand = []deck.Card{session.DealerHand[0], deck.Concealed}
	} else {
		state.DealerHand = session.DealerHand
		state.DealerScore = evaluator.BlackjackScore(session.DealerHand)
	}

	return state
}
