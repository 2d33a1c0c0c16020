package table

import (
	"time"

	"gumble-backend/internal/deck"
)

// PlayerView is one seat as a given recipient is allowed to see it.
type PlayerView struct {
	Seat         int         `json:"seat"`
	UserID       string      `json:"user_id"`
	Username     string      `json:"username"`
	Stack        int64       `json:"stack"`
	CurrentBet   int64       `json:"current_bet"`
	HoleCards    []deck.Card `json:"hole_cards,omitempty"`
	Folded       bool        `json:"folded"`
	AllIn        bool        `json:"all_in"`
	Disconnected bool        `json:"disconnected"`
}

// View is a per-recipient snapshot of the table. It is built fresh for
// every recipient so hidden cards never leave the actor.
type View struct {
	TableID   string       `json:"table_id"`
	TableName string       `json:"table_name"`
	Phase     Phase        `json:"phase"`
	Pot       int64        `json:"pot"`
	Community []deck.Card  `json:"community"`
	Players   []PlayerView `json:"players"`

	DealerSeat int `json:"dealer_seat"`
	TurnSeat   int `json:"turn_seat"`

	SmallBlind int64 `json:"small_blind"`
	BigBlind   int64 `json:"big_blind"`
	HighestBet int64 `json:"highest_bet"`

	SecondsRemaining int      `json:"seconds_remaining,omitempty"`
	Winners          []Winner `json:"winners,omitempty"`
	YourSeat         int      `json:"your_seat"`
}

// viewFor builds the snapshot the given user may see. Hole cards are
// concealed unless they belong to the recipient or the hand reached a
// contested showdown.
func (t *Table) viewFor(userID string) *View {
	v := &View{
		TableID:    t.cfg.ID,
		TableName:  t.cfg.Name,
		Phase:      t.phase,
		Pot:        t.potTotal(),
		Community:  t.community,
		DealerSeat: t.dealerIdx,
		TurnSeat:   t.turnIdx,
		SmallBlind: t.cfg.SmallBlind,
		BigBlind:   t.cfg.BigBlind,
		HighestBet: t.highestBet,
		Winners:    t.winners,
		YourSeat:   t.seatOf(userID),
	}

	if t.handInProgress() && t.turnIdx >= 0 {
		if remaining := time.Until(t.turnDeadline); remaining > 0 {
			v.SecondsRemaining = int(remaining / time.Second)
		}
	}

	for i, s := range t.seats {
		if s == nil {
			continue
		}
		pv := PlayerView{
			Seat:         i,
			UserID:       s.UserID,
			Username:     s.Username,
			Stack:        s.Stack,
			CurrentBet:   s.CurrentBet,
			Folded:       s.Folded,
			AllIn:        s.AllIn,
			Disconnected: s.Disconnected,
		}

		switch {
		case len(s.HoleCards) == 0:
		case s.UserID == userID:
			pv.HoleCards = s.HoleCards
		case t.revealed && !s.Folded:
			pv.HoleCards = s.HoleCards
		default:
			pv.HoleCards = []deck.Card{deck.Concealed, deck.Concealed}
		}

		v.Players = append(v.Players, pv)
	}

	return v
}

// potTotal is the pot plus every live round bet, the number players
// expect to see on the felt.
func (t *Table) potTotal() int64 {
	total := t.pot
	for _, s := range t.seats {
		if s != nil {
			total += s.CurrentBet
		}
	}
	return total
}

// broadcast pushes each connected player their own filtered view.
func (t *Table) broadcast() {
	for _, s := range t.seats {
		if s != nil && !s.Disconnected {
			t.notifier.SendGameState(s.UserID, t.viewFor(s.UserID))
		}
	}
}
