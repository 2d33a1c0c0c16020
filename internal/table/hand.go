package table

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/models"
)

// Everything in this file runs on the table goroutine.

func (t *Table) maybeStartHand() {
	if t.phase != PhaseWaiting {
		return
	}
	if len(t.eligibleSeats()) < t.cfg.MinSeats {
		return
	}
	t.startHand()
}

// eligibleSeats are the positions dealt into the next hand.
func (t *Table) eligibleSeats() []int {
	var out []int
	for i, s := range t.seats {
		if s != nil && s.Stack > 0 && !s.Disconnected {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) startHand() {
	d, err := deck.New()
	if err != nil {
		t.log.WithError(err).Error("failed to shuffle deck")
		return
	}

	eligible := t.eligibleSeats()
	if len(eligible) < t.cfg.MinSeats {
		return
	}

	t.deck = d
	t.community = nil
	t.pot = 0
	t.winners = nil
	t.revealed = false
	t.handID++

	for i, s := range t.seats {
		if s == nil {
			continue
		}
		s.CurrentBet = 0
		s.TotalCommitted = 0
		s.AllIn = false
		s.Acted = false
		s.HoleCards = nil
		// Seats not dealt in sit the hand out as folded.
		s.Folded = !contains(eligible, i)
	}

	t.dealerIdx = t.nextNonFolded(t.dealerIdx)

	// Deal two hole cards to each live seat, starting left of the
	// button.
	pos := t.nextNonFolded(t.dealerIdx)
	for i := 0; i < len(eligible); i++ {
		cards, err := t.deck.Draw(2)
		if err != nil {
			t.abortHand(err)
			return
		}
		t.seats[pos].HoleCards = cards
		pos = t.nextNonFolded(pos)
	}

	sb := t.nextNonFolded(t.dealerIdx)
	bb := t.nextNonFolded(sb)
	t.commit(t.seats[sb], t.cfg.SmallBlind)
	t.commit(t.seats[bb], t.cfg.BigBlind)
	t.highestBet = maxInt64(t.seats[sb].CurrentBet, t.seats[bb].CurrentBet)

	t.phase = PhasePreflop
	t.log.WithFields(logrus.Fields{
		"hand_id": t.handID,
		"players": len(eligible),
		"dealer":  t.dealerIdx,
	}).Info("hand started")

	// Blinds can put every short stack all-in before anyone acts; with
	// nobody to hand the turn to, run the board out instead of arming a
	// timer that can never fire.
	turn := t.nextActionable(bb)
	if turn == -1 {
		t.broadcast()
		t.runOut()
		return
	}

	t.setTurn(turn)
	t.broadcast()
}

// commit moves chips from a seat's stack into its round bet, going
// all-in if the stack cannot cover the amount.
func (t *Table) commit(seat *Seat, amount int64) {
	if amount > seat.Stack {
		amount = seat.Stack
	}
	seat.Stack -= amount
	seat.CurrentBet += amount
	seat.TotalCommitted += amount
	if seat.Stack == 0 {
		seat.AllIn = true
	}
}

func (t *Table) handleAction(userID, action string, amount int64) error {
	if !t.handInProgress() {
		return models.ErrStaleAction
	}

	pos := t.seatOf(userID)
	if pos == -1 {
		return models.ErrNotSeated
	}
	if pos != t.turnIdx {
		return models.ErrNotYourTurn
	}

	seat := t.seats[pos]
	if seat.Folded || seat.AllIn {
		return models.ErrStaleAction
	}

	switch action {
	case "fold":
		seat.Folded = true
		seat.Acted = true

	case "check", "call":
		deficit := t.highestBet - seat.CurrentBet
		if deficit > 0 {
			// A short stack calls all-in; side pots sort out the
			// excess at showdown.
			t.commit(seat, deficit)
		}
		seat.Acted = true

	case "raise":
		if amount <= t.highestBet {
			return fmt.Errorf("raise must exceed current bet of %d: %w",
				t.highestBet, models.ErrStaleAction)
		}
		maxTotal := seat.CurrentBet + seat.Stack
		if maxTotal <= t.highestBet {
			return models.ErrInsufficientStack
		}
		if amount > maxTotal {
			amount = maxTotal // all-in raise
		}
		t.commit(seat, amount-seat.CurrentBet)
		t.highestBet = seat.CurrentBet
		// A raise reopens the action for everyone else.
		for i, s := range t.seats {
			if s != nil && i != pos && !s.Folded && !s.AllIn {
				s.Acted = false
			}
		}
		seat.Acted = true

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	t.log.WithFields(logrus.Fields{
		"hand_id": t.handID,
		"user_id": userID,
		"action":  action,
		"amount":  amount,
	}).Debug("action applied")

	t.advance()
	return nil
}

// advance moves the hand forward after the turn holder acted.
func (t *Table) advance() {
	active := t.nonFolded()
	if len(active) == 1 {
		t.awardUncontested(active[0])
		return
	}

	if t.roundClosed() {
		t.advancePhase()
		return
	}

	t.setTurn(t.nextActionable(t.turnIdx))
	t.broadcast()
}

// afterFold handles a fold that happened outside the seat's turn
// (leave or abandonment). The turn only moves if the folder held it.
func (t *Table) afterFold(pos int) {
	if !t.handInProgress() {
		return
	}

	active := t.nonFolded()
	if len(active) == 1 {
		t.awardUncontested(active[0])
		return
	}

	if t.roundClosed() {
		t.advancePhase()
		return
	}

	if t.turnIdx == pos {
		t.setTurn(t.nextActionable(pos))
		t.broadcast()
	}
}

// roundClosed reports whether every live, non-all-in seat has acted
// since the last raise and matches the highest bet.
func (t *Table) roundClosed() bool {
	for _, s := range t.seats {
		if s == nil || s.Folded || s.AllIn {
			continue
		}
		if !s.Acted || s.CurrentBet != t.highestBet {
			return false
		}
	}
	return true
}

// advancePhase sweeps round bets into the pot and deals the next
// street, or resolves the hand after the river.
func (t *Table) advancePhase() {
	for _, s := range t.seats {
		if s == nil {
			continue
		}
		t.pot += s.CurrentBet
		s.CurrentBet = 0
		s.Acted = false
	}
	t.highestBet = 0
	t.clearTurn()

	var draw int
	var next Phase
	switch t.phase {
	case PhasePreflop:
		draw, next = 3, PhaseFlop
	case PhaseFlop:
		draw, next = 1, PhaseTurn
	case PhaseTurn:
		draw, next = 1, PhaseRiver
	case PhaseRiver:
		t.showdown()
		return
	default:
		return
	}

	cards, err := t.deck.Draw(draw)
	if err != nil {
		t.abortHand(err)
		return
	}
	t.community = append(t.community, cards...)
	t.phase = next

	// With one or zero seats still able to bet, betting is over: run
	// the board out and go straight to showdown.
	if t.actionableCount() < 2 {
		t.runOut()
		return
	}

	t.setTurn(t.nextActionable(t.dealerIdx))
	t.broadcast()
}

func (t *Table) runOut() {
	for len(t.community) < 5 {
		card, err := t.deck.DrawOne()
		if err != nil {
			t.abortHand(err)
			return
		}
		t.community = append(t.community, card)
	}
	t.showdown()
}

// awardUncontested ends the hand immediately when all but one seat
// folded. No cards are revealed.
func (t *Table) awardUncontested(pos int) {
	total := t.pot
	for _, s := range t.seats {
		if s == nil {
			continue
		}
		total += s.CurrentBet
		s.CurrentBet = 0
	}
	t.pot = 0

	seat := t.seats[pos]
	seat.Stack += total

	t.winners = []Winner{{
		UserID: seat.UserID,
		Seat:   pos,
		Amount: total,
	}}
	t.revealed = false
	t.phase = PhaseShowdown
	t.clearTurn()

	t.log.WithFields(logrus.Fields{
		"hand_id": t.handID,
		"user_id": seat.UserID,
		"amount":  total,
	}).Info("pot awarded uncontested")

	t.broadcast()
	t.scheduleNextHand()
}

// abortHand voids the hand and returns every seat's committed chips to
// its stack. Fatal-to-hand conditions only (deck exhaustion).
func (t *Table) abortHand(cause error) {
	if !errors.Is(cause, deck.ErrExhausted) {
		t.log.WithError(cause).Error("hand aborted")
	} else {
		t.log.Error("deck exhausted mid-hand, refunding committed bets")
	}

	for _, s := range t.seats {
		if s == nil {
			continue
		}
		s.Stack += s.TotalCommitted
		s.CurrentBet = 0
		s.TotalCommitted = 0
	}
	t.pot = 0
	t.community = nil
	t.winners = nil
	t.phase = PhaseWaiting
	t.clearTurn()

	t.broadcast()
	t.scheduleNextHand()
}

func (t *Table) scheduleNextHand() {
	handID := t.handID
	time.AfterFunc(t.cfg.HandDelay, func() {
		t.enqueue(func() {
			if t.handID != handID {
				return
			}
			if t.phase == PhaseShowdown {
				t.phase = PhaseWaiting
				t.community = nil
				t.winners = nil
			}
			t.broadcast()
			t.maybeStartHand()
		})
	})
}

// --- turn management ---

// setTurn hands the action to pos and arms the timeout. The sequence
// number guarantees the timer fires against this turn at most once.
func (t *Table) setTurn(pos int) {
	t.turnIdx = pos
	t.turnSeq++
	t.turnDeadline = time.Now().Add(t.cfg.TurnTimeout)

	handID, seq := t.handID, t.turnSeq
	time.AfterFunc(t.cfg.TurnTimeout, func() {
		t.enqueue(func() {
			t.fireTimeout(handID, seq)
		})
	})

	secs := int(t.cfg.TurnTimeout / time.Second)
	for _, s := range t.seats {
		if s != nil && !s.Disconnected {
			t.notifier.SendTimer(s.UserID, secs)
		}
	}
}

func (t *Table) clearTurn() {
	t.turnIdx = -1
	t.turnSeq++
}

// fireTimeout auto-checks when legal, otherwise auto-folds.
func (t *Table) fireTimeout(handID, seq int64) {
	if t.handID != handID || t.turnSeq != seq || !t.handInProgress() {
		return
	}
	if t.turnIdx < 0 || t.seats[t.turnIdx] == nil {
		return
	}

	seat := t.seats[t.turnIdx]
	if seat.CurrentBet == t.highestBet {
		seat.Acted = true
		t.log.WithField("user_id", seat.UserID).Info("turn timeout, auto-check")
	} else {
		seat.Folded = true
		seat.Acted = true
		t.log.WithField("user_id", seat.UserID).Info("turn timeout, auto-fold")
	}

	t.advance()
}

// --- seat scanning ---

func (t *Table) nonFolded() []int {
	var out []int
	for i, s := range t.seats {
		if s != nil && !s.Folded {
			out = append(out, i)
		}
	}
	return out
}

func (t *Table) actionableCount() int {
	n := 0
	for _, s := range t.seats {
		if s != nil && !s.Folded && !s.AllIn {
			n++
		}
	}
	return n
}

// nextNonFolded scans clockwise from the position after i.
func (t *Table) nextNonFolded(i int) int {
	n := len(t.seats)
	for step := 1; step <= n; step++ {
		pos := (i + step) % n
		if s := t.seats[pos]; s != nil && !s.Folded {
			return pos
		}
	}
	return -1
}

// nextActionable scans clockwise for a seat that can still act.
func (t *Table) nextActionable(i int) int {
	n := len(t.seats)
	for step := 1; step <= n; step++ {
		pos := (i + step) % n
		if s := t.seats[pos]; s != nil && !s.Folded && !s.AllIn {
			return pos
		}
	}
	return -1
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
