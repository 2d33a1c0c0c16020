// Package table implements the authoritative poker table state
// machine. Each table is an actor: every mutation arrives as a command
// on one channel and runs on the table's own goroutine, so no two
// actions on the same table ever interleave. Timers re-enter through
// the same channel and therefore cannot race a just-arrived action.
package table

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"gumble-backend/internal/deck"
	"gumble-backend/internal/models"
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// Banker is the slice of the ledger a table needs: moving funds between
// main balance and table custody.
type Banker interface {
	BuyIn(userID string, amount int64, tableID string) (int64, error)
	Settle(userID string, buyIn, stack int64, tableID string) (int64, error)
}

// Notifier delivers per-recipient events out to live connections.
type Notifier interface {
	SendGameState(userID string, state *View)
	SendTimer(userID string, secondsRemaining int)
	NotifyBalance(userID string, balance int64)
}

type Config struct {
	ID   string
	Name string

	MinSeats   int
	MaxSeats   int
	SmallBlind int64
	BigBlind   int64

	TurnTimeout     time.Duration
	DisconnectGrace time.Duration
	HandDelay       time.Duration // pause between showdown and next deal
}

// Seat holds one player's in-table state. The chip stack is table
// custody, distinct from the main balance.
type Seat struct {
	UserID   string
	Username string

	Stack int64
	BuyIn int64 // total bought in, for settlement bookkeeping

	CurrentBet     int64 // committed this betting round
	TotalCommitted int64 // committed this hand, feeds the pots
	HoleCards      []deck.Card
	Folded         bool
	AllIn          bool
	Acted          bool // acted since the last raise

	Disconnected bool
	graceEpoch   int64
}

type Winner struct {
	UserID    string      `json:"user_id"`
	Seat      int         `json:"seat"`
	Amount    int64       `json:"amount"`
	HandName  string      `json:"hand_name,omitempty"`
	HoleCards []deck.Card `json:"hole_cards,omitempty"`
}

type Table struct {
	cfg      Config
	banker   Banker
	notifier Notifier
	log      *logrus.Entry

	cmds   chan command
	closed chan struct{}

	seats     []*Seat // fixed positions, nil = empty
	phase     Phase
	pot       int64 // chips collected from completed betting rounds
	community []deck.Card
	deck      *deck.Deck

	dealerIdx  int
	turnIdx    int
	highestBet int64

	handID       int64
	turnSeq      int64
	turnDeadline time.Time

	winners  []Winner
	revealed bool // showdown reached with cards shown

	playerCount atomic.Int32 // readable without entering the actor
	members     sync.Map     // userID -> struct{}, mirrors seats for lock-free lookup
	onEmpty     func(tableID string)
	shutdown    bool
}

type command struct {
	run func()
}

func New(cfg Config, banker Banker, notifier Notifier, onEmpty func(tableID string)) *Table {
	if cfg.MinSeats < 2 {
		cfg.MinSeats = 2
	}
	if cfg.HandDelay == 0 {
		cfg.HandDelay = 3 * time.Second
	}

	t := &Table{
		cfg:      cfg,
		banker:   banker,
		notifier: notifier,
		log: logrus.WithFields(logrus.Fields{
			"component": "table",
			"table_id":  cfg.ID,
		}),
		cmds:    make(chan command, 64),
		closed:  make(chan struct{}),
		seats:   make([]*Seat, cfg.MaxSeats),
		phase:   PhaseWaiting,
		onEmpty: onEmpty,
	}

	go t.run()
	return t
}

func (t *Table) run() {
	for cmd := range t.cmds {
		cmd.run()
		if t.shutdown {
			close(t.closed)
			return
		}
	}
}

// do runs fn on the table goroutine and waits for its result.
func (t *Table) do(fn func() error) error {
	reply := make(chan error, 1)
	select {
	case t.cmds <- command{run: func() { reply <- fn() }}:
	case <-t.closed:
		return models.ErrTableNotFound
	}
	select {
	case err := <-reply:
		return err
	case <-t.closed:
		// The closing command replies before the actor shuts down, so
		// give that reply priority over the shutdown signal.
		select {
		case err := <-reply:
			return err
		default:
			return models.ErrTableNotFound
		}
	}
}

// enqueue schedules fn without waiting; used by timers.
func (t *Table) enqueue(fn func()) {
	select {
	case t.cmds <- command{run: fn}:
	case <-t.closed:
	}
}

func (t *Table) ID() string   { return t.cfg.ID }
func (t *Table) Name() string { return t.cfg.Name }

func (t *Table) PlayerCount() int {
	return int(t.playerCount.Load())
}

// Seated reports whether the user holds a seat, without entering the
// actor.
func (t *Table) Seated(userID string) bool {
	_, ok := t.members.Load(userID)
	return ok
}

// Join seats a user, buying in from their main balance. The buy-in
// debit is the only failable step; the stack credit happens on the
// actor with the funds already in custody.
func (t *Table) Join(userID, username string, buyIn int64) error {
	return t.do(func() error {
		// A non-positive amount would turn the buy-in debit into a
		// credit.
		if buyIn <= 0 {
			return models.ErrInvalidBuyIn
		}
		if t.seatOf(userID) != -1 {
			return models.ErrStaleAction
		}

		pos := -1
		for i, s := range t.seats {
			if s == nil {
				pos = i
				break
			}
		}
		if pos == -1 {
			return models.ErrTableFull
		}

		balance, err := t.banker.BuyIn(userID, buyIn, t.cfg.ID)
		if err != nil {
			return err
		}
		t.notifier.NotifyBalance(userID, balance)

		t.seats[pos] = &Seat{
			UserID:   userID,
			Username: username,
			Stack:    buyIn,
			BuyIn:    buyIn,
			// Joining mid-hand means sitting out until the next deal;
			// an undealt seat must never enter the live rotation.
			Folded: t.handInProgress(),
		}
		t.playerCount.Add(1)
		t.members.Store(userID, struct{}{})

		t.log.WithFields(logrus.Fields{
			"user_id": userID,
			"seat":    pos,
			"buy_in":  buyIn,
		}).Info("player joined")

		t.broadcast()
		t.maybeStartHand()
		return nil
	})
}

// Leave folds the player out of any live hand, settles their stack
// back to the main balance and frees the seat.
func (t *Table) Leave(userID string) error {
	return t.do(func() error {
		pos := t.seatOf(userID)
		if pos == -1 {
			return models.ErrNotSeated
		}
		t.removeSeat(pos)
		return nil
	})
}

// Disconnect starts the grace clock; if it expires before a reconnect
// the player is folded and removed rather than left to time out every
// hand.
func (t *Table) Disconnect(userID string) {
	t.enqueue(func() {
		pos := t.seatOf(userID)
		if pos == -1 {
			return
		}
		seat := t.seats[pos]
		seat.Disconnected = true
		seat.graceEpoch++
		epoch := seat.graceEpoch

		time.AfterFunc(t.cfg.DisconnectGrace, func() {
			t.enqueue(func() {
				p := t.seatOf(userID)
				if p == -1 {
					return
				}
				s := t.seats[p]
				if s.Disconnected && s.graceEpoch == epoch {
					t.log.WithField("user_id", userID).Info("grace expired, removing player")
					t.removeSeat(p)
				}
			})
		})
	})
}

// Reconnect cancels the grace clock and resends current state.
func (t *Table) Reconnect(userID string) {
	t.enqueue(func() {
		pos := t.seatOf(userID)
		if pos == -1 {
			return
		}
		t.seats[pos].Disconnected = false
		t.seats[pos].graceEpoch++
		t.notifier.SendGameState(userID, t.viewFor(userID))
	})
}

// Act applies a player action: fold, check, call or raise.
func (t *Table) Act(userID, action string, amount int64) error {
	return t.do(func() error {
		return t.handleAction(userID, action, amount)
	})
}

// SendState pushes the requester's filtered view, outside any hand
// mutation.
func (t *Table) SendState(userID string) {
	t.enqueue(func() {
		t.notifier.SendGameState(userID, t.viewFor(userID))
	})
}

// removeSeat runs on the actor. Chips already committed to the hand
// stay in the pot; the remaining stack settles back to balance.
func (t *Table) removeSeat(pos int) {
	seat := t.seats[pos]

	if t.handInProgress() && !seat.Folded {
		seat.Folded = true
		t.afterFold(pos)
	}

	balance, err := t.banker.Settle(seat.UserID, seat.BuyIn, seat.Stack, t.cfg.ID)
	if err != nil {
		t.log.WithError(err).WithField("user_id", seat.UserID).Error("settle failed on leave")
	} else {
		t.notifier.NotifyBalance(seat.UserID, balance)
	}

	t.seats[pos] = nil
	t.playerCount.Add(-1)
	t.members.Delete(seat.UserID)

	t.log.WithFields(logrus.Fields{
		"user_id": seat.UserID,
		"seat":    pos,
	}).Info("player left")

	t.broadcast()

	if t.playerCount.Load() == 0 {
		t.shutdown = true
		if t.onEmpty != nil {
			go t.onEmpty(t.cfg.ID)
		}
	}
}

func (t *Table) seatOf(userID string) int {
	for i, s := range t.seats {
		if s != nil && s.UserID == userID {
			return i
		}
	}
	return -1
}

func (t *Table) handInProgress() bool {
	switch t.phase {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}
