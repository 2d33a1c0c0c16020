package table

import (
	"sort"

	"github.com/sirupsen/logrus"

	"gumble-backend/internal/evaluator"
)

// pot is one contested pot: the chips in it and the seats eligible to
// win it.
type pot struct {
	amount   int64
	eligible []int
}

// buildPots splits the hand's total committed chips into a main pot and
// side pots from the distinct all-in commitment levels. A seat is
// eligible for every pot layer it fully funded.
func (t *Table) buildPots() []pot {
	levels := make(map[int64]bool)
	for _, s := range t.seats {
		if s != nil && !s.Folded && s.TotalCommitted > 0 {
			levels[s.TotalCommitted] = true
		}
	}

	sorted := make([]int64, 0, len(levels))
	for l := range levels {
		sorted = append(sorted, l)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var pots []pot
	var prev int64
	for _, level := range sorted {
		p := pot{}
		for i, s := range t.seats {
			if s == nil || s.TotalCommitted <= prev {
				continue
			}
			slice := minInt64(s.TotalCommitted, level) - prev
			p.amount += slice
			if !s.Folded && s.TotalCommitted >= level {
				p.eligible = append(p.eligible, i)
			}
		}
		if p.amount > 0 {
			pots = append(pots, p)
		}
		prev = level
	}
	return pots
}

// showdown reveals the contenders, carves the pots and pays the best
// hand in each. Ties split evenly; the odd chip goes to the first
// eligible seat clockwise from the button.
func (t *Table) showdown() {
	t.phase = PhaseShowdown
	t.revealed = true
	t.clearTurn()

	// Any bets from the final round belong to the hand total; pots are
	// rebuilt from TotalCommitted so sweep the remainder.
	for _, s := range t.seats {
		if s != nil {
			s.CurrentBet = 0
		}
	}
	t.pot = 0

	scores := make(map[int]evaluator.PokerScore)
	names := make(map[int]string)
	for _, i := range t.nonFolded() {
		s := t.seats[i]
		score, err := evaluator.EvalSeven(s.HoleCards, t.community)
		if err != nil {
			t.log.WithError(err).Error("hand evaluation failed")
			t.abortHand(err)
			return
		}
		scores[i] = score
		if name, err := evaluator.DescribeSeven(s.HoleCards, t.community); err == nil {
			names[i] = name
		}
	}

	won := make(map[int]int64)
	for _, p := range t.buildPots() {
		best := evaluator.PokerScore(-1)
		var winners []int
		for _, i := range p.eligible {
			switch {
			case scores[i] > best:
				best = scores[i]
				winners = []int{i}
			case scores[i] == best:
				winners = append(winners, i)
			}
		}
		if len(winners) == 0 {
			continue
		}

		share := p.amount / int64(len(winners))
		remainder := p.amount % int64(len(winners))
		for _, i := range winners {
			won[i] += share
		}
		if remainder > 0 {
			won[t.firstAfterDealer(winners)] += remainder
		}
	}

	t.winners = nil
	for i, s := range t.seats {
		if s == nil {
			continue
		}
		amount, ok := won[i]
		if !ok {
			continue
		}
		s.Stack += amount
		t.winners = append(t.winners, Winner{
			UserID:    s.UserID,
			Seat:      i,
			Amount:    amount,
			HandName:  names[i],
			HoleCards: s.HoleCards,
		})
		t.log.WithFields(logrus.Fields{
			"hand_id": t.handID,
			"user_id": s.UserID,
			"amount":  amount,
			"hand":    names[i],
		}).Info("pot awarded")
	}

	t.broadcast()
	t.scheduleNextHand()
}

// firstAfterDealer picks, among the given positions, the first one
// clockwise from the button.
func (t *Table) firstAfterDealer(positions []int) int {
	n := len(t.seats)
	for step := 1; step <= n; step++ {
		pos := (t.dealerIdx + step) % n
		for _, p := range positions {
			if p == pos {
				return pos
			}
		}
	}
	return positions[0]
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
