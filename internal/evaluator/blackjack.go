package evaluator

import "gumble-backend/internal/deck"

// BlackjackCardValue counts face cards as 10 and aces as 11; aces are
// demoted during scoring.
func BlackjackCardValue(c deck.Card) int {
	switch c.Rank() {
	case 'A':
		return 11
	case 'T', 'J', 'Q', 'K':
		return 10
	default:
		return int(c.Rank() - '0')
	}
}

// BlackjackScore sums the hand, demoting aces from 11 to 1 one at a
// time while the total busts.
func BlackjackScore(hand []deck.Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		v := BlackjackCardValue(c)
		if v == 11 {
			aces++
		}
		total += v
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsNatural reports a two-card 21.
func IsNatural(hand []deck.Card) bool {
	return len(hand) == 2 && BlackjackScore(hand) == 21
}

func IsBust(hand []deck.Card) bool {
	return BlackjackScore(hand) > 21
}
