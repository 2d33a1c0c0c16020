package evaluator

import (
	"fmt"

	"github.com/paulhankin/poker"

	"gumble-backend/internal/deck"
)

// PokerScore is an opaque hand strength; higher wins, equal splits.
type PokerScore int16

// convertCard maps our wire encoding onto the evaluator's card space
// (suits club..spade = 0..3, ranks ace=1..king=13).
func convertCard(c deck.Card) (poker.Card, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("invalid card %q", c)
	}

	var rank poker.Rank
	switch c.Rank() {
	case 'A':
		rank = 1
	case 'T':
		rank = 10
	case 'J':
		rank = 11
	case 'Q':
		rank = 12
	case 'K':
		rank = 13
	default:
		rank = poker.Rank(c.Rank() - '0')
	}

	var suit poker.Suit
	switch c.Suit() {
	case 'c':
		suit = poker.Club
	case 'd':
		suit = poker.Diamond
	case 'h':
		suit = poker.Heart
	case 's':
		suit = poker.Spade
	}

	return poker.MakeCard(suit, rank)
}

// EvalSeven scores two hole cards against five community cards using
// the best five of seven. Wheel straights and kicker ties come out of
// the underlying evaluator correctly.
func EvalSeven(hole []deck.Card, community []deck.Card) (PokerScore, error) {
	if len(hole) != 2 || len(community) != 5 {
		return 0, fmt.Errorf("eval needs 2 hole and 5 community cards, got %d and %d",
			len(hole), len(community))
	}

	var hand [7]poker.Card
	for i, c := range community {
		card, err := convertCard(c)
		if err != nil {
			return 0, err
		}
		hand[i] = card
	}
	for i, c := range hole {
		card, err := convertCard(c)
		if err != nil {
			return 0, err
		}
		hand[5+i] = card
	}

	return PokerScore(poker.Eval7(&hand)), nil
}

// DescribeSeven names the best hand, e.g. "full house".
func DescribeSeven(hole []deck.Card, community []deck.Card) (string, error) {
	cards := make([]poker.Card, 0, 7)
	for _, c := range append(append([]deck.Card{}, community...), hole...) {
		card, err := convertCard(c)
		if err != nil {
			return "", err
		}
		cards = append(cards, card)
	}
	return poker.Describe(cards)
}
