// Package deck owns the 52-card deck and every source of shuffled
// randomness in the server. Decks are either freshly random (seed drawn
// from crypto/rand) or replayed from a recorded seed for dispute
// resolution; the seed never leaves the server while a hand is live.
package deck

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
)

// Card is a two-character identifier: rank (2-9,T,J,Q,K,A) + suit
// (h,d,c,s), e.g. "Ah", "Td".
type Card string

// Concealed is the sentinel sent in place of any card the recipient is
// not allowed to see. It is not a valid card.
const Concealed Card = "??"

const (
	Ranks = "23456789TJQKA"
	Suits = "hdcs"
)

var ErrExhausted = errors.New("deck exhausted")

func (c Card) Valid() bool {
	if len(c) != 2 {
		return false
	}
	return rankIndex(c[0]) >= 0 && suitIndex(c[1]) >= 0
}

func (c Card) Rank() byte { return c[0] }
func (c Card) Suit() byte { return c[1] }

// RankValue returns 2..14 with ace high.
func (c Card) RankValue() int {
	return rankIndex(c[0]) + 2
}

func rankIndex(r byte) int {
	for i := 0; i < len(Ranks); i++ {
		if Ranks[i] == r {
			return i
		}
	}
	return -1
}

func suitIndex(s byte) int {
	for i := 0; i < len(Suits); i++ {
		if Suits[i] == s {
			return i
		}
	}
	return -1
}

// Full returns the 52 cards in canonical order.
func Full() []Card {
	cards := make([]Card, 0, 52)
	for _, s := range Suits {
		for _, r := range Ranks {
			cards = append(cards, Card([]byte{byte(r), byte(s)}))
		}
	}
	return cards
}

// Deck is an ordered sequence of unique cards consumed from the front.
// It is owned by exactly one table or session and never shared.
type Deck struct {
	cards []Card
	seed  string
}

// New shuffles a fresh deck from an unpredictable seed.
func New() (*Deck, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeeded(seed), nil
}

// NewSeeded shuffles deterministically from a recorded seed, for
// replaying a disputed hand. Same seed, same order.
func NewSeeded(seed string) *Deck {
	cards := Full()
	shuffle(seed, len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Deck{cards: cards, seed: seed}
}

// NewSeed produces a 256-bit hex seed from the OS entropy source.
func NewSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read entropy: %v", err)
	}
	return hex.EncodeToString(b), nil
}

// Draw removes and returns the first n cards.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n > len(d.cards) {
		return nil, ErrExhausted
	}
	drawn := d.cards[:n]
	d.cards = d.cards[n:]
	return drawn, nil
}

// DrawOne is Draw(1) without the slice.
func (d *Deck) DrawOne() (Card, error) {
	cards, err := d.Draw(1)
	if err != nil {
		return "", err
	}
	return cards[0], nil
}

func (d *Deck) Remaining() int { return len(d.cards) }

// Seed returns the recorded shuffle seed. Server-side audit use only.
func (d *Deck) Seed() string { return d.seed }

// Cards returns the undealt remainder, for persisting an in-progress
// solo hand.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Resume rebuilds a deck from a persisted undealt remainder.
func Resume(seed string, cards []Card) *Deck {
	cp := make([]Card, len(cards))
	copy(cp, cards)
	return &Deck{cards: cp, seed: seed}
}

// Perm returns a deterministic permutation of 0..n-1 derived from seed.
// Solo games use it to lay out mines and tower paths so a finished
// session can be re-derived from its revealed seed.
func Perm(seed string, n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	shuffle(seed, n, func(i, j int) {
		p[i], p[j] = p[j], p[i]
	})
	return p
}

// shuffle runs a Fisher-Yates pass driven by a ChaCha8 stream keyed
// from the seed. ChaCha8 keeps the order unpredictable to anyone who
// does not hold the 256-bit seed.
func shuffle(seed string, n int, swap func(i, j int)) {
	key := sha256.Sum256([]byte(seed))
	rng := mathrand.New(mathrand.NewChaCha8(key))
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		swap(i, j)
	}
}
