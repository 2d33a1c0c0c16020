package models

import "gumble-backend/internal/deck"

type GameType string

const (
	GameTypeMines     GameType = "mines"
	GameTypeDragon    GameType = "dragon"
	GameTypeKeno      GameType = "keno"
	GameTypeBlackjack GameType = "blackjack"
)

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusWon       SessionStatus = "won"
	SessionStatusLost      SessionStatus = "lost"
	SessionStatusCashedOut SessionStatus = "cashed_out"
)

// SoloSession is the per-user ephemeral state of a single-player game.
// It is persisted to Redis as-is, which means the hidden outcome fields
// live in the stored JSON; the struct must therefore NEVER be marshaled
// onto the wire. Handlers build response DTOs instead.
type SoloSession struct {
	ID       string        `json:"id"`
	UserID   string        `json:"user_id"`
	GameType GameType      `json:"game_type"`
	Bet      int64         `json:"bet"`
	Status   SessionStatus `json:"status"`

	Multiplier float64 `json:"multiplier"`
	Payout     int64   `json:"payout"`

	// Provably fair commitment: Commitment = hex(HMAC-SHA256(serverSeed,
	// "<game>:<clientSeed>:<nonce>")) and doubles as the layout seed.
	ClientSeed string `json:"client_seed"`
	Nonce      int64  `json:"nonce"`
	Commitment string `json:"commitment"`

	// Mines
	MinesCount    int   `json:"mines_count,omitempty"`
	MinePositions []int `json:"mine_positions,omitempty"`
	Revealed      []int `json:"revealed,omitempty"`

	// Dragon Tower
	Tier     string  `json:"tier,omitempty"`
	SafePath [][]int `json:"safe_path,omitempty"` // safe tile indices per row
	Row      int     `json:"row,omitempty"`

	// Blackjack
	PlayerHand []deck.Card `json:"player_hand,omitempty"`
	DealerHand []deck.Card `json:"dealer_hand,omitempty"`
	DeckState  []deck.Card `json:"deck_state,omitempty"` // undealt remainder
	DeckSeed   string      `json:"deck_seed,omitempty"`
	Doubled    bool        `json:"doubled,omitempty"`

	// Keno (recorded for history; keno sessions are never active)
	Picks []int `json:"picks,omitempty"`
	Drawn []int `json:"drawn,omitempty"`

	CreatedAt int64 `json:"created_at"`
	EndedAt   int64 `json:"ended_at,omitempty"`
}
