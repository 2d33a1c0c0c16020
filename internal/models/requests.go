package models

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=24"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type FederatedRequest struct {
	Token string `json:"token" binding:"required"`
}

type WalletRequest struct {
	Amount int64  `json:"amount" binding:"required,min=1"`
	Type   string `json:"type" binding:"required,oneof=deposit withdraw"`
}

type ClientSeedRequest struct {
	ClientSeed string `json:"client_seed" binding:"required,min=1,max=64"`
}

type BlackjackDealRequest struct {
	Bet int64 `json:"bet" binding:"required,min=1,max=1000000"`
}

type BlackjackActionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Action    string `json:"action" binding:"required,oneof=hit stand double"`
}

type MinesStartRequest struct {
	Bet        int64 `json:"bet" binding:"required,min=1,max=1000000"`
	MinesCount int   `json:"mines_count" binding:"required,min=1,max=24"`
}

type MinesRevealRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Tile      *int   `json:"tile" binding:"required,min=0,max=24"`
}

type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type DragonStartRequest struct {
	Bet  int64  `json:"bet" binding:"required,min=1,max=1000000"`
	Tier string `json:"tier" binding:"required,oneof=easy medium hard"`
}

type DragonStepRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Choice    *int   `json:"choice" binding:"required,min=0,max=3"`
}

type KenoPlayRequest struct {
	Bet   int64 `json:"bet" binding:"required,min=1,max=1000000"`
	Picks []int `json:"picks" binding:"required,min=1,max=10,dive,min=1,max=40"`
}

type VerifyRequest struct {
	ClientSeed string `json:"client_seed" binding:"required"`
	ServerSeed string `json:"server_seed" binding:"required"`
	Nonce      int64  `json:"nonce"`
	GameType   string `json:"game_type" binding:"required"`
}

type VerificationData struct {
	ClientSeed   string `json:"client_seed"`
	ServerHash   string `json:"server_hash"`
	CurrentNonce int64  `json:"current_nonce"`
}
