package models

type User struct {
	ID       string `json:"id" redis:"id"`
	Username string `json:"username" redis:"username"`

	// Exactly one of these identifies how the account authenticates.
	PasswordHash     string `json:"-" redis:"password_hash"`
	FederatedSubject string `json:"-" redis:"federated_subject"`

	Deactivated bool `json:"deactivated,omitempty" redis:"deactivated"`

	CreatedAt int64 `json:"created_at" redis:"created_at"`
	UpdatedAt int64 `json:"updated_at" redis:"updated_at"`
}

type UserSession struct {
	SessionID    string `json:"session_id"`
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	CreatedAt    int64  `json:"created_at"`
	LastAccessed int64  `json:"last_accessed"`
}

// AuthResponse is what every auth endpoint returns on success.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
}
