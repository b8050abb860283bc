package auth

import "time"

type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// Session is one issued token. The token itself is a signed JWT, but it
// is also recorded server-side so logout revokes it and sessions survive
// restarts.
type Session struct {
	ID        string
	Token     string
	UserID    string
	Username  string
	Role      string
	CreatedAt time.Time
	ExpiresAt time.Time
}
