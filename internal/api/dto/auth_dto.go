package dto

import "time"

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ID        int64     `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}
