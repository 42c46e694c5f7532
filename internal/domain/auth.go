package domain

import "time"

// AuthState is the outcome of authenticating a single request.
type AuthState int

const (
	AuthStateUnauthenticated AuthState = iota
	AuthStateIdentified
)

func (s AuthState) String() string {
	if s == AuthStateIdentified {
		return "identified"
	}
	return "unauthenticated"
}

// Identity is the caller identity carried inside an access token.
type Identity struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
