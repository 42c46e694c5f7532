package domain

import "time"

// User is an account holder. It doubles as the credential record: the
// password hash is only ever written by registration.
type User struct {
	ID           int64
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
