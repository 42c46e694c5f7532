package domain

import "time"

// Recipe is a single archived recipe owned by a user.
type Recipe struct {
	ID           int64
	UserID       int64
	Title        string
	Description  *string
	Ingredients  string
	Instructions string
	Allergies    *string
	PrepTime     *int
	CookingTime  *int
	Servings     *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
