package db

import "time"

// Operator is a local back-office user allowed to read the board API.
type Operator struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
