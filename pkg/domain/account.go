package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account is the checking account attached to a registered user.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Balance   float64   `json:"balance"`
	Status    string    `json:"status"` // "active", "frozen", "closed"
	CreatedAt time.Time `json:"createdAt"`
}

// Snapshot is the account overview returned by the accounts/me endpoint:
// the account plus its transaction history, newest first.
type Snapshot struct {
	Account      Account       `json:"account"`
	Transactions []Transaction `json:"transactions"`
}
