package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction is a single money transfer between two accounts.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	FromEmail   string    `json:"fromEmail"`
	ToEmail     string    `json:"toEmail"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	// Sign is an optional server-computed direction marker ("+" or "-").
	// When absent it is derived client-side from the viewer's email.
	Sign      string    `json:"sign,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SignFor returns the direction marker for a viewer identified by email:
// "-" for money the viewer sent, "+" for money received, "" when the
// direction cannot be determined. A server-supplied Sign wins.
func (t Transaction) SignFor(email string) string {
	if t.Sign != "" {
		return t.Sign
	}
	if email == "" {
		return ""
	}
	if t.FromEmail != "" && t.FromEmail == email {
		return "-"
	}
	if t.ToEmail != "" && t.ToEmail == email {
		return "+"
	}
	return ""
}

// Title returns the display label for a transaction.
func (t Transaction) Title() string {
	if t.Description != "" {
		return t.Description
	}
	return "Transfer"
}
