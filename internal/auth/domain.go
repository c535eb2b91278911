package auth

import (
	"time"

	"github.com/worlddoor/fulfillment/internal/shared"
)

// User represents an account that can sign in.
type User struct {
	ID           string
	Email        string
	FullName     string
	Role         shared.Role
	PasswordHash string
	CreatedAt    time.Time
}

// Principal converts the user into the request principal.
func (u *User) Principal() shared.Principal {
	return shared.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}
