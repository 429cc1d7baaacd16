package users

import (
	"time"

	"github.com/makerhall/makerhall/internal/roles"
)

// User is a member account acting as a principal when session-authenticated.
type User struct {
	ID        int64
	Name      string
	Email     string
	IsActive  bool
	Role      roles.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
