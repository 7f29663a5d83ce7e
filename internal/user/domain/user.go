// Package domain holds the core user and session entities.
package domain

import (
	"errors"
	"time"
)

// User is the core user entity. Password always holds a bcrypt hash, never
// plaintext.
type User struct {
	ID        string
	Username  string
	Name      string
	Email     string
	Password  string
	Role      Role
	IsActive  bool
	IsBlocked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleUser      Role = "user"
	RoleAnonymous Role = "anonymous"
)

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Password == "" {
		return errors.New("password is required")
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// CanLogin reports whether the account may authenticate.
func (u *User) CanLogin() bool {
	return u.IsActive && !u.IsBlocked
}
