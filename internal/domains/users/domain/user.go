package domain

import (
	"errors"
	"strings"
)

// Role is the closed set of marketplace roles. Sellers are regular users that own listings.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var (
	ErrEmptyUsername = errors.New("username is required")
	ErrInvalidEmail  = errors.New("email must contain '@'")
	ErrInvalidRole   = errors.New("role is invalid")
)

// ParseRole normalizes a stored or claimed role into the enum.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Valid reports whether the role is a member of the enum.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is a marketplace account as seen by the directory.
type User struct {
	ID       int64
	Username string
	Nickname string
	Email    string
	Role     Role
}

// NewUser builds a user ensuring required invariants.
func NewUser(id int64, username string, role Role) (*User, error) {
	user := &User{ID: id, Role: role}
	if err := user.SetUsername(username); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// SetUsername trims and validates the username.
func (u *User) SetUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	u.Username = username
	return nil
}

// UpdateProfile applies optional profile fields and validates email if present.
func (u *User) UpdateProfile(nickname, email string) error {
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	u.Nickname = strings.TrimSpace(nickname)
	u.Email = email
	return nil
}

// Validate re-applies core invariants for persistence.
func (u *User) Validate() error {
	if err := u.SetUsername(u.Username); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return ErrInvalidRole
	}
	return u.UpdateProfile(u.Nickname, u.Email)
}

// Principal returns the authenticated identity handed to use cases.
func (u *User) Principal() Principal {
	return Principal{ID: u.ID, Username: u.Username, Role: u.Role}
}

// Principal is the caller identity resolved from a bearer token.
type Principal struct {
	ID       int64
	Username string
	Role     Role
}

// IsAdmin reports whether the principal carries the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authenticated reports whether the principal was resolved to a known account.
func (p Principal) Authenticated() bool {
	return p.ID > 0 && p.Role.Valid()
}
