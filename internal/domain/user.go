package domain

import (
	"errors"
	"strings"
	"time"
)

// Common validation errors
var (
	ErrEmptyUserName   = errors.New("user name cannot be empty")
	ErrUserNameTooLong = errors.New("user name must be at most 100 characters long")
)

// AccountUser is a person who may own accounts. Users are immutable once created.
type AccountUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccountUser creates a new AccountUser with the given display name.
// The ID is assigned by the store on creation.
func NewAccountUser(name string) (*AccountUser, error) {
	now := time.Now().UTC()
	user := &AccountUser{
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the AccountUser has valid data.
func (u *AccountUser) Validate() error {
	if u.Name == "" {
		return ErrEmptyUserName
	}
	if len(u.Name) > 100 {
		return ErrUserNameTooLong
	}
	return nil
}
