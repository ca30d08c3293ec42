package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

type Account struct {
	ID           uint
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

func (a *Account) IsAdmin() bool { return a != nil && a.Role == RoleAdmin }

// AccountRepository returns (nil, nil) from FindByUsername when no account matches.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	UpdateRole(ctx context.Context, username string, role Role) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// ErrDuplicateUsername is returned by AccountRepository.Create on a unique violation.
var ErrDuplicateUsername = Validation("user with this username already exists")
