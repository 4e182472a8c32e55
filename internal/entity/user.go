package entity

import (
	"context"
	"time"
)

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleQualifier UserRole = "qualifier"
	RoleCloser    UserRole = "closer"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleQualifier, RoleCloser:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, u *User) error
}
