package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role represents a user's platform role
type Role string

const (
	RoleFarmer Role = "user"
	RoleExpert Role = "expert"
	RoleAgent  Role = "agent"
	RoleAdmin  Role = "admin"
)

// User represents a platform user
type User struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Phone             string     `json:"phone,omitempty"`
	GoogleID          string     `json:"-"`
	Role              Role       `json:"role"`
	IsPremium         bool       `json:"is_premium"`
	IsActive          bool       `json:"is_active"`
	PreferredLanguage Language   `json:"preferred_language"`
	OAuthTokenCipher  string     `json:"-"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,min=10,max=15"`
	Language string `json:"language" validate:"omitempty,oneof=en hi mr"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// AgentFinder locates a human to take over an escalated session.
// Implementations pick the most recently logged-in active user holding
// one of the given roles; nil with no error means nobody is available.
type AgentFinder interface {
	FindAvailableAgent(ctx context.Context, roles ...Role) (*User, error)
}
