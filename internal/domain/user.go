package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User represents a registered user. Email is the identity key: event and
// fest ownership is checked against created_by == email, and only users with
// the organiser flag may mutate events or fests.
// swagger:model User
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	RegisterNumber string    `json:"register_number"`
	Department     string    `json:"department"`
	IsOrganiser    bool      `json:"is_organiser"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(email string, isOrganiser bool, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user's email.
type TokenVerifier interface {
	Verify(token string) (email string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User, passwordHash, salt string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetCredentials returns the user row plus its stored password hash and salt.
	GetCredentials(ctx context.Context, email string) (user *User, hash string, salt string, err error)
}

// AuthService defines signup and login for organiser and student accounts.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name, registerNumber, department string) (*User, string, error)
	Login(ctx context.Context, email, password string) (*User, string, error)
	Me(ctx context.Context, email string) (*User, error)
}
