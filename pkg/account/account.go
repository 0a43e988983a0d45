package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role is the coarse authorization tag carried in session tokens
type Role string

const (
	RoleUser     Role = "user"
	RoleEmployer Role = "employer"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether the given role is one of the known roles
func ValidRole(role Role) bool {
	switch role {
	case RoleUser, RoleEmployer, RoleAdmin:
		return true
	default:
		return false
	}
}

var (
	// ErrNotFound is returned when no account matches the given identifier
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateIdentifier is returned when the email or phone is already registered
	ErrDuplicateIdentifier = errors.New("email or phone already registered")
)

// Account represents a registered user of the platform. Accounts are created
// unverified and become verified when the activation link is followed. They
// are never hard-deleted by this service.
type Account struct {
	ID           uuid.UUID
	Fullname     string
	Email        string
	Phone        string
	PhoneValid   bool
	PasswordHash string
	IsVerified   bool
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the client-facing projection of an account, without the
// password hash
type Summary struct {
	ID         uuid.UUID `json:"id"`
	Fullname   string    `json:"fullname"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"is_verified"`
}

// Summarize converts an Account to its client-facing Summary
func Summarize(a Account) Summary {
	s := Summary{
		ID:         a.ID,
		Fullname:   a.Fullname,
		Email:      a.Email,
		Role:       a.Role,
		IsVerified: a.IsVerified,
	}
	if a.PhoneValid {
		s.Phone = a.Phone
	}
	return s
}
