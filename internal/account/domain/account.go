package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type UserType string

const (
	Customer    UserType = "customer"
	Storekeeper UserType = "storekeeper"
)

func (u UserType) Valid() bool { return u == Customer || u == Storekeeper }

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserTypeMismatch   = errors.New("account is registered with a different user type")
	ErrInvalidEmail       = errors.New("invalid email format: only addresses ending in .com are allowed")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrInvalidUserType    = errors.New("user type must be customer or storekeeper")
)

const (
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit in bytes.
	MaxPasswordLength = 72
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[a-zA-Z]+\.com$`)

// NormalizeEmail checks the address format and returns its lower-cased form.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

// Account never carries the plain password. UserType is fixed at registration.
type Account struct {
	Email        string
	PasswordHash []byte
	UserType     UserType
	DisplayName  string
	CreatedAt    time.Time
}
