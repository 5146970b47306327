package auth

import (
	"errors"
	"fmt"
	"time"
)

type Role string

const (
	RoleAdmin Role = "Admin"
	RoleUser  Role = "User"
)

func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin, RoleUser:
		return Role(value), nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// Identity is the authenticated principal resolved from a credential or a
// session token.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Account is an Identity together with its stored password verifier.
type Account struct {
	Identity
	PasswordHash string
	CreatedAt    time.Time
}

type AuthPayload struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidInput       = errors.New("username and password are required")

	// Store-level signals.
	ErrAccountNotFound   = errors.New("account not found")
	ErrDuplicateUsername = errors.New("duplicate username")
)

// ErrUnauthenticated is the only token failure visible outside this package.
// Every rejection reason wraps it.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrTokenMalformed = fmt.Errorf("%w: malformed token", ErrUnauthenticated)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrUnauthenticated)
	ErrTokenIssuer    = fmt.Errorf("%w: issuer mismatch", ErrUnauthenticated)
	ErrTokenAudience  = fmt.Errorf("%w: audience mismatch", ErrUnauthenticated)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrUnauthenticated)
)
