package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSigningKeyBytes matches the HMAC-SHA-256 output size.
const MinSigningKeyBytes = 32

var ErrSigningKeyTooShort = fmt.Errorf("signing key must be at least %d bytes", MinSigningKeyBytes)

type TokenConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// Claims is the session token payload. The payload is signed, not
// encrypted: anything placed here is readable by the token holder.
type Claims struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for identity valid from now until
// now+cfg.TTL. Times are truncated to whole seconds.
func IssueToken(identity Identity, cfg TokenConfig, now time.Time) (string, time.Time, error) {
	claims := Claims{
		Name: identity.Username,
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(identity.ID, 10),
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}

	return encoded, claims.ExpiresAt.Time, nil
}

// ValidateToken checks, in order: encoding, signature, issuer, audience,
// expiry. The first failure is returned; all failures wrap
// ErrUnauthenticated.
func ValidateToken(tokenString string, cfg TokenConfig, now time.Time) (Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithStrictDecoding(),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return cfg.SigningKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Identity{}, ErrTokenSignature
		}
		return Identity{}, ErrTokenMalformed
	}

	identity, err := identityFromClaims(claims)
	if err != nil {
		return Identity{}, ErrTokenMalformed
	}

	if claims.Issuer != cfg.Issuer {
		return Identity{}, ErrTokenIssuer
	}
	if !slices.Contains(claims.Audience, cfg.Audience) {
		return Identity{}, ErrTokenAudience
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return Identity{}, ErrTokenExpired
	}

	return identity, nil
}

func identityFromClaims(claims *Claims) (Identity, error) {
	if claims.ExpiresAt == nil {
		return Identity{}, errors.New("missing exp")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("parse sub: %w", err)
	}
	role, err := ParseRole(string(claims.Role))
	if err != nil {
		return Identity{}, err
	}
	if claims.Name == "" {
		return Identity{}, errors.New("missing name")
	}
	return Identity{ID: id, Username: claims.Name, Role: role}, nil
}

// TokenService binds the token functions to one process-wide configuration
// and a clock.
type TokenService struct {
	cfg TokenConfig
	now func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.SigningKey) < MinSigningKeyBytes {
		return nil, ErrSigningKeyTooShort
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	key := make([]byte, len(cfg.SigningKey))
	copy(key, cfg.SigningKey)
	cfg.SigningKey = key

	return &TokenService{cfg: cfg, now: time.Now}, nil
}

// WithClock replaces the time source. Intended for tests.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) TTL() time.Duration {
	return s.cfg.TTL
}

func (s *TokenService) Issue(identity Identity) (string, time.Time, error) {
	return IssueToken(identity, s.cfg, s.now().UTC())
}

func (s *TokenService) Validate(tokenString string) (Identity, error) {
	return ValidateToken(tokenString, s.cfg, s.now().UTC())
}
