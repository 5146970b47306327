package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CredentialStore is the narrow contract the auth service needs from the
// user table. Implementations must enforce username uniqueness on Insert and
// report a violation as ErrDuplicateUsername.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (Account, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, identity Identity, passwordHash string) (Identity, error)
	FindByID(ctx context.Context, id int64) (Identity, error)
}

type Recorder interface {
	RecordLogin(result string)
	RecordRegistration(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string)        {}
func (nopRecorder) RecordRegistration(string) {}

type Service struct {
	store    CredentialStore
	tokens   *TokenService
	hasher   *PasswordHasher
	recorder Recorder
}

func NewService(store CredentialStore, tokens *TokenService) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		hasher:   NewPasswordHasher(0),
		recorder: nopRecorder{},
	}
}

func (s *Service) WithPasswordHasher(hasher *PasswordHasher) *Service {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

func (s *Service) WithRecorder(recorder Recorder) *Service {
	if recorder != nil {
		s.recorder = recorder
	}
	return s
}

// normalizeUsername makes account names case-insensitive: "Alice" and
// "alice" are the same account.
func normalizeUsername(username string) string {
	return strings.TrimSpace(strings.ToLower(username))
}

// Login verifies a username/password pair and issues a session token. An
// unknown username and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, username, password string) (AuthPayload, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		s.recorder.RecordLogin("invalid")
		return AuthPayload{}, ErrInvalidCredentials
	}

	account, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.hasher.burn(password)
			s.recorder.RecordLogin("invalid")
			return AuthPayload{}, ErrInvalidCredentials
		}
		s.recorder.RecordLogin("error")
		return AuthPayload{}, fmt.Errorf("find account: %w", err)
	}

	if s.hasher.Verify(account.PasswordHash, password) != VerifySuccess {
		s.recorder.RecordLogin("invalid")
		return AuthPayload{}, ErrInvalidCredentials
	}

	payload, err := s.issue(ctx, account.Identity)
	if err != nil {
		s.recorder.RecordLogin("error")
		return AuthPayload{}, err
	}

	s.recorder.RecordLogin("success")
	return payload, nil
}

// Register creates a User account and signs it in.
func (s *Service) Register(ctx context.Context, username, password string) (AuthPayload, error) {
	identity, err := s.CreateUser(ctx, username, password, RoleUser)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			s.recorder.RecordRegistration("duplicate")
		case errors.Is(err, ErrInvalidInput):
			s.recorder.RecordRegistration("invalid")
		default:
			s.recorder.RecordRegistration("error")
		}
		return AuthPayload{}, err
	}

	payload, err := s.issue(ctx, identity)
	if err != nil {
		s.recorder.RecordRegistration("error")
		return AuthPayload{}, err
	}

	s.recorder.RecordRegistration("success")
	return payload, nil
}

// CreateUser hashes the password and inserts a new account. The existence
// pre-check gives the common case a cheap answer; the store's unique
// constraint is what decides under concurrent registrations.
func (s *Service) CreateUser(ctx context.Context, username, password string, role Role) (Identity, error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return Identity{}, ErrInvalidInput
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Identity{}, err
	}

	exists, err := s.store.ExistsByUsername(ctx, username)
	if err != nil {
		return Identity{}, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return Identity{}, ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Identity{}, err
	}

	identity, err := s.store.Insert(ctx, Identity{Username: username, Role: role}, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return Identity{}, ErrUsernameTaken
		}
		return Identity{}, fmt.Errorf("insert account: %w", err)
	}

	return identity, nil
}

// BootstrapAdmin makes sure an Admin account named username exists. An
// existing account is left untouched.
func (s *Service) BootstrapAdmin(ctx context.Context, username, password string) error {
	username = normalizeUsername(username)
	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("admin username and password are required together")
	}

	_, err := s.CreateUser(ctx, username, password, RoleAdmin)
	if err != nil && !errors.Is(err, ErrUsernameTaken) {
		return err
	}
	return nil
}

// Identity re-reads an account by id, for operations that need the stored
// state rather than the token claims.
func (s *Service) Identity(ctx context.Context, id int64) (Identity, error) {
	return s.store.FindByID(ctx, id)
}

// issue refuses to start once ctx is done; signing itself is not
// interruptible.
func (s *Service) issue(ctx context.Context, identity Identity) (AuthPayload, error) {
	if err := ctx.Err(); err != nil {
		return AuthPayload{}, err
	}

	token, expiresAt, err := s.tokens.Issue(identity)
	if err != nil {
		return AuthPayload{}, err
	}

	return AuthPayload{
		Token:     token,
		Username:  identity.Username,
		ExpiresAt: expiresAt.UTC().Truncate(time.Second),
	}, nil
}
