// Package memstore keeps users and the catalog in process memory. It backs
// STORAGE=memory for local runs and the end-to-end tests; state is lost on
// restart.
package memstore

import (
	"context"
	"sync"
	"time"

	"shop-admin/internal/auth"
)

type Users struct {
	mu         sync.RWMutex
	nextID     int64
	byID       map[int64]auth.Account
	byUsername map[string]int64
}

var _ auth.CredentialStore = (*Users)(nil)

func NewUsers() *Users {
	return &Users{
		byID:       make(map[int64]auth.Account),
		byUsername: make(map[string]int64),
	}
}

func (u *Users) FindByUsername(_ context.Context, username string) (auth.Account, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	id, ok := u.byUsername[username]
	if !ok {
		return auth.Account{}, auth.ErrAccountNotFound
	}
	return u.byID[id], nil
}

func (u *Users) ExistsByUsername(_ context.Context, username string) (bool, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	_, ok := u.byUsername[username]
	return ok, nil
}

// Insert enforces username uniqueness under the write lock, like a unique
// index would.
func (u *Users) Insert(_ context.Context, identity auth.Identity, passwordHash string) (auth.Identity, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.byUsername[identity.Username]; ok {
		return auth.Identity{}, auth.ErrDuplicateUsername
	}

	u.nextID++
	identity.ID = u.nextID
	u.byID[identity.ID] = auth.Account{
		Identity:     identity,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	u.byUsername[identity.Username] = identity.ID

	return identity, nil
}

func (u *Users) FindByID(_ context.Context, id int64) (auth.Identity, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	account, ok := u.byID[id]
	if !ok {
		return auth.Identity{}, auth.ErrAccountNotFound
	}
	return account.Identity, nil
}
