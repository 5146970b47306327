package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type VerifyResult int

const (
	VerifyFailed VerifyResult = iota
	VerifySuccess
)

func (r VerifyResult) String() string {
	if r == VerifySuccess {
		return "success"
	}
	return "failed"
}

// prehashTag marks hashes whose bcrypt input is base64(sha256(password)).
// bcrypt reads at most 72 bytes, so the digest keeps every byte of a long
// password significant. Untagged "$2a$..." hashes are plain bcrypt.
const prehashTag = "bcrypt-sha256$"

// PasswordHasher produces tagged bcrypt hashes. The salt and cost are
// embedded in the output, so Verify needs nothing but the stored string.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

func prehash(plaintext string) []byte {
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return prehashTag + string(hash), nil
}

// Verify never returns an error: malformed hashes and mismatches are both
// VerifyFailed.
func (h *PasswordHasher) Verify(storedHash, plaintext string) VerifyResult {
	var err error
	if hash, ok := strings.CutPrefix(storedHash, prehashTag); ok {
		err = bcrypt.CompareHashAndPassword([]byte(hash), prehash(plaintext))
	} else {
		err = bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext))
	}
	if err != nil {
		return VerifyFailed
	}
	return VerifySuccess
}

// burn spends the same work as a real verification so unknown usernames take
// as long to reject as wrong passwords.
func (h *PasswordHasher) burn(plaintext string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword(prehash("not-a-real-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, prehash(plaintext))
}
