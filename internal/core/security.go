// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const oneTimeTokenBytes = 32

// OneTimeKind names the independent single-use token slots a subject owns.
// Each kind has its own digest/expiry pair and is never cross-consumed.
type OneTimeKind string

const (
	OneTimePasswordReset OneTimeKind = "password_reset"
	OneTimeEmailVerify   OneTimeKind = "email_verify"
	OneTimePhoneVerify   OneTimeKind = "phone_verify"
)

func (k OneTimeKind) Valid() bool {
	switch k {
	case OneTimePasswordReset, OneTimeEmailVerify, OneTimePhoneVerify:
		return true
	}
	return false
}

// Hasher wraps bcrypt with a work factor fixed at construction. The cost
// comes from explicit startup configuration, never ambient state.
type Hasher struct {
	cost      int
	dummyHash []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("hasher: invalid bcrypt cost %d", cost)
	}

	// Pre-computed hash for timing-safe verification against absent
	// subjects; keeps the sign-in path duration independent of whether the
	// phone number exists.
	dummy, err := bcrypt.GenerateFromPassword(
		[]byte("darban.dummy.credential"),
		cost,
	)
	if err != nil {
		return nil, fmt.Errorf("hasher: generate dummy hash: %w", err)
	}

	return &Hasher{cost: cost, dummyHash: dummy}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *Hasher) Compare(password, encodedHash string) bool {
	return bcrypt.CompareHashAndPassword(
		[]byte(encodedHash),
		[]byte(password),
	) == nil
}

// CompareTimingSafe behaves like Compare but always performs a bcrypt
// comparison, substituting the dummy hash when no stored hash exists.
func (h *Hasher) CompareTimingSafe(password string, encodedHash *string) bool {
	target := h.dummyHash
	if encodedHash != nil && *encodedHash != "" {
		target = []byte(*encodedHash)
	}

	match := bcrypt.CompareHashAndPassword(target, []byte(password)) == nil

	if encodedHash == nil || *encodedHash == "" {
		return false
	}

	return match
}

// GenerateOneTimeToken produces a high-entropy single-use token. The
// plaintext goes to the caller for out-of-band delivery; only the digest is
// ever persisted.
func GenerateOneTimeToken() (plaintext, digest string, err error) {
	buf := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate one-time token: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	return plaintext, HashToken(plaintext), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func CompareTokenHash(token, digest string) bool {
	return subtle.ConstantTimeCompare(
		[]byte(HashToken(token)),
		[]byte(digest),
	) == 1
}
