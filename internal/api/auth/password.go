package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// HashPassword produces a salted hash of the plaintext password.
	HashPassword(password string) (string, error)

	// VerifyPassword reports whether the password matches the stored hash.
	// A mismatch returns false, never an error.
	VerifyPassword(password, hash string) bool
}

// BcryptHasher implements PasswordHasher with a configurable work factor so
// the cost can be raised as hardware gets faster.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword uses bcrypt's constant-time comparison; it does not
// short-circuit on the first mismatched byte.
func (h *BcryptHasher) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
