package authcore

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the work factor the API has always used.
const DefaultBcryptCost = 10

// BcryptHasher produces and verifies salted password hashes.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher constructs a hasher with the given work factor. A
// non-positive cost selects DefaultBcryptCost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost <= 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("password_hasher.cost: cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash produces a self-contained salted hash of the plaintext.
func (hasher *BcryptHasher) Hash(plaintext string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("password_hasher.hash: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify reports whether the plaintext matches the stored hash. A malformed
// hash is treated as a mismatch, never an error.
func (hasher *BcryptHasher) Verify(plaintext string, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}
