// Package auth hashes passwords, issues and validates session tokens, and
// guards routes that need a signed-in user.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = bcrypt.DefaultCost

// Hasher hashes and checks passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher; cost outside bcrypt's range falls back to DefaultCost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return Hasher{cost: cost}
}

func (h Hasher) Hash(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Check reports whether raw matches hash. A malformed hash never matches.
func (h Hasher) Check(hash, raw string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw))
	return err == nil
}

// dummyHash is compared against when the email is unknown so both failure
// paths spend a bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("finwise-placeholder"), bcrypt.MinCost)

// CompareAbsent spends one comparison for an account that does not exist.
func (h Hasher) CompareAbsent(raw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(raw))
}
