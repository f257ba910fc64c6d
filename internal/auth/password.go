package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the fixed bcrypt work factor for user passwords.
const DefaultPasswordCost = 10

var ErrEmptyPassword = errors.New("password must not be empty")

// BcryptHasher hashes and verifies user passwords.
type BcryptHasher struct {
	cost      int
	dummyHash []byte
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	h := &BcryptHasher{cost: cost}
	// Compared against when the account does not exist so both login
	// failure paths pay for one bcrypt comparison.
	h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("tenantgate-dummy-password"), cost)
	return h
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes verify false.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Burn performs a throwaway comparison with the same cost as Verify.
func (h *BcryptHasher) Burn(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
