package auth

import (
	"errors"
	"fmt"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordLength is the bcrypt input limit
const maxPasswordLength = 72

var ErrPasswordTooLong = errors.New("password is longer than 72 bytes")

// Hasher hashes and verifies passwords with bcrypt at a fixed cost
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher returns Hasher using provided bcrypt cost.
// It precomputes a hash used by VerifyAbsent, so construction takes as long as one Hash call.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d is out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("absent user placeholder"), cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt.GenerateFromPassword: %w", err)
	}

	return &Hasher{cost: cost, dummy: dummy}, nil
}

// Hash returns salted bcrypt hash of plaintext
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordLength {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword: %w", err)
	}

	return string(hash), nil
}

// Verify reports whether plaintext matches hash. Malformed or empty hash never matches.
// Plaintext longer than maxPasswordLength never matches, bcrypt would compare only its prefix.
func (h *Hasher) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	if len(plaintext) > maxPasswordLength {
		_ = bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext[:maxPasswordLength]))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// VerifyAbsent spends the same work as Verify for a user that does not exist
func (h *Hasher) VerifyAbsent(plaintext string) {
	if len(plaintext) > maxPasswordLength {
		plaintext = plaintext[:maxPasswordLength]
	}
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
