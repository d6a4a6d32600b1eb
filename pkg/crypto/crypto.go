package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// VerificationCodeLength is the number of digits in generated one-time codes.
const VerificationCodeLength = 6

// Hasher provides one-way hashing for passwords and one-time verification
// codes. Both secrets receive identical treatment: bcrypt with a configurable
// cost, never stored in plaintext.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher with the given bcrypt cost. Costs outside the
// valid bcrypt range fall back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash of the supplied secret. The output differs
// across calls for the same input; Verify remains stable.
func (h *Hasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("crypto: hash secret: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the secret matches the stored hash. Comparison is
// constant-time; malformed hashes yield false rather than an error.
func (h *Hasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// NewVerificationCode returns a 6-digit numeric one-time code. Each digit is
// drawn independently from a cryptographically secure source.
func NewVerificationCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < VerificationCodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("crypto: generate code: %w", err)
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}
