package password

import (
	"errors"
	"strings"
)

var (
	// ErrPasswordTooShort is returned by hashers for inputs under the minimum length.
	ErrPasswordTooShort = errors.New("password is too short")
	// ErrPasswordTooLong is returned by hashers for inputs over their limit.
	ErrPasswordTooLong = errors.New("password is too long")
)

// DefaultMaxPasswordBytes is the argon2 input cap when none is configured.
const DefaultMaxPasswordBytes = 1024

// Matcher is the one-way hash comparator consumed by the login flow.
type Matcher interface {
	Matches(plain, hash string) bool
}

// Hasher produces hashes that its own Matches accepts.
type Hasher interface {
	Matcher
	Hash(plain string) (string, error)
}

// Auto dispatches Matches to bcrypt or argon2id based on the stored
// hash prefix, so a directory may hold both during a migration. Hash
// always uses Primary.
type Auto struct {
	Primary Hasher
	Bcrypt  *Bcrypt
	Argon2  *Argon2
}

// Hash delegates to Primary.
func (a Auto) Hash(plain string) (string, error) {
	if a.Primary == nil {
		return "", errors.New("no primary hasher configured")
	}
	return a.Primary.Hash(plain)
}

// Matches implements Matcher.
func (a Auto) Matches(plain, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$"+algorithmID+"$"):
		return a.Argon2 != nil && a.Argon2.Matches(plain, hash)
	case isBcryptHash(hash):
		return a.Bcrypt != nil && a.Bcrypt.Matches(plain, hash)
	default:
		return false
	}
}
