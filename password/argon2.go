package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID  = "argon2id"
	minPassBytes = 8

	minArgonMemoryKB uint32 = 8 * 1024
	minArgonTime     uint32 = 1
	minArgonThreads  uint8  = 1
	minArgonSaltLen  uint32 = 16
	minArgonKeyLen   uint32 = 16
)

// ErrMalformedHash marks a stored hash that cannot be decoded.
var ErrMalformedHash = errors.New("malformed password hash")

// Argon2Config holds the argon2id cost parameters.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// MaxPasswordBytes caps input length; zero selects DefaultMaxPasswordBytes.
	MaxPasswordBytes int
}

// DefaultArgon2Config returns the OWASP-recommended argon2id parameters.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (c Argon2Config) validate() error {
	switch {
	case c.Memory < minArgonMemoryKB:
		return fmt.Errorf("argon2 memory must be >= %d KB", minArgonMemoryKB)
	case c.Time < minArgonTime:
		return errors.New("argon2 time must be >= 1")
	case c.Parallelism < minArgonThreads:
		return errors.New("argon2 parallelism must be >= 1")
	case c.SaltLength < minArgonSaltLen:
		return fmt.Errorf("argon2 salt length must be >= %d", minArgonSaltLen)
	case c.KeyLength < minArgonKeyLen:
		return fmt.Errorf("argon2 key length must be >= %d", minArgonKeyLen)
	case c.MaxPasswordBytes < 0:
		return errors.New("argon2 max password bytes must be >= 0")
	}
	return nil
}

// Argon2 hashes passwords as argon2id PHC strings. It is the upgrade path
// for directories still holding bcrypt hashes; see Auto.
type Argon2 struct {
	config Argon2Config
}

// NewArgon2 validates cfg and returns a hasher.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}
	return &Argon2{config: cfg}, nil
}

// phc is the decoded form of $argon2id$v=19$m=..,t=..,p=..$salt$key.
type phc struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (p phc) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(p.salt),
		base64.RawStdEncoding.EncodeToString(p.key))
}

func (p phc) derive(plain string) []byte {
	return argon2.IDKey([]byte(plain), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
}

// Hash encodes plain with a fresh random salt. Bytes are hashed as given,
// without Unicode normalization.
func (a *Argon2) Hash(plain string) (string, error) {
	if len(plain) < minPassBytes {
		return "", ErrPasswordTooShort
	}
	if len(plain) > a.config.MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	p := phc{
		memory:  a.config.Memory,
		time:    a.config.Time,
		threads: a.config.Parallelism,
		salt:    salt,
	}
	p.key = argon2.IDKey([]byte(plain), salt, p.time, p.memory, p.threads, a.config.KeyLength)
	return p.String(), nil
}

// Verify reports whether plain matches encoded. A malformed hash is an
// ErrMalformedHash error, not a mismatch.
func (a *Argon2) Verify(plain, encoded string) (bool, error) {
	if len(plain) > a.config.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(p.derive(plain), p.key) == 1, nil
}

// Matches implements Matcher. Malformed hashes never match.
func (a *Argon2) Matches(plain, encoded string) bool {
	ok, err := a.Verify(plain, encoded)
	return err == nil && ok
}

// NeedsUpgrade reports whether encoded was produced with weaker
// parameters than a's.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	p, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	cfg := a.config
	return cfg.Memory > p.memory ||
		cfg.Time > p.time ||
		cfg.Parallelism > p.threads ||
		cfg.KeyLength != uint32(len(p.key)), nil
}

func parsePHC(encoded string) (phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return phc{}, fmt.Errorf("%w: expected 5 PHC fields", ErrMalformedHash)
	}
	if parts[1] != algorithmID {
		return phc{}, fmt.Errorf("%w: algorithm %q", ErrMalformedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return phc{}, fmt.Errorf("%w: version field", ErrMalformedHash)
	}
	if version != argon2.Version {
		return phc{}, fmt.Errorf("%w: argon2 version %d", ErrMalformedHash, version)
	}

	var p phc
	var threads uint32
	n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads)
	if err != nil || n != 3 || fmt.Sprintf("m=%d,t=%d,p=%d", p.memory, p.time, threads) != parts[3] {
		return phc{}, fmt.Errorf("%w: parameter field", ErrMalformedHash)
	}
	if p.memory < minArgonMemoryKB || p.time < minArgonTime || threads < uint32(minArgonThreads) || threads > 255 {
		return phc{}, fmt.Errorf("%w: parameters out of range", ErrMalformedHash)
	}
	p.threads = uint8(threads)

	if p.salt, err = decodeB64(parts[4]); err != nil || len(p.salt) < int(minArgonSaltLen) {
		return phc{}, fmt.Errorf("%w: salt", ErrMalformedHash)
	}
	if p.key, err = decodeB64(parts[5]); err != nil || len(p.key) == 0 {
		return phc{}, fmt.Errorf("%w: key", ErrMalformedHash)
	}
	return p, nil
}

// decodeB64 accepts both the unpadded PHC form and padded base64.
func decodeB64(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
