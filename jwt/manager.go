package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the algorithm used to sign access tokens.
type SigningMethod string

const (
	// MethodHS256 signs with a shared symmetric secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 key pair.
	MethodEd25519 SigningMethod = "ed25519"
)

// DefaultIssuer is stamped into the iss claim when Config.Issuer is empty.
const DefaultIssuer = "admin"

var (
	// ErrMissingSecret is returned by NewManager when no signing key is configured.
	ErrMissingSecret = errors.New("jwt: signing secret is required")
	// ErrEmptySubject is returned by Issue for a blank subject.
	ErrEmptySubject = errors.New("jwt: subject is required")
)

// Config controls token issuance and verification.
//
// A Manager copies the Config at construction; later changes to the
// caller's value have no effect.
type Config struct {
	SigningMethod SigningMethod
	// Secret is the HS256 key, or the Ed25519 private key.
	Secret    []byte
	PublicKey []byte
	Issuer    string
	Leeway    time.Duration
	// MaxFutureIAT rejects tokens whose iat is further ahead of the local clock.
	MaxFutureIAT time.Duration
	Now          func() time.Time
}

// Manager issues and verifies signed access tokens.
type Manager struct {
	config  Config
	signKey interface{}
	verKey  interface{}
}

type claims struct {
	jwt.RegisteredClaims
}

// Token is an issued access token together with its decoded fields.
type Token struct {
	Value     string
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.SigningMethod == "" {
		cfg.SigningMethod = MethodHS256
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("jwt: invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{config: cfg}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.Secret) == 0 {
			return nil, ErrMissingSecret
		}
		key := append([]byte(nil), cfg.Secret...)
		m.signKey = key
		m.verKey = key
	case MethodEd25519:
		if len(cfg.Secret) == 0 {
			return nil, ErrMissingSecret
		}
		priv, err := parseEdPrivateKey(cfg.Secret)
		if err != nil {
			return nil, err
		}
		m.signKey = priv
		m.verKey = priv.Public()
		if len(cfg.PublicKey) > 0 {
			pub, err := parseEdPublicKey(cfg.PublicKey)
			if err != nil {
				return nil, err
			}
			m.verKey = pub
		}
	default:
		return nil, fmt.Errorf("jwt: unsupported signing method %q", cfg.SigningMethod)
	}

	return m, nil
}

// Issue signs a new token for subject with a fresh random token id.
//
// A zero or negative lifetime is legal and yields a token that is
// already expired when it is returned.
func (m *Manager) Issue(subject string, lifetime time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, ErrEmptySubject
	}

	now := m.config.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry(now, lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(m.method(), c).SignedString(m.signKey)
	if err != nil {
		return Token{}, fmt.Errorf("jwt: sign token: %w", err)
	}

	return Token{
		Value:     signed,
		Subject:   subject,
		TokenID:   c.ID,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// expiry returns now+lifetime. NumericDate keeps whole seconds only, so a
// positive lifetime is rounded up to the next second and never ends
// before it started.
func expiry(now time.Time, lifetime time.Duration) time.Time {
	exp := now.Add(lifetime)
	if lifetime <= 0 {
		return exp
	}
	if floor := exp.Truncate(time.Second); floor.Before(exp) {
		return floor.Add(time.Second)
	}
	return exp
}

// Verify checks the signature and claims of tokenString.
//
// Expiry is evaluated only after the signature and every other claim
// passed, so an Expired result always carries trustworthy Subject and
// TokenID values.
func (m *Manager) Verify(tokenString string) Result {
	if tokenString == "" {
		return invalid(errors.New("empty token"))
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var c claims
	token, err := parser.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return m.verKey, nil
	})
	if err != nil {
		return invalid(err)
	}
	if !token.Valid {
		return invalid(jwt.ErrTokenInvalidClaims)
	}

	switch {
	case c.Issuer != m.config.Issuer:
		return invalid(jwt.ErrTokenInvalidIssuer)
	case c.Subject == "":
		return invalid(jwt.ErrTokenInvalidSubject)
	case c.ID == "":
		return invalid(jwt.ErrTokenInvalidId)
	case c.ExpiresAt == nil || c.IssuedAt == nil:
		return invalid(jwt.ErrTokenRequiredClaimMissing)
	}

	now := m.config.Now()
	if c.IssuedAt.Time.After(now.Add(m.config.MaxFutureIAT)) {
		return Result{
			Status:    StatusClockSkew,
			Subject:   c.Subject,
			TokenID:   c.ID,
			IssuedAt:  c.IssuedAt.Time,
			ExpiresAt: c.ExpiresAt.Time,
			Err:       fmt.Errorf("%w: iat %s is ahead of local clock %s", jwt.ErrTokenUsedBeforeIssued, c.IssuedAt.Time.UTC(), now.UTC()),
		}
	}

	res := Result{
		Status:    StatusValid,
		Subject:   c.Subject,
		TokenID:   c.ID,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if !now.Before(c.ExpiresAt.Time.Add(m.config.Leeway)) {
		res.Status = StatusExpired
		res.Err = jwt.ErrTokenExpired
	}
	return res
}

func (m *Manager) method() jwt.SigningMethod {
	if m.config.SigningMethod == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("jwt: invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("jwt: invalid ed25519 public key type")
	}
	return edKey, nil
}
