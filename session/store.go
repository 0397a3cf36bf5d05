package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no session exists for the user.
	ErrNotFound = errors.New("session not found")
	// ErrFingerprintMismatch is returned by RotateFingerprint when the
	// stored fingerprint is not the expected one.
	ErrFingerprintMismatch = errors.New("session fingerprint mismatch")
	// ErrUnavailable wraps backend faults such as a lost Redis connection.
	ErrUnavailable = errors.New("session backend unavailable")
	// ErrCorrupt is returned when a stored blob cannot be decoded.
	ErrCorrupt = errors.New("session record corrupt")
)

// DefaultKeyPrefix namespaces session keys as user:<userID>.
const DefaultKeyPrefix = "user:"

// Store is the persistence contract for sessions: single-key get,
// set-with-ttl and delete, each independently atomic.
type Store interface {
	// Get returns ErrNotFound when the user has no live session.
	Get(ctx context.Context, userID string) (*Session, error)
	// Save overwrites any existing session for sess.UserID.
	Save(ctx context.Context, sess *Session, ttl time.Duration) error
	// Delete is idempotent.
	Delete(ctx context.Context, userID string) error
}

// FingerprintRotator is implemented by stores that can swap the
// fingerprint with a single compare-and-set.
//
// RotateFingerprint replaces the stored fingerprint with next only if it
// currently equals expected, stamps RenewedAt and resets the TTL. It
// returns the updated session, ErrNotFound, or ErrFingerprintMismatch.
type FingerprintRotator interface {
	RotateFingerprint(ctx context.Context, userID, expected, next string, renewedAt time.Time, ttl time.Duration) (*Session, error)
}
