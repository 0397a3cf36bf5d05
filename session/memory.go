package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// MemoryConfig sizes the in-process cache behind MemoryStore.
type MemoryConfig struct {
	NumCounters int64
	MaxCost     int64
}

// DefaultMemoryConfig fits roughly a hundred thousand sessions.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		NumCounters: 1_000_000,
		MaxCost:     64 << 20,
	}
}

// MemoryStore is a single-process Store on a ristretto cache with
// per-entry TTL. It is meant for tests, demos and single-node setups.
type MemoryStore struct {
	cache *ristretto.Cache[string, []byte]
	// mu serializes writers so RotateFingerprint is a true compare-and-set.
	mu sync.Mutex
}

// NewMemoryStore builds a MemoryStore. Zero fields in cfg take defaults.
func NewMemoryStore(cfg MemoryConfig) (*MemoryStore, error) {
	def := DefaultMemoryConfig()
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = def.NumCounters
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = def.MaxCost
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session cache: %w", err)
	}

	return &MemoryStore{cache: cache}, nil
}

// Close releases the cache goroutines.
func (s *MemoryStore) Close() {
	s.cache.Close()
}

// Get returns a copy of the stored session.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	data, ok := s.cache.Get(userID)
	if !ok {
		return nil, ErrNotFound
	}
	sess, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	return sess, nil
}

// Save stores sess with ttl, replacing any earlier session for the user.
func (s *MemoryStore) Save(_ context.Context, sess *Session, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLocked(sess.UserID, data, ttl)
}

// Delete removes the session for userID. Missing keys are not an error.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Del(userID)
	s.cache.Wait()
	return nil
}

// RotateFingerprint implements FingerprintRotator under the store mutex.
func (s *MemoryStore) RotateFingerprint(
	_ context.Context,
	userID, expected, next string,
	renewedAt time.Time,
	ttl time.Duration,
) (*Session, error) {
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.cache.Get(userID)
	if !ok {
		return nil, ErrNotFound
	}
	sess, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	if sess.Fingerprint != expected {
		return nil, ErrFingerprintMismatch
	}

	sess.Fingerprint = next
	sess.RenewedAt = unixMillis(renewedAt)
	updated, err := Encode(sess)
	if err != nil {
		return nil, err
	}
	if err := s.setLocked(userID, updated, ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *MemoryStore) setLocked(userID string, data []byte, ttl time.Duration) error {
	if !s.cache.SetWithTTL(userID, data, int64(len(data)), ttl) {
		return fmt.Errorf("%w: cache rejected write", ErrUnavailable)
	}
	s.cache.Wait()
	if _, ok := s.cache.Get(userID); !ok {
		return fmt.Errorf("%w: cache evicted write", ErrUnavailable)
	}
	return nil
}
