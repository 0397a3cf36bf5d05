package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rotateStatusNotFound    = 0
	rotateStatusMismatch    = 2
	rotateStatusRotated     = 3
	rotateStatusInvalidBlob = 4
)

// KEYS[1] session key
// ARGV[1] expected fingerprint, ARGV[2] next fingerprint,
// ARGV[3] renewedAt as 8 big-endian bytes, ARGV[4] ttl in milliseconds
const rotateFingerprintScript = `
local data = redis.call("GET", KEYS[1])
if not data then
  return {0}
end

local version = string.byte(data, 1)
if version ~= 1 then
  return {4}
end

local fp_len = string.byte(data, 2)
if not fp_len or #data < 2 + fp_len + 8 then
  return {4}
end

local current = string.sub(data, 3, 2 + fp_len)
if current ~= ARGV[1] then
  return {2}
end

local rest = string.sub(data, 3 + fp_len, #data - 8)
local updated = string.char(version) .. string.char(#ARGV[2]) .. ARGV[2] .. rest .. ARGV[3]
redis.call("SET", KEYS[1], updated, "PX", ARGV[4])
return {3, updated}
`

var rotateFingerprintLua = redis.NewScript(rotateFingerprintScript)

// RedisStore keeps sessions in Redis under prefix+userID with a TTL.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store on client. An empty prefix selects
// DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

// Save persists sess with ttl, replacing any earlier session for the user.
//
//	Performance: 1 Redis SET.
func (s *RedisStore) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	data, err := Encode(sess)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(sess.UserID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get loads the session for userID.
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sess, err := Decode(data)
	if err != nil {
		return nil, errors.Join(ErrCorrupt, err)
	}
	return sess, nil
}

// Delete removes the session for userID. Missing keys are not an error.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// RotateFingerprint swaps the fingerprint with a Lua compare-and-set so
// that two requests renewing the same expired token cannot both win.
//
//	Performance: 1 Lua EVALSHA.
func (s *RedisStore) RotateFingerprint(
	ctx context.Context,
	userID, expected, next string,
	renewedAt time.Time,
	ttl time.Duration,
) (*Session, error) {
	if len(next) > maxFieldLen {
		return nil, errors.New("fingerprint too long")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	var stamp [renewedAtSize]byte
	binary.BigEndian.PutUint64(stamp[:], uint64(renewedAt.UnixMilli()))

	result, err := rotateFingerprintLua.Run(
		ctx,
		s.redis,
		[]string{s.key(userID)},
		expected,
		next,
		stamp[:],
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return nil, fmt.Errorf("%w: invalid rotate script response", ErrUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return nil, fmt.Errorf("%w: invalid rotate script status", ErrUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return nil, ErrNotFound
	case rotateStatusMismatch:
		return nil, ErrFingerprintMismatch
	case rotateStatusRotated:
		if len(parts) < 2 {
			return nil, fmt.Errorf("%w: missing updated session payload", ErrUnavailable)
		}
		var blob []byte
		switch v := parts[1].(type) {
		case string:
			blob = []byte(v)
		case []byte:
			blob = v
		default:
			return nil, fmt.Errorf("%w: invalid updated session payload", ErrUnavailable)
		}
		sess, err := Decode(blob)
		if err != nil {
			return nil, errors.Join(ErrCorrupt, err)
		}
		return sess, nil
	case rotateStatusInvalidBlob:
		return nil, ErrCorrupt
	default:
		return nil, fmt.Errorf("%w: unknown rotate script status", ErrUnavailable)
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
