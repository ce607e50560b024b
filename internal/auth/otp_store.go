package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// ErrOTPNotFound is returned when no live code exists for a username.
var ErrOTPNotFound = errors.New("otp not found")

// OTPStore keeps the pending one-time code hash for each username.
type OTPStore interface {
	Put(ctx context.Context, username, hash string, ttl time.Duration) error
	Get(ctx context.Context, username string) (string, error)
	Delete(ctx context.Context, username string) error
}

type otpKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OTPKey(username string) string
}

type otpRecord struct {
	Hash      string    `json:"hash"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisOTPStore stores codes in Redis. The expiry is also recorded in the
// value and checked against the injected clock, so a stale key left behind
// by Redis is still treated as expired.
type RedisOTPStore struct {
	kv  otpKV
	now func() time.Time
}

// NewRedisOTPStore builds an OTP store on top of the shared Redis client.
func NewRedisOTPStore(client *redisclient.Client, now func() time.Time) (*RedisOTPStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return newOTPStore(client, now), nil
}

func newOTPStore(kv otpKV, now func() time.Time) *RedisOTPStore {
	if now == nil {
		now = time.Now
	}
	return &RedisOTPStore{kv: kv, now: now}
}

func (s *RedisOTPStore) Put(ctx context.Context, username, hash string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("otp ttl must be positive")
	}
	payload, err := json.Marshal(otpRecord{Hash: hash, ExpiresAt: s.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("encode otp: %w", err)
	}
	return s.kv.Set(ctx, s.kv.OTPKey(normalizeUsername(username)), string(payload), ttl)
}

func (s *RedisOTPStore) Get(ctx context.Context, username string) (string, error) {
	key := s.kv.OTPKey(normalizeUsername(username))
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redisclient.ErrNil) {
			return "", ErrOTPNotFound
		}
		return "", err
	}

	var rec otpRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return "", fmt.Errorf("decode otp: %w", err)
	}
	if !s.now().Before(rec.ExpiresAt) {
		_ = s.kv.Del(ctx, key)
		return "", ErrOTPNotFound
	}
	return rec.Hash, nil
}

func (s *RedisOTPStore) Delete(ctx context.Context, username string) error {
	return s.kv.Del(ctx, s.kv.OTPKey(normalizeUsername(username)))
}

func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
