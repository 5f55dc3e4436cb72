package verify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"emotlink/internal/util"
)

const (
	tokenKeyPrefix    = "email_verify_token:"
	verifiedKeyPrefix = "email_verified:"
)

// DefaultTTL bounds how long a verification token or a confirmed
// verification stays usable.
const DefaultTTL = 24 * time.Hour

// Store keeps email-verification state in Redis: an outstanding token
// per email, and the confirmed-verification record signup checks.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore builds a Redis-backed verification store.
func NewStore(addr, password string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// Request allocates a fresh verification token for the email.
func (s *Store) Request(ctx context.Context, email string) (string, error) {
	token := util.NewID()
	if err := s.client.Set(ctx, tokenKeyPrefix+token, email, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Confirm resolves a token to its email and records the verification.
// Returns the verified email, or ok=false for unknown/expired tokens.
func (s *Store) Confirm(ctx context.Context, token string) (string, bool, error) {
	email, err := s.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if err := s.client.Set(ctx, verifiedKeyPrefix+email, token, s.ttl).Err(); err != nil {
		return "", false, err
	}
	return email, true, nil
}

// Check reports whether token is the confirmed verification for email.
func (s *Store) Check(ctx context.Context, email, token string) (bool, error) {
	stored, err := s.client.Get(ctx, verifiedKeyPrefix+email).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored == token, nil
}

// Consume drops the verification state after a successful signup.
func (s *Store) Consume(ctx context.Context, email, token string) error {
	err := s.client.Del(ctx, verifiedKeyPrefix+email, tokenKeyPrefix+token).Err()
	if err != nil && err != redis.Nil {
		return err
	}
	return nil
}
