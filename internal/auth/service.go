package auth

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/formcheck/pkg"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/blake2b"
)

const (
	DefaultTTL     = 2 * time.Hour
	tokenLength    = 40
	tokenKeyPrefix = "formcheck-session-token||"
)

var ErrInvalidToken = errors.New("invalid session token")

// TokenChecker verifies that a frame token belongs to a session.
type TokenChecker interface {
	Verify(ctx context.Context, sessionID, token string) (bool, error)
}

var _ TokenChecker = (*TokenStore)(nil)

// TokenStore issues one bearer token per workout session and keeps only its
// blake2b hash in redis, keyed by the session id.
type TokenStore struct {
	redisClient *redis.Client
	ttl         time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewTokenStore(ttl time.Duration, redisClient *redis.Client) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenStore{
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func tokenKey(sessionID string) string {
	return tokenKeyPrefix + sessionID
}

func hashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (ts *TokenStore) Issue(ctx context.Context, sessionID string) (string, error) {
	token, err := ts.RandStringFunc(tokenLength)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	if err := ts.redisClient.Set(ctx, tokenKey(sessionID), hashToken(token), ts.ttl).Err(); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}

	return token, nil
}

func (ts *TokenStore) Verify(ctx context.Context, sessionID, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	stored, err := ts.redisClient.Get(ctx, tokenKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get token: %w", err)
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(hashToken(token))) == 1, nil
}

// Revoke removes the session token. Revoking an unknown session is not an error.
func (ts *TokenStore) Revoke(ctx context.Context, sessionID string) error {
	if err := ts.redisClient.Del(ctx, tokenKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
