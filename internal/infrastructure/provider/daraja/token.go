package daraja

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// TokenStore caches Daraja OAuth access tokens between API calls. Tokens are
// valid for about an hour; fetching one per request would double every
// gateway round trip.
type TokenStore interface {
	Get(ctx context.Context) (string, bool)
	Set(ctx context.Context, token string, ttl time.Duration)
}

const tokenKey = "daraja:access_token"

type redisTokenStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenStore caches tokens in redis so every server instance shares
// one token.
func NewRedisTokenStore(client *redis.Client, logger *zap.Logger) TokenStore {
	return &redisTokenStore{client: client, logger: logger}
}

func (s *redisTokenStore) Get(ctx context.Context) (string, bool) {
	token, err := s.client.Get(ctx, tokenKey).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to read cached access token", zap.Error(err))
		}
		return "", false
	}
	return token, true
}

func (s *redisTokenStore) Set(ctx context.Context, token string, ttl time.Duration) {
	if err := s.client.Set(ctx, tokenKey, token, ttl).Err(); err != nil {
		s.logger.Warn("failed to cache access token", zap.Error(err))
	}
}

type memoryTokenStore struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewMemoryTokenStore caches tokens in process memory. Used when redis is
// not configured.
func NewMemoryTokenStore() TokenStore {
	return &memoryTokenStore{}
}

func (s *memoryTokenStore) Get(ctx context.Context) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" || time.Now().After(s.expiresAt) {
		return "", false
	}
	return s.token, true
}

func (s *memoryTokenStore) Set(ctx context.Context, token string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = time.Now().Add(ttl)
}

// accessToken returns a cached OAuth token or fetches a fresh one from the
// Daraja auth endpoint using basic auth over the consumer key pair.
func (p *Provider) accessToken(ctx context.Context) (string, error) {
	if token, ok := p.tokens.Get(ctx); ok {
		return token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.AuthURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(p.cfg.ConsumerKey + ":" + p.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &Error{Code: "NETWORK_ERROR", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Code: "RESPONSE_ERROR", Message: err.Error()}
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.AccessToken == "" {
		p.logger.Error("failed to obtain access token",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)))
		return "", &Error{Code: "AUTH_ERROR", Message: "failed to obtain access token"}
	}

	ttl := time.Hour
	if seconds, err := strconv.Atoi(result.ExpiresIn); err == nil && seconds > 0 {
		ttl = time.Duration(seconds) * time.Second
	}
	// Expire the cached copy early so a token is never used right at its
	// deadline.
	if ttl > 2*time.Minute {
		ttl -= time.Minute
	}
	p.tokens.Set(ctx, result.AccessToken, ttl)

	return result.AccessToken, nil
}
