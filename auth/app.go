package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// AppConfig configures a GitHub App token source.
type AppConfig struct {
	// AppID is the GitHub App identifier used as the JWT issuer.
	AppID string

	// InstallationID identifies the installation to mint tokens for.
	InstallationID int64

	// PrivateKey is the app's RSA private key in PEM form.
	PrivateKey []byte

	// BaseURL is the API root used for the token exchange.
	// Default: "https://api.github.com"
	BaseURL string

	// JWTLifetime is the validity window of the signed app JWT.
	// GitHub rejects anything above 10 minutes.
	// Default: 9 minutes
	JWTLifetime time.Duration

	// RefreshMargin is how long before expiry a cached installation token
	// is considered stale and refreshed.
	// Default: 5 minutes
	RefreshMargin time.Duration

	// HTTPClient is the client used for the token exchange.
	// If nil, a default client with 30s timeout is used.
	HTTPClient *http.Client
}

// AppTokenSource mints installation access tokens for a GitHub App. It
// signs a short-lived RS256 app JWT, exchanges it for an installation
// token, and caches the result until near expiry. Concurrent refreshes
// collapse into a single exchange.
type AppTokenSource struct {
	config AppConfig
	key    *rsa.PrivateKey

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	sfGroup singleflight.Group
}

// NewAppTokenSource creates an app token source.
func NewAppTokenSource(config AppConfig) (*AppTokenSource, error) {
	if config.AppID == "" || config.InstallationID == 0 || len(config.PrivateKey) == 0 {
		return nil, ErrMissingAppConfig
	}

	// Apply defaults
	if config.BaseURL == "" {
		config.BaseURL = "https://api.github.com"
	}
	if config.JWTLifetime <= 0 || config.JWTLifetime > 10*time.Minute {
		config.JWTLifetime = 9 * time.Minute
	}
	if config.RefreshMargin <= 0 {
		config.RefreshMargin = 5 * time.Minute
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	key, err := parsePrivateKey(config.PrivateKey)
	if err != nil {
		return nil, err
	}

	return &AppTokenSource{
		config: config,
		key:    key,
	}, nil
}

// Token returns a valid installation token, refreshing it when the cached
// one is missing or inside the refresh margin.
func (s *AppTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token, fresh := s.token, time.Until(s.expiresAt) > s.config.RefreshMargin
	s.mu.RUnlock()

	if token != "" && fresh {
		return token, nil
	}

	v, err, _ := s.sfGroup.Do("refresh", func() (any, error) {
		// Re-check under the flight: a racing caller may have refreshed.
		s.mu.RLock()
		token, fresh := s.token, time.Until(s.expiresAt) > s.config.RefreshMargin
		s.mu.RUnlock()
		if token != "" && fresh {
			return token, nil
		}
		return s.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// ExpiresAt returns the expiry of the cached installation token, zero if
// none has been minted yet.
func (s *AppTokenSource) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

func (s *AppTokenSource) refresh(ctx context.Context) (string, error) {
	appJWT, err := s.signAppJWT()
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/app/installations/%d/access_tokens", s.config.BaseURL, s.config.InstallationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrTokenExchange, resp.StatusCode, body)
	}

	var payload struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if payload.Token == "" {
		return "", ErrTokenMalformed
	}

	s.mu.Lock()
	s.token = payload.Token
	s.expiresAt = payload.ExpiresAt
	s.mu.Unlock()

	return payload.Token, nil
}

// signAppJWT builds the RS256 app JWT GitHub expects: iss is the app ID,
// iat is backdated 60s to absorb clock drift.
func (s *AppTokenSource) signAppJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.AppID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-60 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWTLifetime)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPrivateKey, err)
	}
	return signed, nil
}

func parsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrPrivateKey
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrivateKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrPrivateKey
	}
	return key, nil
}

// Ensure AppTokenSource implements TokenSource
var _ TokenSource = (*AppTokenSource)(nil)
