package auth

import (
	"context"
	"strings"
)

// TokenSource supplies the bearer token attached to outbound API requests.
//
// Contract:
//   - Token returns a currently valid token or an error; it never returns
//     an empty token with a nil error.
//   - Implementations must be safe for concurrent use.
//   - Token may block on the network (app installations refresh their
//     token); callers pass a context with a deadline.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed personal access token.
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource creates a token source around a fixed token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: strings.TrimSpace(token)}
}

// Token returns the configured token.
func (s *StaticTokenSource) Token(_ context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Ensure StaticTokenSource implements TokenSource
var _ TokenSource = (*StaticTokenSource)(nil)
