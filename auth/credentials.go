package auth

import (
	"context"
	"fmt"

	"github.com/jonwraymond/reviewops/secret"
)

// NewStaticTokenSourceFromRef resolves a token reference through the given
// resolver and wraps the result in a StaticTokenSource. The reference may
// be a plain token, an ${ENV} expansion, or a secretref value such as
// secretref:env:GITHUB_TOKEN.
func NewStaticTokenSourceFromRef(ctx context.Context, r *secret.Resolver, ref string) (*StaticTokenSource, error) {
	token, err := r.ResolveValue(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("auth: resolve token: %w", err)
	}
	source := NewStaticTokenSource(token)
	if _, err := source.Token(ctx); err != nil {
		return nil, err
	}
	return source, nil
}

// ResolvePrivateKey resolves a private key reference into PEM bytes for
// AppConfig.PrivateKey. File-backed references are the common case:
// secretref:file:/etc/reviewops/app.pem.
func ResolvePrivateKey(ctx context.Context, r *secret.Resolver, ref string) ([]byte, error) {
	pem, err := r.ResolveValue(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("auth: resolve private key: %w", err)
	}
	if pem == "" {
		return nil, ErrPrivateKey
	}
	return []byte(pem), nil
}
