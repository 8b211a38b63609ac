package auth

import "errors"

// Sentinel errors for credential resolution.
var (
	ErrNoToken          = errors.New("auth: no token configured")
	ErrPrivateKey       = errors.New("auth: invalid private key")
	ErrTokenExchange    = errors.New("auth: installation token exchange failed")
	ErrTokenMalformed   = errors.New("auth: token response malformed")
	ErrMissingAppConfig = errors.New("auth: app ID, installation ID, and private key are required")
)
