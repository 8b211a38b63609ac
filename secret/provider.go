package secret

import "context"

// Provider resolves secrets by reference string.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: a missing secret is an error, never an empty string.
//   - Logging: implementations must not log secret values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}
