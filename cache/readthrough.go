package cache

import (
	"context"
)

// FetchFunc produces the response body on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// ReadThrough wraps idempotent API reads with caching. Mutations go around
// it and call Invalidate on the coordinates they touch.
type ReadThrough struct {
	cache  Cache
	keyer  Keyer
	policy Policy
}

// NewReadThrough creates a read-through wrapper.
// If keyer is nil, DefaultKeyer is used.
func NewReadThrough(cache Cache, keyer Keyer, policy Policy) *ReadThrough {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &ReadThrough{
		cache:  cache,
		keyer:  keyer,
		policy: policy,
	}
}

// Get serves the read from cache when possible, otherwise calls fetch and
// stores the result under the policy's TTL for the resource kind.
// Errors are NOT cached.
func (r *ReadThrough) Get(ctx context.Context, resource string, coords []string, fetch FetchFunc) ([]byte, error) {
	if r.cache == nil || !r.policy.ShouldCache(resource) {
		return fetch(ctx)
	}

	key, err := r.keyer.Key(resource, coords...)
	if err != nil {
		// Key generation failed - fetch without caching
		return fetch(ctx)
	}

	if cached, ok := r.cache.Get(ctx, key); ok {
		return cached, nil
	}

	result, err := fetch(ctx)
	if err != nil {
		return result, err
	}

	_ = r.cache.Set(ctx, key, result, r.policy.TTLFor(resource))
	return result, nil
}

// Invalidate drops the cached entry for the given coordinates.
func (r *ReadThrough) Invalidate(ctx context.Context, resource string, coords ...string) error {
	if r.cache == nil {
		return nil
	}
	key, err := r.keyer.Key(resource, coords...)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, key)
}
