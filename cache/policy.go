package cache

import "time"

// Resource kinds used as key namespaces and policy lookups.
const (
	ResourcePullRequest = "pull_request"
	ResourceDiff        = "diff"
	ResourceFileContent = "file_content"
	ResourceComment     = "comment"
)

// Policy configures per-resource caching behavior. Pull request metadata
// and diffs change while a review is in flight and get short TTLs; file
// contents are pinned to a ref and can live longer.
type Policy struct {
	// DefaultTTL applies to resource kinds without an explicit entry.
	// If zero, such kinds are not cached.
	DefaultTTL time.Duration

	// TTLs maps a resource kind to its TTL. A zero entry disables caching
	// for that kind.
	TTLs map[string]time.Duration

	// MaxTTL is the maximum allowed TTL. Per-kind TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: time.Minute,
		TTLs: map[string]time.Duration{
			ResourcePullRequest: time.Minute,
			ResourceDiff:        time.Minute,
			ResourceFileContent: 10 * time.Minute,
			ResourceComment:     30 * time.Second,
		},
		MaxTTL: time.Hour,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if the policy caches the given resource kind.
func (p Policy) ShouldCache(resource string) bool {
	return p.TTLFor(resource) > 0
}

// TTLFor returns the TTL for a resource kind, applying the default and
// clamping to MaxTTL.
func (p Policy) TTLFor(resource string) time.Duration {
	ttl, ok := p.TTLs[resource]
	if !ok {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
