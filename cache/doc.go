// Package cache provides response caching for idempotent GitHub reads.
//
// It provides a Cache interface with a memory implementation, SHA-256
// based key derivation from request coordinates, per-resource TTL
// policies, and a read-through wrapper that serves repeated reads without
// spending rate-limit tokens.
package cache
