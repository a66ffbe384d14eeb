// Package cache implements the read-side cache.
//
// Reads go through Fetch, which serves a JSON-encoded entry when present
// and otherwise calls the loader and stores its result with the TTL of the
// cache name. Writers describe what they made stale with an Invalidation
// (exact keys plus glob patterns) and call Cache.Invalidate after their
// transaction commits.
//
// Backend failures never fail a request: they are logged and the read
// falls through to the store. Entries may therefore be stale for up to
// one TTL after a failed invalidation.
package cache
