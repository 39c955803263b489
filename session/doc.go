// Package session owns the ephemeral per-flow state behind the auth flow
// engine: creation, sliding-TTL reads and writes, per-client session quotas,
// and the request-window rate limiter.
//
// Two implementations of [Store] are provided. [RedisStore] is the
// production backend (TTL-native expiry, quota tracked in per-client sets,
// rate window on Redis counters); [MemoryStore] is a single-process backend
// for tests and local runs with an explicit sweep in CleanupExpired.
//
// The engine is the only writer of a given session; updates are plain
// read-modify-write with last-writer-wins semantics.
package session
