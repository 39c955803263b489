// Package rate implements the per-fingerprint request-window limiter backing
// the Redis session store. Counters use fixed-window semantics on Redis
// INCR with a TTL set on the first hit in the window.
package rate
