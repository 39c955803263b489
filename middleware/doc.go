// Package middleware exposes HTTP middleware adapters for the flow engine.
//
// # Middleware
//
//   - [ClientInfo] — copies the client IP and user agent into the request
//     context so the engine's default fingerprint and audit stream see them.
//   - [RequireAccess] — verifies the access token issued on terminal login
//     and injects its claims into the request context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT
// implement authentication logic itself — all decisions are delegated to
// the engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
//   - Make authorization decisions beyond pass/reject from Engine validation.
package middleware
