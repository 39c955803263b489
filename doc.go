// Package authflow provides a multi-step authentication and registration flow
// engine: email/phone OTP verification, progressive profile collection, and
// account finalization, driven by a (flow, screen, event) dispatch table over
// ephemeral Redis-backed session state.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Engine], [Builder], [Config],
// the wire types ([SubmitRequest], [SubmitResponse]), and the collaborator
// interfaces ([UserProvider], [EmailSender], [SMSSender]). Session state and
// its stores live under session/; request-window rate limiting lives under
// internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, store internals, or session encoding details in
//     its public API.
//   - Render pages or own routing beyond the single submit operation; the
//     httpapi sub-package is a thin optional transport.
//   - Import any sub-package that re-imports authflow (no import cycles).
//
// # Request contract
//
// Submit is the only orchestrated entry point. Every call performs at most
// one side-effecting collaborator action (send an OTP, or create a user) and
// at most one session write. Errors are mapped to wire responses in exactly
// one place, [ErrorResponse].
package authflow
