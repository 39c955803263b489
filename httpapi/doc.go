// Package httpapi mounts the flow engine behind an HTTP transport.
//
// [NewRouter] builds a chi router exposing POST /auth/submit plus a health
// probe. The handler decodes the wire request, calls [authflow.Engine.Submit],
// and writes the engine's response verbatim; on terminal login the issued
// token pair is moved into HttpOnly cookies and never appears in the body.
//
// # What this package must NOT do
//
//   - Implement flow decisions (the engine owns the state machine).
//   - Rewrite engine error payloads beyond status code plumbing.
package httpapi
