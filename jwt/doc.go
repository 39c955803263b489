// Package jwt issues and parses the access tokens handed out on terminal
// login. It wraps github.com/golang-jwt/jwt/v5 with the engine's signing
// policy: ed25519 or hs256, bounded leeway, and issued-at sanity checks.
package jwt
