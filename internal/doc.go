// Package internal holds crypto-adjacent helpers shared across the flow
// engine: OTP generation and refresh-token encoding. Nothing here is part
// of the public API.
package internal
