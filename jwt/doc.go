// Package jwt reads the claims of session tokens the remote API issues.
//
// The client never holds the signing key, so tokens are decoded without
// signature verification. The result is only used for display and expiry
// hints; the server stays the authority on whether a token is valid.
package jwt
